package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobboard-api/internal/models"
)

func TestScoreSubmission(t *testing.T) {
	assessment := quizAssessment(t)

	cases := []struct {
		name    string
		answers []string
		score   int
		passed  bool
		correct int
	}{
		{name: "perfect", answers: []string{"a", "b", "c", "d"}, score: 100, passed: true, correct: 4},
		{name: "threshold", answers: []string{"a", "b", "c", "x"}, score: 75, passed: true, correct: 3},
		{name: "partial", answers: []string{"a", "b", "", ""}, score: 50, passed: false, correct: 2},
		{name: "case sensitive", answers: []string{"A", "B", "C", "D"}, score: 0, passed: false, correct: 0},
		{name: "whitespace counts", answers: []string{" a", "b", "c", "d"}, score: 75, passed: true, correct: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ScoreSubmission(assessment, tc.answers)
			require.NoError(t, err)
			require.Equal(t, tc.score, result.Score)
			require.Equal(t, tc.passed, result.Passed)
			require.Equal(t, tc.correct, result.Correct)
			require.Equal(t, 4, result.Total)
		})
	}
}

func TestScoreSubmissionRejectsBadAnswerSets(t *testing.T) {
	assessment := quizAssessment(t)

	_, err := ScoreSubmission(assessment, []string{"a", "b"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "answers", validationErr.Field)

	_, err = ScoreSubmission(assessment, []string{"", "  ", "\t", ""})
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "answers", validationErr.Field)

	empty := assessment
	empty.Questions = []byte(`[]`)
	_, err = ScoreSubmission(empty, []string{"a"})
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "questions", validationErr.Field)
}

func TestScoreSubmissionSkipsCorruptedQuestions(t *testing.T) {
	assessment := models.Assessment{
		Questions:    []byte(`[{"question":"ok","options":["x","y"],"answer":0},{"question":"broken","options":["x","y"],"answer":7}]`),
		PassingScore: 50,
	}

	result, err := ScoreSubmission(assessment, []string{"x", "x"})
	require.NoError(t, err)
	require.Equal(t, 50, result.Score)
	require.True(t, result.Passed)
	require.Equal(t, 2, result.Total)
}

func TestRoundedPercentageRoundsHalfUp(t *testing.T) {
	require.Equal(t, 67, roundedPercentage(2, 3))
	require.Equal(t, 33, roundedPercentage(1, 3))
	require.Equal(t, 13, roundedPercentage(1, 8))
	require.Equal(t, 38, roundedPercentage(3, 8))
	require.Equal(t, 0, roundedPercentage(0, 5))
	require.Equal(t, 100, roundedPercentage(7, 7))
}
