package service

import (
	"strings"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// ScoreResult is the verdict for one submission.
type ScoreResult struct {
	Score   int
	Passed  bool
	Correct int
	Total   int
}

// ScoreSubmission grades answers positionally against the assessment's
// question bank. Questions that cannot be graded earn no credit. It performs
// no I/O.
func ScoreSubmission(assessment models.Assessment, answers []string) (ScoreResult, error) {
	bank := assessment.Bank()
	total := bank.Len()

	if total == 0 {
		return ScoreResult{}, newValidationError("questions", "assessment has no questions")
	}
	if len(answers) != total {
		return ScoreResult{}, newValidationError("answers", "answers must match the number of questions")
	}
	if allBlank(answers) {
		return ScoreResult{}, newValidationError("answers", "at least one answer is required")
	}

	correct := 0
	for i, slot := range bank {
		expected, ok := slot.CorrectOption()
		if ok && answers[i] == expected {
			correct++
		}
	}

	score := roundedPercentage(correct, total)
	return ScoreResult{
		Score:   score,
		Passed:  score >= assessment.PassingThreshold(),
		Correct: correct,
		Total:   total,
	}, nil
}

// roundedPercentage is correct/total*100 rounded half up, in integers.
func roundedPercentage(correct, total int) int {
	return (200*correct + total) / (2 * total)
}

func allBlank(answers []string) bool {
	for _, answer := range answers {
		if strings.TrimSpace(answer) != "" {
			return false
		}
	}
	return true
}
