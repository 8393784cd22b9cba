package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/models"
)

func newAttempt(userID, assessmentID uint, passed bool) *models.Attempt {
	score := 0
	if passed {
		score = 100
	}
	return &models.Attempt{
		UserID:       userID,
		AssessmentID: assessmentID,
		Answers:      []byte(`["4"]`),
		Score:        score,
		Passed:       passed,
	}
}

func TestAttemptRepositoryEnforcesLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	assessment := seedAssessment(t, db, 1)
	ctx := context.Background()

	first := newAttempt(7, assessment.ID, false)
	require.NoError(t, repo.CreateWithinLimit(ctx, first, 2))
	require.Equal(t, 1, first.Sequence)

	second := newAttempt(7, assessment.ID, false)
	require.NoError(t, repo.CreateWithinLimit(ctx, second, 2))
	require.Equal(t, 2, second.Sequence)

	err := repo.CreateWithinLimit(ctx, newAttempt(7, assessment.ID, true), 2)
	require.ErrorIs(t, err, ErrAttemptLimitReached)

	count, err := repo.Count(ctx, 7, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// Another user keeps an independent ledger.
	other := newAttempt(8, assessment.ID, false)
	require.NoError(t, repo.CreateWithinLimit(ctx, other, 2))
	require.Equal(t, 1, other.Sequence)
}

func TestAttemptRepositoryUnlimited(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	assessment := seedAssessment(t, db, 1)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, repo.CreateWithinLimit(ctx, newAttempt(3, assessment.ID, false), 0))
	}

	latest, err := repo.Latest(ctx, 3, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, 10, latest.Sequence)
}

func TestAttemptRepositoryConcurrentSubmissionsRespectLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	assessment := seedAssessment(t, db, 1)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		limited  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateWithinLimit(ctx, newAttempt(5, assessment.ID, false), 2)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrAttemptLimitReached):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 2, accepted)
	require.Equal(t, 6, limited)

	count, err := repo.Count(ctx, 5, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestAttemptSequenceIsUnique(t *testing.T) {
	db := setupTestDB(t)
	assessment := seedAssessment(t, db, 1)

	first := newAttempt(4, assessment.ID, false)
	first.Sequence = 1
	require.NoError(t, db.Create(first).Error)

	duplicate := newAttempt(4, assessment.ID, false)
	duplicate.Sequence = 1
	err := db.Create(duplicate).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
}

func TestAttemptRepositoryLatestNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	_, err := repo.Latest(context.Background(), 1, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttemptRepositoryListPassedWithoutCertificate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()
	assessment := seedAssessment(t, db, 1)
	other := seedAssessment(t, db, 1)

	// user 1 passed twice without a certificate: reported once.
	passedA := newAttempt(1, assessment.ID, true)
	require.NoError(t, repo.CreateWithinLimit(ctx, passedA, 0))
	require.NoError(t, repo.CreateWithinLimit(ctx, newAttempt(1, assessment.ID, true), 0))

	// user 2 passed and already holds a certificate.
	certified := newAttempt(2, assessment.ID, true)
	require.NoError(t, repo.CreateWithinLimit(ctx, certified, 0))
	require.NoError(t, db.Create(&models.Certificate{
		UserID: 2, AssessmentID: assessment.ID, AttemptID: certified.ID, VerificationCode: "held",
	}).Error)

	// user 3 only failed.
	require.NoError(t, repo.CreateWithinLimit(ctx, newAttempt(3, assessment.ID, false), 0))

	// user 1 also passed a second assessment.
	passedB := newAttempt(1, other.ID, true)
	require.NoError(t, repo.CreateWithinLimit(ctx, passedB, 0))

	pending, err := repo.ListPassedWithoutCertificate(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, passedA.ID, pending[0].ID)
	require.Equal(t, passedB.ID, pending[1].ID)

	limited, err := repo.ListPassedWithoutCertificate(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestAttemptRepositoryListByUserPreloads(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()
	assessment := seedAssessment(t, db, 1)

	attempt := newAttempt(9, assessment.ID, true)
	require.NoError(t, repo.CreateWithinLimit(ctx, attempt, 0))
	require.NoError(t, db.Create(&models.Certificate{
		UserID: 9, AssessmentID: assessment.ID, AttemptID: attempt.ID, VerificationCode: "code-9",
	}).Error)

	attempts, err := repo.ListByUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.Equal(t, "Arithmetic", attempts[0].Assessment.Name)
	require.NotNil(t, attempts[0].Certificate)
	require.Equal(t, "code-9", attempts[0].Certificate.VerificationCode)
}
