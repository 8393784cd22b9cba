package service

import (
	"fmt"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/database"
	"github.com/noah-isme/jobboard-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func encodeQuestions(t *testing.T, questions ...models.Question) []byte {
	t.Helper()
	raw, err := models.EncodeQuestions(questions)
	require.NoError(t, err)
	return raw
}

// quizAssessment has four questions whose correct answers are "a", "b", "c" and "d".
func quizAssessment(t *testing.T) models.Assessment {
	t.Helper()
	options := []string{"a", "b", "c", "d"}
	return models.Assessment{
		ID:          1,
		DeveloperID: 9,
		Name:        "Go Basics",
		Questions: encodeQuestions(t,
			models.Question{Question: "q1", Options: options, Answer: 0},
			models.Question{Question: "q2", Options: options, Answer: 1},
			models.Question{Question: "q3", Options: options, Answer: 2},
			models.Question{Question: "q4", Options: options, Answer: 3},
		),
		PassingScore: 75,
		TimeLimit:    30,
		IsActive:     true,
	}
}

func seedQuiz(t *testing.T, db *gorm.DB) models.Assessment {
	t.Helper()
	assessment := quizAssessment(t)
	assessment.ID = 0
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func seedUser(t *testing.T, db *gorm.DB, name, email, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

type testLinks struct{}

func (testLinks) VerificationURL(code string) string {
	return "https://jobs.test/certificate/verify/" + code
}

func (testLinks) CertificateDownloadURL(id uint) string {
	return fmt.Sprintf("https://api.test/api/v1/certificates/download/%d", id)
}
