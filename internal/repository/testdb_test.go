package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/database"
	"github.com/noah-isme/jobboard-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedAssessment(t *testing.T, db *gorm.DB, developerID uint) models.Assessment {
	t.Helper()
	questions, err := models.EncodeQuestions([]models.Question{
		{Question: "2 + 2", Options: []string{"3", "4"}, Answer: 1},
	})
	require.NoError(t, err)

	assessment := models.Assessment{
		DeveloperID:  developerID,
		Name:         "Arithmetic",
		Questions:    questions,
		PassingScore: models.DefaultPassingScore,
		TimeLimit:    models.DefaultTimeLimit,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	return user
}
