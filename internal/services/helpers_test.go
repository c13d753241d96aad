package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// setupTestDB points the package-global handle at a fresh in-memory database.
// cache=shared keeps the database alive across pooled connections.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db.Migrate(conn)
	db.DB = conn
}

func createUser(t *testing.T, username, role string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@campus.edu",
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, db.DB.Create(&user).Error)
	return &user
}

func createDoubt(t *testing.T, asker *models.User, title string) *models.Doubt {
	t.Helper()

	doubt, err := CreateDoubt(DoubtInput{
		Title:    title,
		Content:  "how does this work?",
		Subject:  "DSA",
		Semester: 3,
	}, asker)
	require.NoError(t, err)
	return doubt
}
