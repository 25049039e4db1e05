// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/pkg/bcrypt"
	"github.com/sefazor/designstudio-backend/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: database.NewGormLogger(zap.NewNop(), gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// TestPassword satisfies the strong password rule.
const TestPassword = "Secret123"

// CreateUser inserts a user on plan with the given balance and returns it.
func CreateUser(t testing.TB, db *gorm.DB, email string, plan models.Plan, credits int) *models.User {
	t.Helper()
	hash, err := bcrypt.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Email:     email,
		Password:  hash,
		Name:      "Test User",
		Plan:      plan,
		AICredits: credits,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	// zero values are skipped by Create when the column has a default
	if err := db.Model(user).Update("ai_credits", credits).Error; err != nil {
		t.Fatalf("set credits: %v", err)
	}
	return user
}

// Reload reads the current row for email.
func Reload(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}
