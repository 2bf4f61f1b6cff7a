package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/db"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func mustCreateUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         "user",
		IsVerified:   true,
		IsActive:     true,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &user
}

func mustCreateCharacter(t *testing.T, gdb *gorm.DB, creatorID uint, name, tier string) *models.Character {
	t.Helper()
	ch := models.Character{
		Name:           name,
		Description:    name + " description",
		Tier:           tier,
		Strength:       50,
		SpeedStat:      50,
		DurabilityStat: 50,
		Intelligence:   50,
		Energy:         50,
		Combat:         50,
		IsActive:       true,
		CreatorID:      creatorID,
	}
	if err := gdb.Create(&ch).Error; err != nil {
		t.Fatalf("create character %s: %v", name, err)
	}
	return &ch
}
