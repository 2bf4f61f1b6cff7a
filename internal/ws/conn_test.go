package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/db"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

func testServeSetup(t *testing.T) (*gin.Engine, *gorm.DB, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Config{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15}
	engine := gin.New()
	engine.GET("/ws", Serve(NewHub(), gdb, cfg))
	return engine, gdb, cfg
}

func wsStatus(t *testing.T, engine *gin.Engine, target string) int {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w.Code
}

func TestServeAuthRejections(t *testing.T) {
	engine, gdb, cfg := testServeSetup(t)

	inactive := models.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "x", Role: "user", IsVerified: true}
	if err := gdb.Create(&inactive).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := gdb.Model(&inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	if code := wsStatus(t, engine, "/ws"); code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", code)
	}
	if code := wsStatus(t, engine, "/ws?token=garbage"); code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", code)
	}

	orphan, err := auth.GenerateAccessToken(9999, "user", cfg.JWTSecret, 15)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if code := wsStatus(t, engine, "/ws?token="+orphan); code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", code)
	}

	// A valid token for a deactivated account is authenticated but not
	// allowed: forbidden, not unauthorized.
	token, err := auth.GenerateAccessToken(inactive.ID, "user", cfg.JWTSecret, 15)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if code := wsStatus(t, engine, "/ws?token="+token); code != http.StatusForbidden {
		t.Fatalf("deactivated account: expected 403, got %d", code)
	}
}
