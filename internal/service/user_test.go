package service

import (
	"errors"
	"testing"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
	"gorm.io/gorm"
)

// recordingMailer captures outgoing verification emails for assertions.
type recordingMailer struct {
	sent []struct{ to, token string }
}

func (m *recordingMailer) SendVerificationEmail(to, token string) error {
	m.sent = append(m.sent, struct{ to, token string }{to, token})
	return nil
}

func newUserService(gdb *gorm.DB) (*UserService, *recordingMailer) {
	mailer := &recordingMailer{}
	cfg := config.Config{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15}
	return NewUserService(gdb, cfg, mailer), mailer
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	gdb := testDB(t)
	svc, mailer := newUserService(gdb)

	user, err := svc.Register("newcomer", "newcomer@example.com", "passw0rd")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.IsVerified {
		t.Fatal("account verified at registration")
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "newcomer@example.com" {
		t.Fatalf("verification email not sent: %+v", mailer.sent)
	}

	// Login is rejected until the token is consumed.
	if _, err := svc.Login("newcomer@example.com", "passw0rd"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("unverified login: expected ErrNotVerified, got %v", err)
	}

	result, err := svc.VerifyEmail(mailer.sent[0].token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Token == "" || !result.User.IsVerified {
		t.Fatal("verification did not log the user in")
	}

	// The token is single-use.
	if _, err := svc.VerifyEmail(mailer.sent[0].token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replayed token: expected ErrNotFound, got %v", err)
	}

	login, err := svc.Login("newcomer@example.com", "passw0rd")
	if err != nil {
		t.Fatalf("login after verify: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	gdb := testDB(t)
	svc, _ := newUserService(gdb)

	if _, err := svc.Register("taken", "taken@example.com", "passw0rd"); err != nil {
		t.Fatalf("register: %v", err)
	}

	var ce *ConflictError
	_, err := svc.Register("taken", "fresh@example.com", "passw0rd")
	if !errors.As(err, &ce) || ce.Field != "username" {
		t.Fatalf("duplicate username: expected username conflict, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("conflict does not match ErrConflict: %v", err)
	}
	_, err = svc.Register("fresh", "taken@example.com", "passw0rd")
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("duplicate email: expected email conflict, got %v", err)
	}

	// A duplicate that dodges the pre-check dies on the unique index; the
	// translated driver error is what Register maps to a conflict.
	raw := models.User{Username: "taken", Email: "third@example.com", PasswordHash: "x", Role: "user", IsActive: true}
	if err := gdb.Create(&raw).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("unique index violation not translated: %v", err)
	}
}

func TestLoginFailureModes(t *testing.T) {
	gdb := testDB(t)
	svc, mailer := newUserService(gdb)

	if _, err := svc.Register("member", "member@example.com", "passw0rd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.VerifyEmail(mailer.sent[0].token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := svc.Login("nobody@example.com", "passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("member@example.com", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	if err := gdb.Model(&models.User{}).Where("email = ?", "member@example.com").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Login("member@example.com", "passw0rd"); !errors.Is(err, ErrDeactivated) {
		t.Fatalf("deactivated login: expected ErrDeactivated, got %v", err)
	}
}

func TestResendVerificationNeverProbesAccounts(t *testing.T) {
	gdb := testDB(t)
	svc, mailer := newUserService(gdb)

	if _, err := svc.Register("pending", "pending@example.com", "passw0rd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	firstToken := mailer.sent[0].token

	if err := svc.ResendVerification("pending@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected a second email, got %d", len(mailer.sent))
	}
	if mailer.sent[1].token == firstToken {
		t.Fatal("resend reused the old token")
	}
	// The old token is dead, the new one works.
	if _, err := svc.VerifyEmail(firstToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old token: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.VerifyEmail(mailer.sent[1].token); err != nil {
		t.Fatalf("new token: %v", err)
	}

	// Unknown addresses get the same silent success.
	if err := svc.ResendVerification("ghost@example.com"); err != nil {
		t.Fatalf("unknown address: %v", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatal("resend for unknown address sent mail")
	}
}

func TestUpdateProfile(t *testing.T) {
	gdb := testDB(t)
	svc, _ := newUserService(gdb)
	alice := mustCreateUser(t, gdb, "alice")
	mustCreateUser(t, gdb, "bob")

	newName := "alice_prime"
	avatar := "https://cdn.example.com/avatars/a.png"
	user, err := svc.UpdateProfile(alice.ID, ProfileUpdate{Username: &newName, Avatar: &avatar})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.Username != "alice_prime" {
		t.Fatalf("username = %q", user.Username)
	}
	if user.Avatar != "/avatars/a.png" {
		t.Fatalf("avatar not normalized: %q", user.Avatar)
	}

	taken := "bob"
	if _, err := svc.UpdateProfile(alice.ID, ProfileUpdate{Username: &taken}); !errors.Is(err, ErrConflict) {
		t.Fatalf("taken username: expected ErrConflict, got %v", err)
	}

	takenMail := "bob@example.com"
	if _, err := svc.UpdateProfile(alice.ID, ProfileUpdate{Email: &takenMail}); !errors.Is(err, ErrConflict) {
		t.Fatalf("taken email: expected ErrConflict, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	gdb := testDB(t)
	svc, _ := newUserService(gdb)
	mustCreateUser(t, gdb, "dragonfan")
	mustCreateUser(t, gdb, "dragonlord")
	mustCreateUser(t, gdb, "catperson")

	users, pg, err := svc.Search("dragon", 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 2 || pg.Total != 2 {
		t.Fatalf("matched %d users, want 2", len(users))
	}

	// Deactivated accounts disappear from search.
	if err := gdb.Model(&models.User{}).Where("username = ?", "dragonfan").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	users, _, err = svc.Search("dragon", 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].Username != "dragonlord" {
		t.Fatalf("matched %d users after deactivation", len(users))
	}
}
