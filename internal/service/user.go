package service

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/mail"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

// UserService covers registration, login, email verification and profiles.
type UserService struct {
	db     *gorm.DB
	cfg    config.Config
	mailer mail.Mailer
}

func NewUserService(db *gorm.DB, cfg config.Config, mailer mail.Mailer) *UserService {
	return &UserService{db: db, cfg: cfg, mailer: mailer}
}

// Register creates an unverified account and dispatches the verification
// email. A failed dispatch is logged but does not roll back the account.
func (s *UserService) Register(username, email, password string) (*models.User, error) {
	var existing models.User
	err := s.db.Where("email = ? OR username = ?", email, username).First(&existing).Error
	if err == nil {
		if existing.Email == email {
			return nil, Conflict("email", "email already registered")
		}
		return nil, Conflict("username", "username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateVerificationToken()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		Role:              "user",
		IsVerified:        false,
		VerificationToken: token,
		IsActive:          true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// A concurrent registration can slip past the pre-check and land on
		// the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("account", "username or email already registered")
		}
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(user.Email, token); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("send verification email")
	}
	return &user, nil
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login checks credentials and issues an access token. Unverified accounts
// are rejected until the email token is consumed.
func (s *UserService) Login(email, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrDeactivated
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	token, err := auth.GenerateAccessToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: &user}, nil
}

// VerifyEmail consumes a single-use verification token and logs the account
// in. The token is cleared so it cannot be replayed.
func (s *UserService) VerifyEmail(token string) (*LoginResult, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var user models.User
	if err := s.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	updates := map[string]interface{}{"is_verified": true, "verification_token": ""}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.VerificationToken = ""

	jwtToken, err := auth.GenerateAccessToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: jwtToken, User: &user}, nil
}

// ResendVerification re-issues the token for an unverified account. It never
// reports whether the email exists, so it cannot be used to probe accounts.
func (s *UserService) ResendVerification(email string) error {
	var user models.User
	err := s.db.Where("email = ? AND is_verified = ? AND is_active = ?", email, false, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	token, err := auth.GenerateVerificationToken()
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("verification_token", token).Error; err != nil {
		return err
	}
	if err := s.mailer.SendVerificationEmail(user.Email, token); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("resend verification email")
	}
	return nil
}

// Profile returns an active account by id.
func (s *UserService) Profile(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Search lists active users filtered by username or email substring.
func (s *UserService) Search(search string, page, limit int) ([]models.User, Pagination, error) {
	page, limit = clampPage(page, limit, 10, 50)

	q := s.db.Model(&models.User{}).Where("is_active = ?", true)
	if search != "" {
		pat := "%" + search + "%"
		q = q.Where("username LIKE ? OR email LIKE ?", pat, pat)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		return nil, Pagination{}, err
	}
	return users, paginate(page, limit, total), nil
}

type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

// UpdateProfile lets a user change their own username, email or avatar.
func (s *UserService) UpdateProfile(id uint, upd ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Username != nil && *upd.Username != "" {
		updates["username"] = *upd.Username
	}
	if upd.Email != nil && *upd.Email != "" {
		updates["email"] = *upd.Email
	}
	if upd.Avatar != nil {
		updates["avatar"] = NormalizeImageURL(*upd.Avatar)
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if uname, ok := updates["username"]; ok {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ? AND id <> ?", uname, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, Conflict("username", "username already taken")
		}
	}
	if mailAddr, ok := updates["email"]; ok {
		var count int64
		if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", mailAddr, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, Conflict("email", "email already registered")
		}
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("account", "username or email already registered")
		}
		return nil, err
	}
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
