package server

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateRegistration(username, email, password string) []service.FieldError {
	var fields []service.FieldError
	if len(username) < 3 || len(username) > 30 || !usernamePattern.MatchString(username) {
		fields = append(fields, service.FieldError{
			Field:   "username",
			Message: "username must be 3-30 characters, letters, digits and underscores only",
		})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, service.FieldError{Field: "email", Message: "invalid email address"})
	}
	if len(password) < 6 || !strings.ContainsAny(password, "0123456789") {
		fields = append(fields, service.FieldError{
			Field:   "password",
			Message: "password must be at least 6 characters and contain a digit",
		})
	}
	return fields
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fields := validateRegistration(req.Username, req.Email, req.Password); len(fields) > 0 {
		failFields(c, "validation failed", fields)
		return
	}
	user, err := h.users.Register(req.Username, req.Email, req.Password)
	if err != nil {
		serviceError(c, err, "failed to register")
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"user":    user,
		"message": "registration successful, check your email to verify the account",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "email and password are required")
		return
	}
	result, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		serviceError(c, err, "login failed")
		return
	}
	ok(c, http.StatusOK, result)
}

// VerifyEmail consumes a single-use verification token and logs the user in.
func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		fail(c, http.StatusBadRequest, "missing token")
		return
	}
	result, err := h.users.VerifyEmail(token)
	if err != nil {
		serviceError(c, err, "verification failed")
		return
	}
	ok(c, http.StatusOK, result)
}

// ResendVerification re-sends the verification mail. The response is the
// same whether or not the address belongs to an account.
func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		fail(c, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.users.ResendVerification(strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		serviceError(c, err, "failed to resend verification")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "if the account exists, a verification email has been sent"})
}

func (h *Handler) Me(c *gin.Context) {
	user, found := auth.GetUser(c)
	if !found {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	ok(c, http.StatusOK, user)
}
