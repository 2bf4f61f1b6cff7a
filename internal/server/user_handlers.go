package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

func (h *Handler) GetProfile(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	user, err := h.users.Profile(id)
	if err != nil {
		serviceError(c, err, "failed to load profile")
		return
	}
	characters, err := h.characters.ByCreator(id)
	if err != nil {
		serviceError(c, err, "failed to load profile")
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user, "characters": characters})
}

func (h *Handler) SearchUsers(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	if search == "" {
		fail(c, http.StatusBadRequest, "search is required")
		return
	}
	users, pagination, err := h.users.Search(search, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		serviceError(c, err, "failed to search users")
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users, "pagination": pagination})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var upd service.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if len(trimmed) < 3 || len(trimmed) > 30 || !usernamePattern.MatchString(trimmed) {
			failFields(c, "validation failed", []service.FieldError{
				{Field: "username", Message: "username must be 3-30 characters, letters, digits and underscores only"},
			})
			return
		}
		upd.Username = &trimmed
	}
	if upd.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(lowered); err != nil {
			failFields(c, "validation failed", []service.FieldError{{Field: "email", Message: "invalid email address"}})
			return
		}
		upd.Email = &lowered
	}
	user, err := h.users.UpdateProfile(auth.GetUserID(c), upd)
	if err != nil {
		serviceError(c, err, "failed to update profile")
		return
	}
	ok(c, http.StatusOK, user)
}
