package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

// ok writes the success envelope shared by every endpoint.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func failFields(c *gin.Context, message string, fields []service.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message, "errors": fields})
}

// serviceError maps the service layer's sentinel errors onto HTTP statuses.
// Anything unrecognized is logged and reported as a 500 with the fallback
// message so internals never leak to clients.
func serviceError(c *gin.Context, err error, fallback string) {
	var ve *service.ValidationError
	var ce *service.ConflictError
	switch {
	case errors.As(err, &ve):
		failFields(c, "validation failed", ve.Fields)
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": ce.Message,
			"errors":  []service.FieldError{{Field: ce.Field, Message: ce.Message}},
		})
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrNotVerified):
		fail(c, http.StatusUnauthorized, "email not verified")
	case errors.Is(err, service.ErrDeactivated):
		fail(c, http.StatusForbidden, "account deactivated")
	case errors.Is(err, service.ErrConflict):
		fail(c, http.StatusConflict, "conflict")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		fail(c, http.StatusInternalServerError, fallback)
	}
}

// idParam parses a positive integer path parameter and writes the 400
// itself when the value is unusable.
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := parseUint(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
