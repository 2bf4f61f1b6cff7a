package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/ws"
)

// Handler aggregates the HTTP handlers and their service dependencies.
type Handler struct {
	users         *service.UserService
	characters    *service.CharacterService
	comments      *service.CommentService
	battles       *service.BattleService
	conversations *service.ConversationService
	hub           *ws.Hub
}

func NewHandler(
	users *service.UserService,
	characters *service.CharacterService,
	comments *service.CommentService,
	battles *service.BattleService,
	conversations *service.ConversationService,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		users:         users,
		characters:    characters,
		comments:      comments,
		battles:       battles,
		conversations: conversations,
		hub:           hub,
	}
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(v), nil
}

func queryInt(c *gin.Context, name string, def int) int {
	s := c.Query(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
