package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
)

func (h *Handler) ListConversations(c *gin.Context) {
	conversations, err := h.conversations.ListForUser(auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to list conversations")
		return
	}
	ok(c, http.StatusOK, conversations)
}

// OpenConversation returns the existing direct conversation with the given
// participant or creates one. 200 for an existing pair, 201 for a new one.
func (h *Handler) OpenConversation(c *gin.Context) {
	var req struct {
		ParticipantID uint  `json:"participantId"`
		CharacterID   *uint `json:"characterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ParticipantID == 0 {
		fail(c, http.StatusBadRequest, "participantId is required")
		return
	}
	userID := auth.GetUserID(c)
	if req.ParticipantID == userID {
		fail(c, http.StatusBadRequest, "cannot start a conversation with yourself")
		return
	}
	conversation, created, err := h.conversations.LookupOrCreate(userID, req.ParticipantID, req.CharacterID)
	if err != nil {
		serviceError(c, err, "failed to open conversation")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, conversation)
}

func (h *Handler) GetConversation(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	conversation, err := h.conversations.Get(id, auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to load conversation")
		return
	}
	ok(c, http.StatusOK, conversation)
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.conversations.Delete(id, auth.GetUserID(c)); err != nil {
		serviceError(c, err, "failed to delete conversation")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "conversation deleted"})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var beforeID uint
	if bid := c.Query("beforeId"); bid != "" {
		if v, err := parseUint(bid); err == nil {
			beforeID = v
		}
	}
	messages, err := h.conversations.Messages(id, auth.GetUserID(c), queryInt(c, "limit", 50), beforeID)
	if err != nil {
		serviceError(c, err, "failed to list messages")
		return
	}
	ok(c, http.StatusOK, messages)
}

func (h *Handler) SendMessage(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" || len(req.Content) > 5000 {
		fail(c, http.StatusBadRequest, "content must be 1-5000 characters")
		return
	}
	message, err := h.conversations.SendMessage(id, auth.GetUserID(c), req.Content)
	if err != nil {
		serviceError(c, err, "failed to send message")
		return
	}
	ok(c, http.StatusCreated, message)
}

func (h *Handler) MarkConversationRead(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	updated, err := h.conversations.MarkRead(id, auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to mark conversation read")
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	total, err := h.conversations.UnreadTotal(auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to count unread messages")
		return
	}
	ok(c, http.StatusOK, gin.H{"unreadCount": total})
}
