package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

func (h *Handler) ListComments(c *gin.Context) {
	characterID, valid := idParam(c, "characterId")
	if !valid {
		return
	}
	comments, pagination, err := h.comments.ListForCharacter(characterID, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		serviceError(c, err, "failed to list comments")
		return
	}
	ok(c, http.StatusOK, gin.H{"comments": comments, "pagination": pagination})
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req struct {
		CharacterID uint   `json:"characterId"`
		ParentID    *uint  `json:"parentId"`
		Content     string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" || len(req.Content) > 2000 {
		failFields(c, "validation failed", []service.FieldError{{Field: "content", Message: "content must be 1-2000 characters"}})
		return
	}
	if req.CharacterID == 0 {
		failFields(c, "validation failed", []service.FieldError{{Field: "characterId", Message: "characterId is required"}})
		return
	}
	comment, err := h.comments.Create(auth.GetUserID(c), req.CharacterID, req.ParentID, req.Content)
	if err != nil {
		serviceError(c, err, "failed to create comment")
		return
	}
	ok(c, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(c *gin.Context) {
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
	if req.Content == "" || len(req.Content) > 2000 {
		failFields(c, "validation failed", []service.FieldError{{Field: "content", Message: "content must be 1-2000 characters"}})
		return
	}
	comment, err := h.comments.Update(id, auth.GetUserID(c), req.Content)
	if err != nil {
		serviceError(c, err, "failed to update comment")
		return
	}
	ok(c, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.comments.Delete(id, auth.GetUserID(c)); err != nil {
		serviceError(c, err, "failed to delete comment")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "comment deleted"})
}

func (h *Handler) LikeComment(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	likes, err := h.comments.Like(id)
	if err != nil {
		serviceError(c, err, "failed to like comment")
		return
	}
	ok(c, http.StatusOK, gin.H{"likes": likes})
}
