package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

func (h *Handler) ListBattles(c *gin.Context) {
	battles, pagination, err := h.battles.List(queryInt(c, "page", 1), queryInt(c, "limit", 10), c.Query("sortBy"))
	if err != nil {
		serviceError(c, err, "failed to list battles")
		return
	}
	ok(c, http.StatusOK, gin.H{"battles": battles, "pagination": pagination})
}

func (h *Handler) GetBattle(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	battle, err := h.battles.Get(id)
	if err != nil {
		serviceError(c, err, "failed to load battle")
		return
	}
	ok(c, http.StatusOK, battle)
}

// CreateBattle resolves the matchup immediately: the winner and the
// probabilities are frozen at creation and never recomputed.
func (h *Handler) CreateBattle(c *gin.Context) {
	var req struct {
		Character1ID uint `json:"character1Id"`
		Character2ID uint `json:"character2Id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Character1ID == 0 || req.Character2ID == 0 {
		failFields(c, "validation failed", []service.FieldError{
			{Field: "character1Id", Message: "both character ids are required"},
		})
		return
	}
	battle, err := h.battles.Create(auth.GetUserID(c), req.Character1ID, req.Character2ID)
	if err != nil {
		serviceError(c, err, "failed to create battle")
		return
	}
	ok(c, http.StatusCreated, battle)
}

func (h *Handler) DeleteBattle(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.battles.Delete(id, auth.GetUserID(c)); err != nil {
		serviceError(c, err, "failed to delete battle")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "battle deleted"})
}

func (h *Handler) VoteBattle(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		VotedCharacterID uint `json:"votedCharacterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.VotedCharacterID == 0 {
		fail(c, http.StatusBadRequest, "votedCharacterId is required")
		return
	}
	tally, err := h.battles.Vote(id, auth.GetUserID(c), req.VotedCharacterID)
	if err != nil {
		serviceError(c, err, "failed to record vote")
		return
	}
	ok(c, http.StatusOK, tally)
}

// MyVote reports the caller's current vote on a battle, null when absent.
func (h *Handler) MyVote(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	vote, err := h.battles.MyVote(id, auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to load vote")
		return
	}
	ok(c, http.StatusOK, gin.H{"vote": vote})
}
