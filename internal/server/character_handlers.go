package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
)

func (h *Handler) ListCharacters(c *gin.Context) {
	filter := service.CharacterFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 12),
		Search: strings.TrimSpace(c.Query("search")),
		Tier:   strings.TrimSpace(c.Query("tier")),
		SortBy: c.Query("sortBy"),
	}
	if cid := c.Query("creatorId"); cid != "" {
		if v, err := parseUint(cid); err == nil {
			filter.CreatorID = v
		}
	}
	characters, pagination, err := h.characters.List(filter)
	if err != nil {
		serviceError(c, err, "failed to list characters")
		return
	}
	ok(c, http.StatusOK, gin.H{"characters": characters, "pagination": pagination})
}

func (h *Handler) GetCharacter(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	character, err := h.characters.Get(id)
	if err != nil {
		serviceError(c, err, "failed to load character")
		return
	}
	ok(c, http.StatusOK, character)
}

func (h *Handler) CreateCharacter(c *gin.Context) {
	var in service.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		failFields(c, "validation failed", []service.FieldError{{Field: "name", Message: "name is required"}})
		return
	}
	character, err := h.characters.Create(auth.GetUserID(c), in)
	if err != nil {
		serviceError(c, err, "failed to create character")
		return
	}
	ok(c, http.StatusCreated, character)
}

func (h *Handler) UpdateCharacter(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var in service.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	character, err := h.characters.Update(id, auth.GetUserID(c), in)
	if err != nil {
		serviceError(c, err, "failed to update character")
		return
	}
	ok(c, http.StatusOK, character)
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.characters.Delete(id, auth.GetUserID(c)); err != nil {
		serviceError(c, err, "failed to delete character")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "character deleted"})
}

func (h *Handler) CharactersByCreator(c *gin.Context) {
	creatorID, valid := idParam(c, "creatorId")
	if !valid {
		return
	}
	characters, err := h.characters.ByCreator(creatorID)
	if err != nil {
		serviceError(c, err, "failed to list characters")
		return
	}
	ok(c, http.StatusOK, characters)
}

func (h *Handler) ToggleCharacterLike(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	result, err := h.characters.ToggleLike(id, auth.GetUserID(c))
	if err != nil {
		serviceError(c, err, "failed to toggle like")
		return
	}
	ok(c, http.StatusOK, result)
}
