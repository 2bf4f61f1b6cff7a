package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

// CommentService assembles the two-level comment tree on character pages.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// ListForCharacter pages over top-level comments newest-first, each carrying
// its active replies oldest-first with authors embedded. Replies do not count
// toward pagination.
func (s *CommentService) ListForCharacter(characterID uint, page, limit int) ([]models.Comment, Pagination, error) {
	page, limit = clampPage(page, limit, 20, 100)

	q := s.db.Model(&models.Comment{}).
		Where("character_id = ? AND parent_id IS NULL AND is_active = ?", characterID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var comments []models.Comment
	err := q.Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at ASC").Preload("Author")
		}).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&comments).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return comments, paginate(page, limit, total), nil
}

// Create posts a comment, or a reply when parentID is set. The target
// character must exist and be active; a reply's parent must exist.
func (s *CommentService) Create(userID, characterID uint, parentID *uint, content string) (*models.Comment, error) {
	if content == "" {
		return nil, Invalid("content", "content is required")
	}
	var character models.Character
	if err := s.db.Where("id = ? AND is_active = ?", characterID, true).First(&character).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if parentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	comment := models.Comment{
		CharacterID: characterID,
		UserID:      userID,
		ParentID:    parentID,
		Content:     content,
		IsActive:    true,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update edits a comment's content; author only.
func (s *CommentService) Update(id, userID uint, content string) (*models.Comment, error) {
	if content == "" {
		return nil, Invalid("content", "content is required")
	}
	var comment models.Comment
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}
	if err := s.db.Model(&comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete soft-deletes a comment; author only. Replies stay in storage but
// become unreachable because tree assembly only walks active parents.
func (s *CommentService) Delete(id, userID uint) error {
	var comment models.Comment
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.db.Model(&comment).Update("is_active", false).Error
}

// Like bumps a comment's like counter. Unlike character likes there is no
// per-user dedup; every call counts.
func (s *CommentService) Like(id uint) (int, error) {
	var comment models.Comment
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if err := s.db.Model(&comment).UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
		return 0, err
	}
	if err := s.db.First(&comment, id).Error; err != nil {
		return 0, err
	}
	return comment.Likes, nil
}
