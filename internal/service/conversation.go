package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

// ConversationService guarantees one conversation per unordered user pair and
// keeps the durable message log plus unread bookkeeping.
type ConversationService struct {
	db *gorm.DB
}

func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// ConversationDTO is a conversation with its unread count for the viewer.
type ConversationDTO struct {
	models.Conversation
	UnreadCount int64 `json:"unreadCount"`
}

func conversationPreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Participants").Preload("Character").Preload("LastMessage").Preload("LastMessage.Sender")
}

func (s *ConversationService) isParticipant(conversationID, userID uint) (bool, error) {
	var count int64
	err := s.db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *ConversationService) unreadCount(conversationID, userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, userID, false).
		Count(&count).Error
	return count, err
}

// ListForUser returns the viewer's conversations, most recently active
// first, each with its unread count.
func (s *ConversationService) ListForUser(userID uint) ([]ConversationDTO, error) {
	var ids []uint
	err := s.db.Table("conversation_participants").
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []ConversationDTO{}, nil
	}

	var convs []models.Conversation
	if err := conversationPreloads(s.db).Where("id IN ?", ids).Order("updated_at DESC").Find(&convs).Error; err != nil {
		return nil, err
	}

	out := make([]ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		unread, err := s.unreadCount(conv.ID, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, ConversationDTO{Conversation: conv, UnreadCount: unread})
	}
	return out, nil
}

// LookupOrCreate returns the existing two-party conversation for the pair, or
// creates one with exactly those two participants. The second return reports
// whether a new conversation was created.
func (s *ConversationService) LookupOrCreate(userID, participantID uint, characterID *uint) (*ConversationDTO, bool, error) {
	if participantID == 0 {
		return nil, false, Invalid("participantId", "participant id is required")
	}
	if participantID == userID {
		return nil, false, Invalid("participantId", "cannot start a conversation with yourself")
	}
	var other models.User
	if err := s.db.Where("id = ? AND is_active = ?", participantID, true).First(&other).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}

	// A match is a conversation whose participant set is exactly {A, B}.
	var ids []uint
	err := s.db.Raw(`
		SELECT conversation_id FROM conversation_participants
		GROUP BY conversation_id
		HAVING SUM(CASE WHEN user_id IN (?, ?) THEN 1 ELSE 0 END) = 2 AND COUNT(*) = 2`,
		userID, participantID).Scan(&ids).Error
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		dto, err := s.Get(ids[0], userID)
		if err != nil {
			return nil, false, err
		}
		return dto, false, nil
	}

	conv := models.Conversation{CharacterID: characterID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Association("Participants").
			Append(&models.User{ID: userID}, &models.User{ID: participantID})
	})
	if err != nil {
		return nil, false, err
	}

	dto, err := s.Get(conv.ID, userID)
	if err != nil {
		return nil, false, err
	}
	return dto, true, nil
}

// Get returns a conversation with unread count; participants only.
func (s *ConversationService) Get(id, userID uint) (*ConversationDTO, error) {
	var conv models.Conversation
	if err := conversationPreloads(s.db).First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.isParticipant(id, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	unread, err := s.unreadCount(id, userID)
	if err != nil {
		return nil, err
	}
	return &ConversationDTO{Conversation: conv, UnreadCount: unread}, nil
}

// Delete hard-deletes a conversation with its messages and membership rows.
// Any participant may delete; private chat keeps no audit trail.
func (s *ConversationService) Delete(id, userID uint) error {
	var conv models.Conversation
	if err := s.db.First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	ok, err := s.isParticipant(id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Clear the denormalized pointer before the messages go away.
		if err := tx.Model(&conv).Update("last_message_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Conversation{}, id).Error
	})
}

// Messages lists a conversation's messages oldest-first; participants only.
// beforeID pages backwards through history.
func (s *ConversationService) Messages(conversationID, userID uint, limit int, beforeID uint) ([]models.Message, error) {
	ok, err := s.isParticipant(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := s.db.Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []models.Message
	if err := q.Preload("Sender").Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SendMessage persists a message and moves the conversation's denormalized
// last-message pointer in the same transaction. The websocket relay only ever
// rebroadcasts messages that went through here.
func (s *ConversationService) SendMessage(conversationID, senderID uint, content string) (*models.Message, error) {
	if content == "" {
		return nil, Invalid("content", "content is required")
	}
	ok, err := s.isParticipant(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	msg := models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversationID).
			Update("last_message_id", msg.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("Sender").First(&msg, msg.ID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead flips every message not sent by the viewer to read, in one bulk
// update. Returns the number of messages affected.
func (s *ConversationService) MarkRead(conversationID, userID uint) (int64, error) {
	ok, err := s.isParticipant(conversationID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrForbidden
	}
	res := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// UnreadTotal is the viewer's global unread sum for the notification badge.
func (s *ConversationService) UnreadTotal(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.is_read = ?", userID, userID, false).
		Count(&count).Error
	return count, err
}
