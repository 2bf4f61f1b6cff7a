package service

import (
	"errors"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/metrics"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

// tierRanks is the total order over power tiers. Unmapped tiers rank 0.
var tierRanks = map[string]int{
	"Unknown":        0,
	"Street Level":   1,
	"Building Level": 2,
	"City Level":     3,
	"Country Level":  4,
	"Continental":    5,
	"Planet Level":   6,
	"Star Level":     7,
	"Galaxy Level":   8,
	"Universal":      9,
	"Multiversal":    10,
	"Hyperversal":    11,
	"Omnipotent":     12,
}

// TierRank maps a tier string to its integer power rank.
func TierRank(tier string) int {
	return tierRanks[tier]
}

type outcome struct {
	winnerID uint
	prob1    float64
	prob2    float64
}

// resolveOutcome computes the frozen simulation result for a pair of
// characters given a uniform roll in [0,100). The higher tier gets a 90/10
// split, equal tiers split 50/50; character1 wins iff roll <= prob1.
func resolveOutcome(c1, c2 *models.Character, roll float64) outcome {
	r1, r2 := TierRank(c1.Tier), TierRank(c2.Tier)

	var prob1, prob2 float64
	switch {
	case r1 > r2:
		prob1, prob2 = 90, 10
	case r2 > r1:
		prob1, prob2 = 10, 90
	default:
		prob1, prob2 = 50, 50
	}

	winnerID := c2.ID
	if roll <= prob1 {
		winnerID = c1.ID
	}
	return outcome{winnerID: winnerID, prob1: prob1, prob2: prob2}
}

// BattleService resolves battle outcomes once at creation time and runs the
// one-live-vote-per-user tally engine.
type BattleService struct {
	db   *gorm.DB
	roll func() float64
}

func NewBattleService(db *gorm.DB) *BattleService {
	return &BattleService{db: db, roll: func() float64 { return rand.Float64() * 100 }}
}

func battlePreloads(q *gorm.DB) *gorm.DB {
	return q.Preload("Character1").Preload("Character2").Preload("Creator")
}

// Create simulates and persists a battle between two distinct active
// characters. The outcome triple is computed exactly once and never changes.
func (s *BattleService) Create(creatorID, char1ID, char2ID uint) (*models.Battle, error) {
	if char1ID == 0 || char2ID == 0 {
		return nil, Invalid("characters", "both character ids are required")
	}
	if char1ID == char2ID {
		return nil, Invalid("characters", "a character cannot battle itself")
	}

	var c1, c2 models.Character
	if err := s.db.Where("id = ? AND is_active = ?", char1ID, true).First(&c1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Where("id = ? AND is_active = ?", char2ID, true).First(&c2).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := resolveOutcome(&c1, &c2, s.roll())
	battle := models.Battle{
		Character1ID:    char1ID,
		Character2ID:    char2ID,
		CreatorID:       creatorID,
		WinnerID:        out.winnerID,
		WinProbability1: out.prob1,
		WinProbability2: out.prob2,
		IsActive:        true,
	}
	if err := s.db.Create(&battle).Error; err != nil {
		return nil, err
	}
	metrics.BattlesSimulated.Inc()

	if err := battlePreloads(s.db).First(&battle, battle.ID).Error; err != nil {
		return nil, err
	}
	return &battle, nil
}

// List returns active battles, newest first or by popularity.
func (s *BattleService) List(page, limit int, sortBy string) ([]models.Battle, Pagination, error) {
	page, limit = clampPage(page, limit, 12, 100)

	q := s.db.Model(&models.Battle{}).Where("is_active = ?", true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	if sortBy == "popular" {
		q = q.Order("views DESC").Order("total_votes DESC")
	} else {
		q = q.Order("created_at DESC")
	}

	var battles []models.Battle
	if err := battlePreloads(q).Limit(limit).Offset((page - 1) * limit).Find(&battles).Error; err != nil {
		return nil, Pagination{}, err
	}
	return battles, paginate(page, limit, total), nil
}

// Get returns an active battle and bumps its view counter.
func (s *BattleService) Get(id uint) (*models.Battle, error) {
	var battle models.Battle
	err := battlePreloads(s.db).Where("id = ? AND is_active = ?", id, true).First(&battle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&models.Battle{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return nil, err
	}
	battle.Views++
	return &battle, nil
}

// Delete soft-deletes a battle; creator only.
func (s *BattleService) Delete(id, userID uint) error {
	var battle models.Battle
	err := s.db.Where("id = ? AND is_active = ?", id, true).First(&battle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if battle.CreatorID != userID {
		return ErrForbidden
	}
	return s.db.Model(&battle).Update("is_active", false).Error
}

type VoteTally struct {
	VotesChar1 int `json:"votesChar1"`
	VotesChar2 int `json:"votesChar2"`
	TotalVotes int `json:"totalVotes"`
}

// Vote applies one transition of the per-(battle,user) vote state machine:
// first vote creates the row and bumps both counters, a repeat of the same
// choice is a no-op, and a switch moves one vote between characters without
// touching the total. votesChar1 + votesChar2 == totalVotes holds throughout.
func (s *BattleService) Vote(battleID, userID, votedCharacterID uint) (*VoteTally, error) {
	var tally VoteTally
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var battle models.Battle
		// Row lock on the battle serializes concurrent votes, so a repeated
		// switch by the same user cannot decrement a counter twice.
		if err := lockForUpdate(tx).Where("id = ? AND is_active = ?", battleID, true).First(&battle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// The voted character must be one of the two combatants. Skipping
		// this check would let a stray id corrupt the tally invariant.
		if votedCharacterID != battle.Character1ID && votedCharacterID != battle.Character2ID {
			return Invalid("votedCharacterId", "character is not part of this battle")
		}

		counterFor := func(charID uint) string {
			if charID == battle.Character1ID {
				return "votes_char1"
			}
			return "votes_char2"
		}

		var vote models.BattleVote
		err := tx.Where("battle_id = ? AND user_id = ?", battleID, userID).First(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.BattleVote{BattleID: battleID, UserID: userID, VotedCharacterID: votedCharacterID}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Battle{}).Where("id = ?", battleID).
				UpdateColumn(counterFor(votedCharacterID), gorm.Expr(counterFor(votedCharacterID)+" + 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Battle{}).Where("id = ?", battleID).
				UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error; err != nil {
				return err
			}
			metrics.VotesTotal.Inc()
		case err != nil:
			return err
		case vote.VotedCharacterID == votedCharacterID:
			// Same choice resubmitted: idempotent no-op.
		default:
			old := vote.VotedCharacterID
			if err := tx.Model(&models.Battle{}).Where("id = ?", battleID).
				UpdateColumn(counterFor(old), gorm.Expr(counterFor(old)+" - 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Battle{}).Where("id = ?", battleID).
				UpdateColumn(counterFor(votedCharacterID), gorm.Expr(counterFor(votedCharacterID)+" + 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&vote).Update("voted_character_id", votedCharacterID).Error; err != nil {
				return err
			}
			metrics.VotesTotal.Inc()
		}

		if err := tx.First(&battle, battleID).Error; err != nil {
			return err
		}
		tally = VoteTally{VotesChar1: battle.VotesChar1, VotesChar2: battle.VotesChar2, TotalVotes: battle.TotalVotes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tally, nil
}

// MyVote returns the caller's single current vote on a battle, or nil.
func (s *BattleService) MyVote(battleID, userID uint) (*models.BattleVote, error) {
	var battle models.Battle
	if err := s.db.Where("id = ? AND is_active = ?", battleID, true).First(&battle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var vote models.BattleVote
	err := s.db.Where("battle_id = ? AND user_id = ?", battleID, userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}
