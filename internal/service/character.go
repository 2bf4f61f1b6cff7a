package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

// CharacterService covers character CRUD, the like toggle and view counting.
type CharacterService struct {
	db *gorm.DB
}

func NewCharacterService(db *gorm.DB) *CharacterService {
	return &CharacterService{db: db}
}

// CharacterDTO is the wire shape of a character: the stored fields plus the
// derived power level and the primary image shortcut.
type CharacterDTO struct {
	models.Character
	PowerLevel int    `json:"powerLevel"`
	Image      string `json:"image"`
}

func characterDTO(c models.Character) CharacterDTO {
	return CharacterDTO{Character: c, PowerLevel: c.PowerLevel(), Image: c.PrimaryImage()}
}

func characterDTOs(cs []models.Character) []CharacterDTO {
	out := make([]CharacterDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, characterDTO(c))
	}
	return out
}

type CharacterInput struct {
	Name           string                `json:"name"`
	Alias          string                `json:"alias"`
	Quote          string                `json:"quote"`
	Description    string                `json:"description"`
	Origin         string                `json:"origin"`
	Gender         string                `json:"gender"`
	Classification string                `json:"classification"`
	Images         []models.ImageVariant `json:"images"`
	Tier           string                `json:"tier"`
	AttackPotency  string                `json:"attackPotency"`
	SpeedLore      string                `json:"speed"`
	DurabilityLore string                `json:"durability"`
	Weaknesses     string                `json:"weaknesses"`
	Equipment      string                `json:"equipment"`
	Strength       *int                  `json:"strength"`
	SpeedStat      *int                  `json:"speed_stat"`
	DurabilityStat *int                  `json:"durability_stat"`
	Intelligence   *int                  `json:"intelligence"`
	Energy         *int                  `json:"energy"`
	Combat         *int                  `json:"combat"`
	Abilities      []string              `json:"abilities"`
}

func statOrDefault(v *int) int {
	if v == nil {
		return 50
	}
	if *v < 1 {
		return 1
	}
	if *v > 100 {
		return 100
	}
	return *v
}

func normalizeImages(images []models.ImageVariant) []models.ImageVariant {
	out := make([]models.ImageVariant, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		out = append(out, models.ImageVariant{URL: NormalizeImageURL(img.URL), Label: img.Label})
	}
	return out
}

// Create stores a new character owned by creatorID.
func (s *CharacterService) Create(creatorID uint, in CharacterInput) (*CharacterDTO, error) {
	if in.Name == "" {
		return nil, Invalid("name", "name is required")
	}
	tier := in.Tier
	if tier == "" {
		tier = "Unknown"
	}

	ch := models.Character{
		Name:           in.Name,
		Alias:          in.Alias,
		Quote:          in.Quote,
		Description:    in.Description,
		Origin:         in.Origin,
		Gender:         in.Gender,
		Classification: in.Classification,
		Images:         normalizeImages(in.Images),
		Tier:           tier,
		AttackPotency:  in.AttackPotency,
		SpeedLore:      in.SpeedLore,
		DurabilityLore: in.DurabilityLore,
		Weaknesses:     in.Weaknesses,
		Equipment:      in.Equipment,
		Strength:       statOrDefault(in.Strength),
		SpeedStat:      statOrDefault(in.SpeedStat),
		DurabilityStat: statOrDefault(in.DurabilityStat),
		Intelligence:   statOrDefault(in.Intelligence),
		Energy:         statOrDefault(in.Energy),
		Combat:         statOrDefault(in.Combat),
		Abilities:      in.Abilities,
		IsActive:       true,
		CreatorID:      creatorID,
	}
	if err := s.db.Create(&ch).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Creator").First(&ch, ch.ID).Error; err != nil {
		return nil, err
	}
	dto := characterDTO(ch)
	return &dto, nil
}

type CharacterFilter struct {
	Page      int
	Limit     int
	Search    string
	Tier      string
	CreatorID uint
	SortBy    string
}

// List returns active characters with filters, sorting and pagination.
func (s *CharacterService) List(f CharacterFilter) ([]CharacterDTO, Pagination, error) {
	page, limit := clampPage(f.Page, f.Limit, 12, 100)

	q := s.db.Model(&models.Character{}).Where("is_active = ?", true)
	if f.Tier != "" {
		q = q.Where("tier = ?", f.Tier)
	}
	if f.CreatorID != 0 {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	if f.Search != "" {
		pat := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR alias LIKE ? OR description LIKE ?", pat, pat, pat)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	switch f.SortBy {
	case "popular":
		q = q.Order("views DESC").Order("likes DESC")
	case "name":
		q = q.Order("name ASC")
	default:
		q = q.Order("created_at DESC")
	}

	var chars []models.Character
	if err := q.Preload("Creator").Limit(limit).Offset((page - 1) * limit).Find(&chars).Error; err != nil {
		return nil, Pagination{}, err
	}
	return characterDTOs(chars), paginate(page, limit, total), nil
}

// Get returns an active character and bumps its view counter. Every detail
// fetch counts, repeated views included.
func (s *CharacterService) Get(id uint) (*CharacterDTO, error) {
	var ch models.Character
	err := s.db.Preload("Creator").Where("id = ? AND is_active = ?", id, true).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&models.Character{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return nil, err
	}
	ch.Views++
	dto := characterDTO(ch)
	return &dto, nil
}

// Update applies the creator's edits to their own character.
func (s *CharacterService) Update(id, userID uint, in CharacterInput) (*CharacterDTO, error) {
	var ch models.Character
	err := s.db.Where("id = ? AND is_active = ?", id, true).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ch.CreatorID != userID {
		return nil, ErrForbidden
	}

	if in.Name != "" {
		ch.Name = in.Name
	}
	ch.Alias = in.Alias
	ch.Quote = in.Quote
	if in.Description != "" {
		ch.Description = in.Description
	}
	ch.Origin = in.Origin
	ch.Gender = in.Gender
	ch.Classification = in.Classification
	if in.Images != nil {
		ch.Images = normalizeImages(in.Images)
	}
	if in.Tier != "" {
		ch.Tier = in.Tier
	}
	ch.AttackPotency = in.AttackPotency
	ch.SpeedLore = in.SpeedLore
	ch.DurabilityLore = in.DurabilityLore
	ch.Weaknesses = in.Weaknesses
	ch.Equipment = in.Equipment
	if in.Strength != nil {
		ch.Strength = statOrDefault(in.Strength)
	}
	if in.SpeedStat != nil {
		ch.SpeedStat = statOrDefault(in.SpeedStat)
	}
	if in.DurabilityStat != nil {
		ch.DurabilityStat = statOrDefault(in.DurabilityStat)
	}
	if in.Intelligence != nil {
		ch.Intelligence = statOrDefault(in.Intelligence)
	}
	if in.Energy != nil {
		ch.Energy = statOrDefault(in.Energy)
	}
	if in.Combat != nil {
		ch.Combat = statOrDefault(in.Combat)
	}
	if in.Abilities != nil {
		ch.Abilities = in.Abilities
	}

	if err := s.db.Save(&ch).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Creator").First(&ch, id).Error; err != nil {
		return nil, err
	}
	dto := characterDTO(ch)
	return &dto, nil
}

// Delete soft-deletes a character; only the creator may do it.
func (s *CharacterService) Delete(id, userID uint) error {
	var ch models.Character
	err := s.db.Where("id = ? AND is_active = ?", id, true).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if ch.CreatorID != userID {
		return ErrForbidden
	}
	return s.db.Model(&ch).Update("is_active", false).Error
}

// ByCreator lists a creator's active characters, newest first.
func (s *CharacterService) ByCreator(creatorID uint) ([]CharacterDTO, error) {
	var chars []models.Character
	err := s.db.Preload("Creator").
		Where("creator_id = ? AND is_active = ?", creatorID, true).
		Order("created_at DESC").Find(&chars).Error
	if err != nil {
		return nil, err
	}
	return characterDTOs(chars), nil
}

type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// ToggleLike adds or removes the caller from the character's liked-by set and
// keeps the counter consistent. Toggling twice restores the original state.
func (s *CharacterService) ToggleLike(id, userID uint) (*LikeResult, error) {
	var result LikeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ch models.Character
		// Row lock: the liked-by slice is rewritten wholesale, so two
		// concurrent toggles must not read the same snapshot.
		if err := lockForUpdate(tx).Where("id = ? AND is_active = ?", id, true).First(&ch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		liked := false
		likedBy := make([]uint, 0, len(ch.LikedBy))
		for _, uid := range ch.LikedBy {
			if uid == userID {
				liked = true
				continue
			}
			likedBy = append(likedBy, uid)
		}

		likes := ch.Likes
		if liked {
			likes--
			if likes < 0 {
				likes = 0
			}
		} else {
			likedBy = append(likedBy, userID)
			likes++
		}

		ch.Likes = likes
		ch.LikedBy = likedBy
		if err := tx.Save(&ch).Error; err != nil {
			return err
		}
		result = LikeResult{Likes: likes, Liked: !liked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
