package models

import "time"

// ImageVariant is one entry of a character's ordered image list. The first
// variant is the primary image.
type ImageVariant struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email             string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash      string    `gorm:"not null" json:"-"`
	Role              string    `gorm:"size:20;not null;default:user" json:"role"`
	Avatar            string    `gorm:"size:255" json:"avatar"`
	IsVerified        bool      `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken string    `gorm:"size:64;index" json:"-"`
	IsActive          bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	Characters    []Character     `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Conversations []*Conversation `gorm:"many2many:conversation_participants" json:"-"`
}

type Character struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:100;not null" json:"name"`
	Alias          string `gorm:"size:100" json:"alias"`
	Quote          string `gorm:"type:text" json:"quote"`
	Description    string `gorm:"type:text;not null" json:"description"`
	Origin         string `gorm:"size:100" json:"origin"`
	Gender         string `gorm:"size:50" json:"gender"`
	Classification string `gorm:"size:100" json:"classification"`

	Images []ImageVariant `gorm:"serializer:json" json:"images"`

	// Free-text wiki lore. SpeedLore and DurabilityLore are narrative strings,
	// distinct from the numeric stats of the same name.
	Tier           string `gorm:"size:50;not null;default:Unknown" json:"tier"`
	AttackPotency  string `gorm:"type:text" json:"attackPotency"`
	SpeedLore      string `gorm:"type:text" json:"speed"`
	DurabilityLore string `gorm:"type:text" json:"durability"`
	Weaknesses     string `gorm:"type:text" json:"weaknesses"`
	Equipment      string `gorm:"type:text" json:"equipment"`

	// Numeric stats in [1,100], powerLevel is derived from these at read time.
	Strength       int `gorm:"not null;default:50" json:"strength"`
	SpeedStat      int `gorm:"not null;default:50" json:"speed_stat"`
	DurabilityStat int `gorm:"not null;default:50" json:"durability_stat"`
	Intelligence   int `gorm:"not null;default:50" json:"intelligence"`
	Energy         int `gorm:"not null;default:50" json:"energy"`
	Combat         int `gorm:"not null;default:50" json:"combat"`

	Abilities []string `gorm:"serializer:json" json:"abilities"`

	Views   int    `gorm:"not null;default:0" json:"views"`
	Likes   int    `gorm:"not null;default:0" json:"likes"`
	LikedBy []uint `gorm:"serializer:json" json:"-"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"-"`
	CreatorID uint      `gorm:"not null;index" json:"creatorId"`
	Creator   *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PowerLevel is the rounded mean of the six numeric stats. Never stored.
func (c *Character) PowerLevel() int {
	sum := c.Strength + c.SpeedStat + c.DurabilityStat + c.Intelligence + c.Energy + c.Combat
	return int(float64(sum)/6.0 + 0.5)
}

// PrimaryImage returns the URL of the first image variant, if any.
func (c *Character) PrimaryImage() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0].URL
}

type Comment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CharacterID uint       `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"characterId"`
	UserID      uint       `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"userId"`
	ParentID    *uint      `gorm:"index" json:"parentId"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Likes       int        `gorm:"not null;default:0" json:"likes"`
	IsActive    bool       `gorm:"not null;default:true;index" json:"-"`
	Author      *User      `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Replies     []*Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Battle struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	Character1ID uint `gorm:"not null;index" json:"character1Id"`
	Character2ID uint `gorm:"not null;index" json:"character2Id"`
	CreatorID    uint `gorm:"not null;index" json:"creatorId"`

	// Frozen simulation outcome, computed once at creation.
	WinnerID        uint    `gorm:"not null" json:"winnerId"`
	WinProbability1 float64 `gorm:"not null;default:50" json:"winProbabilityChar1"`
	WinProbability2 float64 `gorm:"not null;default:50" json:"winProbabilityChar2"`

	// Community tallies. votesChar1 + votesChar2 == totalVotes at all times.
	VotesChar1 int `gorm:"not null;default:0" json:"votesChar1"`
	VotesChar2 int `gorm:"not null;default:0" json:"votesChar2"`
	TotalVotes int `gorm:"not null;default:0" json:"totalVotes"`

	Views    int  `gorm:"not null;default:0" json:"views"`
	IsActive bool `gorm:"not null;default:true;index" json:"-"`

	Character1 *Character `gorm:"foreignKey:Character1ID" json:"character1,omitempty"`
	Character2 *Character `gorm:"foreignKey:Character2ID" json:"character2,omitempty"`
	Creator    *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// BattleVote holds the single live vote of one user on one battle.
type BattleVote struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BattleID         uint      `gorm:"not null;uniqueIndex:idx_battle_user" json:"battleId"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_battle_user" json:"userId"`
	VotedCharacterID uint      `gorm:"not null" json:"votedCharacterId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Conversation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CharacterID   *uint      `gorm:"index" json:"characterId"`
	Character     *Character `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
	LastMessageID *uint      `gorm:"index" json:"lastMessageId"`
	LastMessage   *Message   `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
	Participants  []*User    `gorm:"many2many:conversation_participants" json:"participants,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversationId"`
	SenderID       uint      `gorm:"not null;index" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false;index" json:"isRead"`
	Sender         *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
