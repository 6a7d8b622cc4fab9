package store

import (
	"time"

	"github.com/google/uuid"
)

// Link is the verified pairing between a platform account and a game account.
type Link struct {
	PlatformID string    `json:"platform_id"`
	GameID     uuid.UUID `json:"game_id"`
	LinkedAt   time.Time `json:"linked_at"`
}

// linkRow is the persisted shape of a Link. Both identity columns are unique.
type linkRow struct {
	PlatformID string    `gorm:"column:platform_id;type:varchar(64);primaryKey"`
	GameID     string    `gorm:"column:game_id;type:varchar(36);not null;uniqueIndex:idx_links_game_id"`
	LinkedAt   time.Time `gorm:"column:linked_at;not null"`
}

func (linkRow) TableName() string {
	return "links"
}

var linkColumns = []string{"platform_id", "game_id", "linked_at"}

func (r linkRow) toLink() (*Link, error) {
	gameID, err := uuid.Parse(r.GameID)
	if err != nil {
		return nil, err
	}
	return &Link{
		PlatformID: r.PlatformID,
		GameID:     gameID,
		LinkedAt:   r.LinkedAt,
	}, nil
}
