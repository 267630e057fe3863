package models

import "time"

// ChangeAction identifies the store operation that produced a ColorChange
type ChangeAction string

const (
	ActionSet    ChangeAction = "set"
	ActionRemove ChangeAction = "remove"
	ActionClear  ChangeAction = "clear"
	ActionSeed   ChangeAction = "seed"
	ActionImport ChangeAction = "import"
)

// ColorChange is one audited mutation of the color store
type ColorChange struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	Action    ChangeAction `gorm:"not null" json:"action"`
	Country   string       `gorm:"index" json:"country,omitempty"`   // empty for clear/seed/import
	ColorName ColorName    `json:"color_name,omitempty"`             // set only
	Count     int          `gorm:"default:0" json:"count,omitempty"` // entries after seed/import
}
