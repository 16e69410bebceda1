package model

import "time"

// User represents a registered account that owns blood-pressure readings.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string    `json:"-" gorm:"size:256;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Readings []Reading `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
