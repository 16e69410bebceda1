package model

import "time"

const (
	// DateLayout is the input format for a reading date. Month and day may
	// be zero padded.
	DateLayout = "2006-1-2"
	// TimestampLayout is how reading dates are rendered in responses.
	TimestampLayout = "2006-01-02T15:04:05"
)

// Reading represents a single blood-pressure observation.
// Date carries no time of day; it is always midnight UTC.
type Reading struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Systolic  int       `json:"systolic" gorm:"not null"`
	Diastolic int       `json:"diastolic" gorm:"not null"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	UserID    uint      `json:"-" gorm:"not null;index"`
	CreatedAt time.Time `json:"-"`
}

// TruncateToDay drops the time-of-day component and normalizes to UTC.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
