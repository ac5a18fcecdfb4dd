package models

import (
	"time"
)

const (
	MaxTitleLength = 60
	YearLength     = 4
)

// Movie represents a watchlist entry
type Movie struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:60;not null" json:"title"`
	Year      string    `gorm:"size:4;not null" json:"year"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Movie) TableName() string { return "movies" }
