package db

import "time"

// PressRelease is a newsroom entry. Content is markdown.
type PressRelease struct {
	Section
	Title       string     `json:"title"`
	Summary     string     `gorm:"type:text" json:"summary"`
	Content     string     `gorm:"type:text" json:"content"`
	ImageURL    string     `json:"imageUrl"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	PublishedOn *time.Time `gorm:"index" json:"publishedOn"`
}
