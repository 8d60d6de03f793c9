package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Track is one analysed library entry. BPM, Key, Energy and Duration come from
// the audio feature extractor; zero values mean "unknown".
type Track struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FilePath  string    `json:"file_path"`
	FileHash  string    `gorm:"type:varchar(64);uniqueIndex" json:"file_hash"`
	Title     string    `gorm:"index" json:"title"`
	Artist    string    `gorm:"index" json:"artist"`
	BPM       float64   `gorm:"index" json:"bpm"`
	Key       string    `gorm:"column:musical_key;type:varchar(4)" json:"key"`
	Energy    float64   `json:"energy"`
	Duration  float64   `json:"duration"` // seconds
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is the label shown to people: "Artist - Title" when both are
// known, then the title, then the file name.
func (t Track) DisplayName() string {
	artist := strings.TrimSpace(t.Artist)
	title := strings.TrimSpace(t.Title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case t.FilePath != "":
		base := filepath.Base(t.FilePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "Unknown"
}

// SameArtist compares artists case-insensitively.
func (t Track) SameArtist(other Track) bool {
	return strings.EqualFold(strings.TrimSpace(t.Artist), strings.TrimSpace(other.Artist))
}
