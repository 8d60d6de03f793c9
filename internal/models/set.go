/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// SetPlan is a persisted, ordered DJ set.
type SetPlan struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string     `gorm:"uniqueIndex" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	TargetDuration int        `json:"target_duration"` // minutes
	TargetCount    int        `json:"target_count"`
	RiskMode       string     `gorm:"type:varchar(16)" json:"risk_mode"`
	Arc            string     `gorm:"type:varchar(32)" json:"arc"`
	Profiles       []string   `gorm:"type:text;serializer:json" json:"profiles"`
	FilterStage    string     `gorm:"type:varchar(16)" json:"filter_stage"`
	Warnings       []string   `gorm:"type:text;serializer:json" json:"warnings"`
	Tracks         []SetTrack `gorm:"foreignKey:SetID" json:"tracks,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SetTrack places a track in a set. TransitionScore rates the transition into
// this track; the opener carries 0.
type SetTrack struct {
	SetID           string  `gorm:"type:varchar(36);primaryKey" json:"set_id"`
	Position        int     `gorm:"primaryKey;autoIncrement:false" json:"position"`
	TrackID         string  `gorm:"type:varchar(36);index" json:"track_id"`
	TransitionScore float64 `json:"transition_score"`
}

// Gap is a stored weak transition with its bridge target.
type Gap struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SetID           string    `gorm:"type:varchar(36);index" json:"set_id"`
	Position        int       `json:"position"`
	FromTrackID     string    `gorm:"type:varchar(36)" json:"from_track_id"`
	ToTrackID       string    `gorm:"type:varchar(36)" json:"to_track_id"`
	Score           float64   `json:"score"`
	SuggestedBPM    float64   `json:"suggested_bpm"`
	SuggestedKey    string    `gorm:"type:varchar(4)" json:"suggested_key"`
	SuggestedEnergy float64   `json:"suggested_energy"`
	Reason          string    `json:"reason"`
	BridgeTrackIDs  []string  `gorm:"type:text;serializer:json" json:"bridge_track_ids"`
	CreatedAt       time.Time `json:"created_at"`
}
