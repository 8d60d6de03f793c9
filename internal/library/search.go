/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/friendsincode/deepcrate/internal/models"
)

// TopKeyLimit caps the keys reported by Stats.
const TopKeyLimit = 10

// TrackFilter narrows SearchTracks. Nil bounds and empty strings match
// everything.
type TrackFilter struct {
	BPMMin    *float64 `json:"bpm_min,omitempty"`
	BPMMax    *float64 `json:"bpm_max,omitempty"`
	Key       string   `json:"key,omitempty"`
	EnergyMin *float64 `json:"energy_min,omitempty"`
	EnergyMax *float64 `json:"energy_max,omitempty"`
	Query     string   `json:"q,omitempty"`
}

// SearchTracks returns the tracks matching f ordered by BPM. Key matches
// exactly after upper-casing; Query matches title or artist substrings
// case-insensitively.
func (r *Repository) SearchTracks(ctx context.Context, f TrackFilter) ([]models.Track, error) {
	q := r.db.WithContext(ctx).Model(&models.Track{})
	if f.BPMMin != nil {
		q = q.Where("bpm >= ?", *f.BPMMin)
	}
	if f.BPMMax != nil {
		q = q.Where("bpm <= ?", *f.BPMMax)
	}
	if key := strings.ToUpper(strings.TrimSpace(f.Key)); key != "" {
		q = q.Where("musical_key = ?", key)
	}
	if f.EnergyMin != nil {
		q = q.Where("energy >= ?", *f.EnergyMin)
	}
	if f.EnergyMax != nil {
		q = q.Where("energy <= ?", *f.EnergyMax)
	}
	if text := strings.ToLower(strings.TrimSpace(f.Query)); text != "" {
		like := "%" + text + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ?", like, like)
	}

	var tracks []models.Track
	if err := q.Order("bpm").Order("id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	return tracks, nil
}

// Range summarises one numeric column over the tracks where it is known.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// KeyCount is how many tracks share a Camelot key.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Stats is the library overview.
type Stats struct {
	Tracks        int64      `json:"tracks"`
	BPM           *Range     `json:"bpm,omitempty"`
	Energy        *Range     `json:"energy,omitempty"`
	TotalDuration float64    `json:"total_duration"` // seconds
	TopKeys       []KeyCount `json:"top_keys"`
}

// Stats aggregates the library. BPM and energy ranges skip unknown (zero)
// values and are nil when nothing is known.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	out := &Stats{TopKeys: []KeyCount{}}

	if err := db.Model(&models.Track{}).Count(&out.Tracks).Error; err != nil {
		return nil, fmt.Errorf("count tracks: %w", err)
	}
	if out.Tracks == 0 {
		return out, nil
	}

	var err error
	if out.BPM, err = r.columnRange(ctx, "bpm"); err != nil {
		return nil, err
	}
	if out.Energy, err = r.columnRange(ctx, "energy"); err != nil {
		return nil, err
	}

	var total sql.NullFloat64
	if err := db.Model(&models.Track{}).Select("SUM(duration)").Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("sum duration: %w", err)
	}
	out.TotalDuration = total.Float64

	var keys []struct {
		MusicalKey string
		Total      int64
	}
	err = db.Model(&models.Track{}).
		Select("musical_key, COUNT(*) AS total").
		Where("musical_key <> ''").
		Group("musical_key").
		Order("total DESC").
		Order("musical_key").
		Limit(TopKeyLimit).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("count keys: %w", err)
	}
	for _, k := range keys {
		out.TopKeys = append(out.TopKeys, KeyCount{Key: k.MusicalKey, Count: k.Total})
	}
	return out, nil
}

func (r *Repository) columnRange(ctx context.Context, column string) (*Range, error) {
	var agg struct {
		Known int64
		Lo    sql.NullFloat64
		Hi    sql.NullFloat64
		Mean  sql.NullFloat64
	}
	err := r.db.WithContext(ctx).Model(&models.Track{}).
		Select(fmt.Sprintf("COUNT(*) AS known, MIN(%[1]s) AS lo, MAX(%[1]s) AS hi, AVG(%[1]s) AS mean", column)).
		Where(column + " > 0").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("%s range: %w", column, err)
	}
	if agg.Known == 0 {
		return nil, nil
	}
	return &Range{Min: agg.Lo.Float64, Max: agg.Hi.Float64, Avg: agg.Mean.Float64}, nil
}
