/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library persists analysed tracks, planned sets and their gaps.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/deepcrate/internal/models"
)

var (
	// ErrNotFound is returned when a set or track does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnidentified is returned for a track with no ID, path or hash.
	ErrUnidentified = errors.New("track has no id, path or hash")
)

// Repository is the gorm-backed track and set store.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps an open database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Tracks returns the whole library ordered by ID.
func (r *Repository) Tracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	if err := r.db.WithContext(ctx).Order("id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// TracksByID loads the given tracks. Unknown IDs are skipped; the result is
// ordered by ID.
func (r *Repository) TracksByID(ctx context.Context, ids []string) ([]models.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tracks []models.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	return tracks, nil
}

// Track loads a single track.
func (r *Repository) Track(ctx context.Context, id string) (*models.Track, error) {
	var t models.Track
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", id, err)
	}
	return &t, nil
}

// UpsertTracks inserts tracks or, when the file hash is already known,
// refreshes the stored metadata. Tracks without a hash are hashed by path,
// or by the caller's ID when there is no path, and tracks without an ID get
// a new uuid. The slice is updated in place with the IDs actually stored.
func (r *Repository) UpsertTracks(ctx context.Context, tracks []models.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	// One row per hash; the last entry wins.
	index := make(map[string]int, len(tracks))
	rows := make([]models.Track, 0, len(tracks))
	for i := range tracks {
		if tracks[i].FileHash == "" {
			hash, ok := fallbackHash(tracks[i])
			if !ok {
				return fmt.Errorf("upsert track %d (%q): %w", i, tracks[i].Title, ErrUnidentified)
			}
			tracks[i].FileHash = hash
		}
		if tracks[i].ID == "" {
			tracks[i].ID = uuid.NewString()
		}
		if at, ok := index[tracks[i].FileHash]; ok {
			rows[at] = tracks[i]
			continue
		}
		index[tracks[i].FileHash] = len(rows)
		rows = append(rows, tracks[i])
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_path", "title", "artist", "bpm", "musical_key", "energy", "duration", "updated_at",
		}),
	}).CreateInBatches(&rows, 200).Error
	if err != nil {
		return fmt.Errorf("upsert tracks: %w", err)
	}

	hashes := make([]string, len(rows))
	for i, t := range rows {
		hashes[i] = t.FileHash
	}
	var stored []models.Track
	if err := r.db.WithContext(ctx).Select("id", "file_hash").Where("file_hash IN ?", hashes).Find(&stored).Error; err != nil {
		return fmt.Errorf("reload track ids: %w", err)
	}
	ids := make(map[string]string, len(stored))
	for _, t := range stored {
		ids[t.FileHash] = t.ID
	}
	for i := range tracks {
		if id, ok := ids[tracks[i].FileHash]; ok {
			tracks[i].ID = id
		}
	}
	return nil
}

// fallbackHash derives a stable hash from the path or caller-supplied ID.
// Generated IDs never feed it, so a re-import maps to the same row.
func fallbackHash(t models.Track) (string, bool) {
	source := strings.TrimSpace(t.FilePath)
	if source == "" {
		source = strings.TrimSpace(t.ID)
	}
	if source == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:]), true
}

// SaveSet stores plan and its ordered tracks. A set with the same name is
// replaced together with its tracks and gaps.
func (r *Repository) SaveSet(ctx context.Context, plan *models.SetPlan, tracks []models.SetTrack) error {
	if strings.TrimSpace(plan.Name) == "" {
		return fmt.Errorf("save set: name is required")
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SetPlan
		err := tx.Where("name = ?", plan.Name).First(&existing).Error
		switch {
		case err == nil:
			if err := deleteSet(tx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find set %q: %w", plan.Name, err)
		}

		if err := tx.Omit(clause.Associations).Create(plan).Error; err != nil {
			return fmt.Errorf("create set: %w", err)
		}

		rows := make([]models.SetTrack, len(tracks))
		for i, st := range tracks {
			st.SetID = plan.ID
			rows[i] = st
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("create set tracks: %w", err)
			}
		}
		plan.Tracks = rows
		return nil
	})
}

func deleteSet(tx *gorm.DB, setID string) error {
	if err := tx.Where("set_id = ?", setID).Delete(&models.Gap{}).Error; err != nil {
		return fmt.Errorf("delete gaps: %w", err)
	}
	if err := tx.Where("set_id = ?", setID).Delete(&models.SetTrack{}).Error; err != nil {
		return fmt.Errorf("delete set tracks: %w", err)
	}
	if err := tx.Delete(&models.SetPlan{}, "id = ?", setID).Error; err != nil {
		return fmt.Errorf("delete set: %w", err)
	}
	return nil
}

// DeleteSet removes a set with its tracks and gaps.
func (r *Repository) DeleteSet(ctx context.Context, setID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.SetPlan{}).Where("id = ?", setID).Count(&n).Error; err != nil {
			return fmt.Errorf("find set %s: %w", setID, err)
		}
		if n == 0 {
			return fmt.Errorf("set %s: %w", setID, ErrNotFound)
		}
		return deleteSet(tx, setID)
	})
}

// SetByID loads a set with its tracks in position order.
func (r *Repository) SetByID(ctx context.Context, id string) (*models.SetPlan, error) {
	return r.findSet(ctx, "id = ?", id)
}

// SetByName loads a set with its tracks in position order.
func (r *Repository) SetByName(ctx context.Context, name string) (*models.SetPlan, error) {
	return r.findSet(ctx, "name = ?", name)
}

func (r *Repository) findSet(ctx context.Context, query string, arg string) (*models.SetPlan, error) {
	var plan models.SetPlan
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where(query, arg).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("set %s: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load set %s: %w", arg, err)
	}
	return &plan, nil
}

// Sets lists stored sets without their tracks, newest first.
func (r *Repository) Sets(ctx context.Context) ([]models.SetPlan, error) {
	var plans []models.SetPlan
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("name").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return plans, nil
}

// SetTracks returns the ordered track IDs of a set.
func (r *Repository) SetTracks(ctx context.Context, setID string) ([]models.SetTrack, error) {
	var rows []models.SetTrack
	if err := r.db.WithContext(ctx).Where("set_id = ?", setID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list set tracks: %w", err)
	}
	return rows, nil
}

// ReplaceGaps swaps the stored gaps of a set for gaps.
func (r *Repository) ReplaceGaps(ctx context.Context, setID string, gaps []models.Gap) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("set_id = ?", setID).Delete(&models.Gap{}).Error; err != nil {
			return fmt.Errorf("delete gaps: %w", err)
		}
		if len(gaps) == 0 {
			return nil
		}
		for i := range gaps {
			gaps[i].SetID = setID
			if gaps[i].ID == "" {
				gaps[i].ID = uuid.NewString()
			}
		}
		if err := tx.Create(&gaps).Error; err != nil {
			return fmt.Errorf("create gaps: %w", err)
		}
		return nil
	})
}

// Gaps returns the stored gaps of a set in position order.
func (r *Repository) Gaps(ctx context.Context, setID string) ([]models.Gap, error) {
	var gaps []models.Gap
	if err := r.db.WithContext(ctx).Where("set_id = ?", setID).Order("position").Find(&gaps).Error; err != nil {
		return nil, fmt.Errorf("list gaps: %w", err)
	}
	return gaps, nil
}
