/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"fmt"

	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/sequencer"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

// SearchTracks filters the library. Inverted ranges are rejected.
func (s *Service) SearchTracks(ctx context.Context, f library.TrackFilter) ([]models.Track, error) {
	if f.BPMMin != nil && f.BPMMax != nil && *f.BPMMin > *f.BPMMax {
		return nil, fmt.Errorf("%w: bpm_min %v above bpm_max %v", sequencer.ErrInvalidInput, *f.BPMMin, *f.BPMMax)
	}
	if f.EnergyMin != nil && f.EnergyMax != nil && *f.EnergyMin > *f.EnergyMax {
		return nil, fmt.Errorf("%w: energy_min %v above energy_max %v", sequencer.ErrInvalidInput, *f.EnergyMin, *f.EnergyMax)
	}
	return s.repo.SearchTracks(ctx, f)
}

// Stats summarises the library.
func (s *Service) Stats(ctx context.Context) (*library.Stats, error) {
	return s.repo.Stats(ctx)
}

// SetDetailByName runs SetDetail for the set called name.
func (s *Service) SetDetailByName(ctx context.Context, name string) (*SetDetail, error) {
	plan, err := s.repo.SetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.SetDetail(ctx, plan.ID)
}

// DeleteSetByName runs DeleteSet for the set called name and returns its ID.
func (s *Service) DeleteSetByName(ctx context.Context, name string) (string, error) {
	plan, err := s.repo.SetByName(ctx, name)
	if err != nil {
		return "", err
	}
	return plan.ID, s.DeleteSet(ctx, plan.ID)
}

// DeleteSet removes a stored set with its tracks and gaps, drops its cached
// plan and gap reports and announces the deletion.
func (s *Service) DeleteSet(ctx context.Context, setID string) error {
	ctx, span := telemetry.StartSetSpan(ctx, "DeleteSet", setID, "")
	defer span.End()

	if err := s.repo.DeleteSet(ctx, setID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.cache.InvalidateSet(ctx, setID); err != nil {
		s.logger.Debug().Err(err).Str("set_id", setID).Msg("deleted set cache not invalidated")
	}

	s.publish(events.EventSetDeleted, events.Payload{"set_id": setID})
	s.logger.Info().Str("set_id", setID).Msg("set deleted")
	return nil
}
