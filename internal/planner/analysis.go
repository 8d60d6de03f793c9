/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/friendsincode/deepcrate/internal/cache"
	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/gaps"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

// SetDetail is a stored set with its tracks resolved in set order.
type SetDetail struct {
	Set         models.SetPlan       `json:"set"`
	Tracks      []models.Track       `json:"tracks"`
	Transitions []scoring.Transition `json:"transitions"`
}

// GapReport is the gap analysis of one set under one risk mode.
type GapReport struct {
	SetID       string               `json:"set_id"`
	SetName     string               `json:"set_name"`
	RiskMode    scoring.RiskMode     `json:"risk_mode"`
	Transitions []scoring.Transition `json:"transitions"`
	Gaps        []gaps.Suggestion    `json:"gaps"`
	Cached      bool                 `json:"cached"`
}

// Sets lists the stored sets.
func (s *Service) Sets(ctx context.Context) ([]models.SetPlan, error) {
	return s.repo.Sets(ctx)
}

// SetDetail loads a stored set and rescores it under its own risk mode.
func (s *Service) SetDetail(ctx context.Context, setID string) (*SetDetail, error) {
	if cached, ok := s.cache.GetPlan(ctx, setID); ok {
		return &SetDetail{Set: cached.Set, Tracks: cached.Tracks, Transitions: cached.Transitions}, nil
	}

	plan, err := s.repo.SetByID(ctx, setID)
	if err != nil {
		return nil, err
	}
	tracks, err := s.resolve(ctx, plan)
	if err != nil {
		return nil, err
	}
	mode, err := scoring.ParseRiskMode(plan.RiskMode)
	if err != nil {
		mode = s.cfg.RiskMode
	}

	detail := &SetDetail{Set: *plan, Tracks: tracks, Transitions: scoring.ScoreSequence(tracks, mode)}
	if err := s.cache.SetPlan(ctx, &cache.CachedPlan{Set: detail.Set, Tracks: detail.Tracks, Transitions: detail.Transitions}); err != nil {
		s.logger.Debug().Err(err).Str("set_id", setID).Msg("plan not cached")
	}
	return detail, nil
}

// resolve loads the tracks of plan in set order.
func (s *Service) resolve(ctx context.Context, plan *models.SetPlan) ([]models.Track, error) {
	ids := make([]string, len(plan.Tracks))
	for i, st := range plan.Tracks {
		ids[i] = st.TrackID
	}
	stored, err := s.repo.TracksByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return gaps.Resolve(ids, stored)
}

// AnalyzeGapsByName runs AnalyzeGaps for the set called name.
func (s *Service) AnalyzeGapsByName(ctx context.Context, name, mode string) (*GapReport, error) {
	plan, err := s.repo.SetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeGaps(ctx, plan.ID, mode)
}

// AnalyzeGaps finds the weak transitions of a stored set and recommends
// bridges from the rest of the library. Results are stored and cached.
func (s *Service) AnalyzeGaps(ctx context.Context, setID, mode string) (*GapReport, error) {
	riskMode, err := s.riskMode(mode)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.GetGapReport(ctx, setID, riskMode); ok {
		return &GapReport{
			SetID:       cached.SetID,
			SetName:     cached.SetName,
			RiskMode:    cached.RiskMode,
			Transitions: cached.Transitions,
			Gaps:        cached.Gaps,
			Cached:      true,
		}, nil
	}

	ctx, span := telemetry.StartSetSpan(ctx, "AnalyzeGaps", setID, string(riskMode))
	defer span.End()
	start := time.Now()

	plan, err := s.repo.SetByID(ctx, setID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	sequence, err := s.resolve(ctx, plan)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	pool, err := s.repo.Tracks(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	suggestions, err := gaps.Detect(gaps.Request{Sequence: sequence, Pool: pool, RiskMode: riskMode})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if suggestions == nil {
		suggestions = []gaps.Suggestion{}
	}

	if err := s.repo.ReplaceGaps(ctx, plan.ID, gapRows(suggestions)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &GapReport{
		SetID:       plan.ID,
		SetName:     plan.Name,
		RiskMode:    riskMode,
		Transitions: scoring.ScoreSequence(sequence, riskMode),
		Gaps:        suggestions,
	}

	span.SetAttributes(telemetry.AttrTracks.Int(len(sequence)), telemetry.AttrGaps.Int(len(suggestions)))
	telemetry.GapAnalysisDuration.Observe(time.Since(start).Seconds())
	for _, g := range suggestions {
		telemetry.GapsDetectedTotal.WithLabelValues(g.Reason).Inc()
	}

	if err := s.cache.SetGapReport(ctx, &cache.CachedGapReport{
		SetID:       report.SetID,
		SetName:     report.SetName,
		RiskMode:    report.RiskMode,
		Transitions: report.Transitions,
		Gaps:        report.Gaps,
	}); err != nil {
		s.logger.Debug().Err(err).Str("set_id", setID).Msg("gap report not cached")
	}

	s.publish(events.EventSetGapsAnalyzed, events.Payload{
		"set_id":    plan.ID,
		"risk_mode": string(riskMode),
		"gaps":      len(suggestions),
	})

	s.logger.Info().
		Str("set_id", plan.ID).
		Str("name", plan.Name).
		Str("risk_mode", string(riskMode)).
		Int("tracks", len(sequence)).
		Int("gaps", len(suggestions)).
		Msg("gap analysis complete")

	return report, nil
}

func gapRows(suggestions []gaps.Suggestion) []models.Gap {
	rows := make([]models.Gap, len(suggestions))
	for i, g := range suggestions {
		bridges := make([]string, len(g.Bridges))
		for j, b := range g.Bridges {
			bridges[j] = b.TrackID
		}
		rows[i] = models.Gap{
			Position:        g.Position,
			FromTrackID:     g.FromTrackID,
			ToTrackID:       g.ToTrackID,
			Score:           g.Score,
			SuggestedBPM:    g.SuggestedBPM,
			SuggestedKey:    g.SuggestedKey,
			SuggestedEnergy: g.SuggestedEnergy,
			Reason:          g.Reason,
			BridgeTrackIDs:  bridges,
		}
	}
	return rows
}

// AnalyzeAll analyses every stored set, at most MaxConcurrentAnalyses at a
// time. Reports follow the order of Sets; the first failure cancels the rest.
func (s *Service) AnalyzeAll(ctx context.Context, mode string) ([]*GapReport, error) {
	if _, err := s.riskMode(mode); err != nil {
		return nil, err
	}
	sets, err := s.repo.Sets(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*GapReport, len(sets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentAnalyses)
	for i, set := range sets {
		g.Go(func() error {
			report, err := s.AnalyzeGaps(gctx, set.ID, mode)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Tracks lists the library.
func (s *Service) Tracks(ctx context.Context) ([]models.Track, error) {
	return s.repo.Tracks(ctx)
}
