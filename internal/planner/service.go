/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package planner is the service layer around the sequencing engine. It
// loads the library, runs intent inference, sequencing and gap analysis, and
// persists, caches and announces the results.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/cache"
	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/intent"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
	"github.com/friendsincode/deepcrate/internal/sequencer"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

var (
	// ErrEmptyLibrary is returned when planning against an empty library.
	ErrEmptyLibrary = errors.New("library is empty")
	// ErrInvalidTrack is returned by Import for tracks with impossible values
	// or nothing to identify them by.
	ErrInvalidTrack = errors.New("invalid track")
)

// Proposer suggests tracks for a description, e.g. through a language
// model. Its output is untrusted and always re-sequenced.
type Proposer interface {
	Propose(ctx context.Context, description string, pool []models.Track, target int) (sequencer.ProposedSelection, error)
}

// Config holds the planning defaults.
type Config struct {
	RiskMode               scoring.RiskMode
	DefaultDurationMinutes int
	MaxConcurrentAnalyses  int
}

// Options carries the optional collaborators. Nil fields are skipped.
type Options struct {
	Catalog  *intent.Catalog
	Cache    *cache.Cache
	Events   events.Publisher
	Proposer Proposer
}

// Service plans sets and analyses their gaps.
type Service struct {
	repo     *library.Repository
	catalog  *intent.Catalog
	cache    *cache.Cache
	events   events.Publisher
	proposer Proposer
	cfg      Config
	logger   zerolog.Logger
}

// NewService creates a planner service.
func NewService(repo *library.Repository, cfg Config, opts Options, logger zerolog.Logger) *Service {
	if cfg.RiskMode == "" {
		cfg.RiskMode = scoring.RiskBalanced
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = intent.DefaultDurationMinutes
	}
	if cfg.MaxConcurrentAnalyses <= 0 {
		cfg.MaxConcurrentAnalyses = 4
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = intent.DefaultCatalog()
	}

	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    opts.Cache,
		events:   opts.Events,
		proposer: opts.Proposer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "planner").Logger(),
	}
}

// PlanRequest describes a set to build. Zero values fall back to the
// description and then to the configured defaults.
type PlanRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	RiskMode        string `json:"risk_mode,omitempty"`
}

// PlanResult is a planned and stored set.
type PlanResult struct {
	Set          models.SetPlan        `json:"set"`
	Tracks       []models.Track        `json:"tracks"`
	Transitions  []scoring.Transition  `json:"transitions"`
	Reading      intent.Reading        `json:"reading"`
	Availability intent.Availability   `json:"availability"`
	Filter       sequencer.FilterStage `json:"filter"`
	Source       string                `json:"source"`
	Warnings     []string              `json:"warnings,omitempty"`
}

// IntentReport is what a description means against the current library.
type IntentReport struct {
	Reading      intent.Reading      `json:"reading"`
	Availability intent.Availability `json:"availability"`
	TargetCount  int                 `json:"target_count"`
}

// Plan builds, stores and announces a set for req.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (result *PlanResult, err error) {
	ctx, span := telemetry.StartSetSpan(ctx, "Plan", "", "")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			telemetry.RecordError(span, err)
		}
		telemetry.PlansTotal.WithLabelValues(status).Inc()
		telemetry.PlanDuration.Observe(time.Since(start).Seconds())
	}()

	mode, err := s.riskMode(req.RiskMode)
	if err != nil {
		return nil, err
	}

	pool, err := s.repo.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrEmptyLibrary
	}

	reading, duration := s.read(req.Description, req.DurationMinutes)
	target := intent.TargetCount(duration)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "set-" + uuid.NewString()[:8]
	}
	span.SetAttributes(telemetry.SetAttributes("", string(mode))...)
	span.SetAttributes(telemetry.AttrSetName.String(name), telemetry.AttrTarget.Int(target))

	seqReq := sequencer.Request{Pool: pool, Target: target, Reading: reading, RiskMode: mode}
	seq, err := s.sequence(ctx, req.Description, seqReq)
	if err != nil {
		return nil, err
	}

	plan := models.SetPlan{
		Name:           name,
		Description:    req.Description,
		TargetDuration: duration,
		TargetCount:    target,
		RiskMode:       string(seq.RiskMode),
		Arc:            string(reading.Arc.Shape),
		Profiles:       reading.Names(),
		FilterStage:    string(seq.Filter),
		Warnings:       seq.Warnings,
	}
	var replaced string
	if prev, err := s.repo.SetByName(ctx, name); err == nil {
		replaced = prev.ID
	}
	if err := s.repo.SaveSet(ctx, &plan, setTracks(seq)); err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.SetAttributes(plan.ID, "")...)
	span.SetAttributes(telemetry.AttrTracks.Int(len(seq.Tracks)))
	if replaced != "" {
		if err := s.cache.InvalidateSet(ctx, replaced); err != nil {
			s.logger.Debug().Err(err).Str("set_id", replaced).Msg("stale set cache not invalidated")
		}
	}

	result = &PlanResult{
		Set:          plan,
		Tracks:       seq.Tracks,
		Transitions:  seq.Transitions,
		Reading:      reading,
		Availability: seq.Availability,
		Filter:       seq.Filter,
		Source:       seq.Source,
		Warnings:     seq.Warnings,
	}

	if err := s.cache.SetPlan(ctx, &cache.CachedPlan{Set: plan, Tracks: seq.Tracks, Transitions: seq.Transitions}); err != nil {
		s.logger.Debug().Err(err).Str("set_id", plan.ID).Msg("plan not cached")
	}

	telemetry.PlanTracks.Observe(float64(len(seq.Tracks)))
	weak := 0
	for _, tr := range seq.Transitions {
		telemetry.TransitionScore.WithLabelValues(string(seq.RiskMode)).Observe(tr.Composite)
		if tr.Weak() {
			weak++
		}
	}

	s.publish(events.EventSetPlanned, events.Payload{
		"set_id":          plan.ID,
		"replaced_set_id": replaced,
		"name":            plan.Name,
		"tracks":          len(seq.Tracks),
		"filter":          string(seq.Filter),
		"warnings":        seq.Warnings,
	})

	s.logger.Info().
		Str("set_id", plan.ID).
		Str("name", plan.Name).
		Int("tracks", len(seq.Tracks)).
		Int("target", target).
		Str("filter", string(seq.Filter)).
		Str("source", seq.Source).
		Int("weak", weak).
		Strs("warnings", seq.Warnings).
		Msg("set planned")

	return result, nil
}

// sequence asks the proposer first when one is configured. Proposer errors
// are logged and planning continues with the engine alone.
func (s *Service) sequence(ctx context.Context, description string, req sequencer.Request) (sequencer.Result, error) {
	if s.proposer != nil {
		sel, err := s.proposer.Propose(ctx, description, req.Pool, req.Target)
		if err == nil {
			return sequencer.FromProposal(req, sel)
		}
		telemetry.ProposalFailuresTotal.Inc()
		s.logger.Warn().Err(err).Msg("track proposal failed, sequencing without it")
	}
	return sequencer.Sequence(req)
}

func setTracks(seq sequencer.Result) []models.SetTrack {
	rows := make([]models.SetTrack, len(seq.Tracks))
	for i, t := range seq.Tracks {
		rows[i] = models.SetTrack{Position: i + 1, TrackID: t.ID}
		if i > 0 {
			rows[i].TransitionScore = seq.Transitions[i-1].Composite
		}
	}
	return rows
}

// read infers intent and settles the set length: explicit minutes, then the
// description, then the configured default.
func (s *Service) read(description string, minutes int) (intent.Reading, int) {
	reading := s.catalog.Infer(description)

	duration := minutes
	if duration <= 0 {
		duration = reading.DurationMinutes
	}
	if duration <= 0 {
		duration = s.cfg.DefaultDurationMinutes
	}

	reading.DurationMinutes = duration
	reading.Arc = intent.InferArc(intent.Normalize(description), intent.PeakMinute(description), duration)
	return reading, duration
}

// Intent explains a description against the library without planning.
func (s *Service) Intent(ctx context.Context, description string) (*IntentReport, error) {
	pool, err := s.repo.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	reading, duration := s.read(description, 0)
	return &IntentReport{
		Reading:      reading,
		Availability: intent.MeasureAvailability(reading.Matched(), pool),
		TargetCount:  intent.TargetCount(duration),
	}, nil
}

// ScorePair scores the transition between two library tracks.
func (s *Service) ScorePair(ctx context.Context, fromID, toID, mode string) (scoring.Transition, error) {
	riskMode, err := s.riskMode(mode)
	if err != nil {
		return scoring.Transition{}, err
	}
	from, err := s.repo.Track(ctx, fromID)
	if err != nil {
		return scoring.Transition{}, err
	}
	to, err := s.repo.Track(ctx, toID)
	if err != nil {
		return scoring.Transition{}, err
	}
	return scoring.Score(*from, *to, riskMode), nil
}

// Import validates and upserts analysed tracks, then drops cached analyses.
func (s *Service) Import(ctx context.Context, tracks []models.Track) (int, error) {
	for i, t := range tracks {
		if err := validateTrack(t); err != nil {
			return 0, fmt.Errorf("track %d (%s): %w", i+1, t.DisplayName(), err)
		}
	}
	if err := s.repo.UpsertTracks(ctx, tracks); err != nil {
		return 0, err
	}

	telemetry.TracksImportedTotal.Add(float64(len(tracks)))
	if err := s.cache.FlushAll(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("cache flush after import failed")
	}
	s.publish(events.EventTracksImported, events.Payload{"count": len(tracks)})
	s.logger.Info().Int("count", len(tracks)).Msg("tracks imported")
	return len(tracks), nil
}

func validateTrack(t models.Track) error {
	switch {
	case strings.TrimSpace(t.ID) == "" && strings.TrimSpace(t.FilePath) == "" && strings.TrimSpace(t.FileHash) == "":
		return fmt.Errorf("%w: no id, path or hash", ErrInvalidTrack)
	case t.BPM < 0:
		return fmt.Errorf("%w: negative bpm %v", ErrInvalidTrack, t.BPM)
	case t.Energy < 0 || t.Energy > 1:
		return fmt.Errorf("%w: energy %v outside [0, 1]", ErrInvalidTrack, t.Energy)
	case t.Duration < 0:
		return fmt.Errorf("%w: negative duration %v", ErrInvalidTrack, t.Duration)
	}
	return nil
}

// riskMode parses mode, with empty meaning the configured default.
func (s *Service) riskMode(mode string) (scoring.RiskMode, error) {
	if strings.TrimSpace(mode) == "" {
		return s.cfg.RiskMode, nil
	}
	parsed, err := scoring.ParseRiskMode(mode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", sequencer.ErrInvalidInput, err)
	}
	return parsed, nil
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, payload)
}
