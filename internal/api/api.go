/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the planner over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/gaps"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/logbuffer"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/planner"
	"github.com/friendsincode/deepcrate/internal/sequencer"
	"github.com/friendsincode/deepcrate/internal/telemetry"
	"github.com/friendsincode/deepcrate/internal/version"
)

// maxBodyBytes caps request bodies; track imports are the largest.
const maxBodyBytes = 8 << 20

// API exposes HTTP handlers.
type API struct {
	planner   *planner.Service
	logBuffer *logbuffer.Buffer
	logger    zerolog.Logger
}

// New creates the API router wrapper. logBuf may be nil.
func New(planner *planner.Service, logBuf *logbuffer.Buffer, logger zerolog.Logger) *API {
	return &API{
		planner:   planner,
		logBuffer: logBuf,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers API routes on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", a.handleTracksList)
			r.Post("/", a.handleTracksImport)
			r.Get("/stats", a.handleTracksStats)
		})

		r.With(telemetry.TracingMiddleware("intent")).Post("/intent", a.handleIntent)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", a.handlePlansList)
			r.With(telemetry.TracingMiddleware("plan")).Post("/", a.handlePlansCreate)
			r.Route("/{setID}", func(r chi.Router) {
				r.Get("/", a.handlePlansGet)
				r.Delete("/", a.handlePlansDelete)
				r.With(telemetry.TracingMiddleware("gaps")).Get("/gaps", a.handlePlanGaps)
			})
		})

		r.Post("/transitions/score", a.handleTransitionScore)

		r.Route("/system/logs", func(r chi.Router) {
			r.Get("/", a.handleSystemLogs)
			r.Get("/stats", a.handleLogStats)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": version.Get()})
}

// handleTracksList lists the library, narrowed by bpm_min, bpm_max, key,
// energy_min, energy_max and q when any of them is given.
func (a *API) handleTracksList(w http.ResponseWriter, r *http.Request) {
	filter, filtered, code := trackFilter(r)
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	var (
		tracks []models.Track
		err    error
	)
	if filtered {
		tracks, err = a.planner.SearchTracks(r.Context(), filter)
	} else {
		tracks, err = a.planner.Tracks(r.Context())
	}
	if err != nil {
		a.fail(w, err, "list tracks failed")
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// trackFilter reads the search parameters. code names the first malformed
// one.
func trackFilter(r *http.Request) (f library.TrackFilter, filtered bool, code string) {
	q := r.URL.Query()
	bounds := []struct {
		name string
		dst  **float64
	}{
		{"bpm_min", &f.BPMMin},
		{"bpm_max", &f.BPMMax},
		{"energy_min", &f.EnergyMin},
		{"energy_max", &f.EnergyMax},
	}
	for _, b := range bounds {
		raw := strings.TrimSpace(q.Get(b.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, false, "invalid_" + b.name
		}
		*b.dst = &v
		filtered = true
	}
	f.Key = strings.TrimSpace(q.Get("key"))
	f.Query = strings.TrimSpace(q.Get("q"))
	filtered = filtered || f.Key != "" || f.Query != ""
	return f, filtered, ""
}

func (a *API) handleTracksStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.planner.Stats(r.Context())
	if err != nil {
		a.fail(w, err, "library stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleTracksImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tracks []models.Track `json:"tracks"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Tracks) == 0 {
		writeError(w, http.StatusBadRequest, "tracks_required")
		return
	}

	n, err := a.planner.Import(r.Context(), req.Tracks)
	if err != nil {
		a.fail(w, err, "import tracks failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": n})
}

func (a *API) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description_required")
		return
	}

	report, err := a.planner.Intent(r.Context(), req.Description)
	if err != nil {
		a.fail(w, err, "intent failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handlePlansList(w http.ResponseWriter, r *http.Request) {
	sets, err := a.planner.Sets(r.Context())
	if err != nil {
		a.fail(w, err, "list plans failed")
		return
	}
	if sets == nil {
		sets = []models.SetPlan{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (a *API) handlePlansCreate(w http.ResponseWriter, r *http.Request) {
	var req planner.PlanRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description_required")
		return
	}
	if req.DurationMinutes < 0 {
		writeError(w, http.StatusBadRequest, "invalid_duration")
		return
	}

	result, err := a.planner.Plan(r.Context(), req)
	if err != nil {
		a.fail(w, err, "plan failed")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handlePlansGet(w http.ResponseWriter, r *http.Request) {
	detail, err := a.planner.SetDetail(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		a.fail(w, err, "load plan failed")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handlePlansDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.planner.DeleteSet(r.Context(), chi.URLParam(r, "setID")); err != nil {
		a.fail(w, err, "delete plan failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePlanGaps(w http.ResponseWriter, r *http.Request) {
	report, err := a.planner.AnalyzeGaps(r.Context(), chi.URLParam(r, "setID"), r.URL.Query().Get("risk_mode"))
	if err != nil {
		a.fail(w, err, "gap analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleTransitionScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromID   string `json:"from_id"`
		ToID     string `json:"to_id"`
		RiskMode string `json:"risk_mode"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.FromID == "" || req.ToID == "" {
		writeError(w, http.StatusBadRequest, "track_ids_required")
		return
	}

	tr, err := a.planner.ScorePair(r.Context(), req.FromID, req.ToID, req.RiskMode)
	if err != nil {
		a.fail(w, err, "score transition failed")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (a *API) handleSystemLogs(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeError(w, http.StatusServiceUnavailable, "log_buffer_unavailable")
		return
	}

	q := r.URL.Query()
	params := logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		SetID:      q.Get("set_id"),
		Search:     q.Get("search"),
		Limit:      500,
		Descending: q.Get("order") != "asc",
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_since")
			return
		}
		params.Since = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		params.Limit = n
	}

	entries := a.logBuffer.Query(params)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (a *API) handleLogStats(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeError(w, http.StatusServiceUnavailable, "log_buffer_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, a.logBuffer.Stats())
}

// fail maps service errors to a status and code. Unexpected errors are
// logged and reported as internal.
func (a *API) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, planner.ErrInvalidTrack), errors.Is(err, library.ErrUnidentified):
		writeError(w, http.StatusBadRequest, "invalid_track")
	case errors.Is(err, sequencer.ErrInvalidInput), errors.Is(err, gaps.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, library.ErrNotFound), errors.Is(err, gaps.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, planner.ErrEmptyLibrary):
		writeError(w, http.StatusConflict, "empty_library")
	case errors.Is(err, sequencer.ErrEmptyResult):
		writeError(w, http.StatusUnprocessableEntity, "empty_result")
	default:
		a.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
