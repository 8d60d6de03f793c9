package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/db"
	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
	"github.com/friendsincode/deepcrate/internal/sequencer"
)

type fixture struct {
	svc  *Service
	repo *library.Repository
	bus  *events.Bus
}

func newFixture(t *testing.T, proposer Proposer) *fixture {
	t.Helper()
	database, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })

	repo := library.NewRepository(database)
	bus := events.NewBus()
	svc := NewService(repo, Config{MaxConcurrentAnalyses: 2}, Options{Events: bus, Proposer: proposer}, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, bus: bus}
}

func track(id string, bpm float64, key string, energy float64) models.Track {
	return models.Track{
		ID:       id,
		FileHash: "hash-" + id,
		Artist:   "Artist " + id,
		Title:    "Title " + id,
		BPM:      bpm,
		Key:      key,
		Energy:   energy,
		Duration: 300,
	}
}

func seedLibrary(t *testing.T, f *fixture) []models.Track {
	t.Helper()
	var tracks []models.Track
	for i := range 12 {
		tracks = append(tracks, track(fmt.Sprintf("dnb%02d", i), 172+float64(i%3), fmt.Sprintf("%dA", i%12+1), 0.3+0.05*float64(i)))
	}
	for i := range 6 {
		tracks = append(tracks, track(fmt.Sprintf("house%02d", i), 124, "8B", 0.5))
	}
	if _, err := f.svc.Import(context.Background(), tracks); err != nil {
		t.Fatalf("import: %v", err)
	}
	return tracks
}

func TestPlanEmptyLibrary(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.Plan(context.Background(), PlanRequest{Name: "x", Description: "techno"}); !errors.Is(err, ErrEmptyLibrary) {
		t.Fatalf("expected ErrEmptyLibrary, got %v", err)
	}
}

func TestPlanPersistsAndAnnounces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)
	planned := f.bus.Subscribe(events.EventSetPlanned)

	res, err := f.svc.Plan(ctx, PlanRequest{Name: "friday", Description: "90 minute liquid dnb set"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if res.Set.TargetDuration != 90 || res.Set.TargetCount != 18 {
		t.Fatalf("unexpected targets: %+v", res.Set)
	}
	if res.Filter != sequencer.FilterStrict {
		t.Fatalf("filter = %s", res.Filter)
	}
	if len(res.Tracks) != 12 {
		t.Fatalf("expected all 12 dnb tracks, got %d", len(res.Tracks))
	}
	for _, tr := range res.Tracks {
		if tr.BPM < 170 {
			t.Fatalf("non dnb track %s in set", tr.ID)
		}
	}
	if len(res.Transitions) != len(res.Tracks)-1 {
		t.Fatalf("transitions = %d", len(res.Transitions))
	}

	stored, err := f.repo.SetByName(ctx, "friday")
	if err != nil {
		t.Fatalf("set by name: %v", err)
	}
	if len(stored.Tracks) != 12 || stored.Tracks[0].TransitionScore != 0 {
		t.Fatalf("stored tracks: %+v", stored.Tracks)
	}
	for i, st := range stored.Tracks {
		if st.TrackID != res.Tracks[i].ID || st.Position != i+1 {
			t.Fatalf("position %d holds %s", st.Position, st.TrackID)
		}
		if i > 0 && st.TransitionScore != res.Transitions[i-1].Composite {
			t.Fatalf("transition score not stored at %d", i+1)
		}
	}
	if stored.Profiles[0] != "liquid drum and bass" {
		t.Fatalf("profiles = %v", stored.Profiles)
	}

	select {
	case payload := <-planned:
		if payload["set_id"] != res.Set.ID {
			t.Fatalf("event payload %v", payload)
		}
	default:
		t.Fatal("set.planned not published")
	}

	detail, err := f.svc.SetDetail(ctx, res.Set.ID)
	if err != nil {
		t.Fatalf("set detail: %v", err)
	}
	if len(detail.Tracks) != 12 || detail.Tracks[0].ID != res.Tracks[0].ID {
		t.Fatalf("detail out of order: %+v", detail.Tracks)
	}
}

func TestPlanDurationPrecedence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)

	tests := []struct {
		name    string
		req     PlanRequest
		minutes int
	}{
		{"explicit", PlanRequest{Description: "2 hour techno", DurationMinutes: 45}, 45},
		{"described", PlanRequest{Description: "2 hour techno"}, 120},
		{"default", PlanRequest{Description: "techno"}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Plan(ctx, tt.req)
			if err != nil {
				t.Fatalf("plan: %v", err)
			}
			if res.Set.TargetDuration != tt.minutes || res.Reading.DurationMinutes != tt.minutes {
				t.Fatalf("duration = %d, want %d", res.Set.TargetDuration, tt.minutes)
			}
			if res.Set.Name == "" {
				t.Fatal("unnamed set")
			}
		})
	}
}

func TestPlanRejectsUnknownRiskMode(t *testing.T) {
	f := newFixture(t, nil)
	seedLibrary(t, f)

	_, err := f.svc.Plan(context.Background(), PlanRequest{Name: "x", Description: "dnb", RiskMode: "reckless"})
	if !errors.Is(err, sequencer.ErrInvalidInput) || !errors.Is(err, scoring.ErrUnknownRiskMode) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

type stubProposer struct {
	mu    sync.Mutex
	calls int
	sel   sequencer.ProposedSelection
	err   error
}

func (p *stubProposer) Propose(context.Context, string, []models.Track, int) (sequencer.ProposedSelection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.sel, p.err
}

func TestPlanWithProposer(t *testing.T) {
	ctx := context.Background()

	t.Run("selection is re-sequenced", func(t *testing.T) {
		p := &stubProposer{sel: sequencer.ProposedSelection{Source: "model", TrackIDs: []string{"dnb03", "dnb01", "ghost"}}}
		f := newFixture(t, p)
		seedLibrary(t, f)

		res, err := f.svc.Plan(ctx, PlanRequest{Name: "p", Description: "dnb"})
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if p.calls != 1 || res.Source != "model" {
			t.Fatalf("proposer not used: calls=%d source=%s", p.calls, res.Source)
		}
		found := false
		for _, w := range res.Warnings {
			if w == "unknown_track:ghost" {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing unknown track warning: %v", res.Warnings)
		}
	})

	t.Run("failure falls back to the engine", func(t *testing.T) {
		p := &stubProposer{err: errors.New("model offline")}
		f := newFixture(t, p)
		seedLibrary(t, f)

		res, err := f.svc.Plan(ctx, PlanRequest{Name: "p", Description: "dnb"})
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if res.Source != "engine" || len(res.Tracks) == 0 {
			t.Fatalf("fallback result: %+v", res)
		}
	})
}

func saveFiveTrackSet(t *testing.T, f *fixture) *models.SetPlan {
	t.Helper()
	ctx := context.Background()
	set := []models.Track{
		track("t1", 174, "8A", 0.5),
		track("t2", 174, "9A", 0.55),
		track("t3", 140, "3B", 0.6),
		track("t4", 140, "3B", 0.62),
		track("t5", 140, "4B", 0.65),
	}
	bridges := []models.Track{
		track("b1", 157, "9A", 0.57),
		track("b2", 158, "9A", 0.6),
	}
	if _, err := f.svc.Import(ctx, append(set, bridges...)); err != nil {
		t.Fatalf("import: %v", err)
	}

	plan := &models.SetPlan{Name: "gappy", RiskMode: string(scoring.RiskBalanced)}
	rows := make([]models.SetTrack, len(set))
	for i, tr := range set {
		rows[i] = models.SetTrack{Position: i + 1, TrackID: tr.ID}
	}
	if err := f.repo.SaveSet(ctx, plan, rows); err != nil {
		t.Fatalf("save set: %v", err)
	}
	return plan
}

func TestAnalyzeGaps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	plan := saveFiveTrackSet(t, f)
	analyzed := f.bus.Subscribe(events.EventSetGapsAnalyzed)

	report, err := f.svc.AnalyzeGaps(ctx, plan.ID, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.RiskMode != scoring.RiskBalanced || report.SetName != "gappy" {
		t.Fatalf("report header: %+v", report)
	}
	if len(report.Transitions) != 4 {
		t.Fatalf("transitions = %d", len(report.Transitions))
	}
	if len(report.Gaps) != 1 || report.Gaps[0].Position != 3 {
		t.Fatalf("gaps = %+v", report.Gaps)
	}
	if len(report.Gaps[0].Bridges) == 0 {
		t.Fatal("expected bridge candidates")
	}

	stored, err := f.repo.Gaps(ctx, plan.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored gaps: %+v %v", stored, err)
	}
	if stored[0].Reason != report.Gaps[0].Reason || len(stored[0].BridgeTrackIDs) != len(report.Gaps[0].Bridges) {
		t.Fatalf("stored gap mismatch: %+v", stored[0])
	}

	if len(analyzed) != 1 {
		t.Fatal("set.gaps_analyzed not published")
	}

	byName, err := f.svc.AnalyzeGapsByName(ctx, "gappy", "safe")
	if err != nil || byName.RiskMode != scoring.RiskSafe {
		t.Fatalf("by name: %+v %v", byName, err)
	}
}

func TestAnalyzeGapsErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	plan := saveFiveTrackSet(t, f)

	if _, err := f.svc.AnalyzeGaps(ctx, "missing", ""); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("missing set: %v", err)
	}
	if _, err := f.svc.AnalyzeGaps(ctx, plan.ID, "wild"); !errors.Is(err, sequencer.ErrInvalidInput) {
		t.Fatalf("bad mode: %v", err)
	}
}

func TestAnalyzeAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)

	for _, name := range []string{"one", "two", "three"} {
		if _, err := f.svc.Plan(ctx, PlanRequest{Name: name, Description: "dnb"}); err != nil {
			t.Fatalf("plan %s: %v", name, err)
		}
	}

	reports, err := f.svc.AnalyzeAll(ctx, "bold")
	if err != nil {
		t.Fatalf("analyze all: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for _, r := range reports {
		if r == nil || r.RiskMode != scoring.RiskBold {
			t.Fatalf("bad report %+v", r)
		}
	}
}

func TestScorePair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)

	tr, err := f.svc.ScorePair(ctx, "dnb00", "dnb01", "")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if tr.FromID != "dnb00" || tr.ToID != "dnb01" || tr.Composite <= 0 {
		t.Fatalf("unexpected transition %+v", tr)
	}

	if _, err := f.svc.ScorePair(ctx, "dnb00", "nope", ""); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("missing track: %v", err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	imported := f.bus.Subscribe(events.EventTracksImported)

	bad := track("bad", 120, "8A", 1.5)
	if _, err := f.svc.Import(ctx, []models.Track{bad}); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}

	n, err := f.svc.Import(ctx, []models.Track{track("a", 120, "8A", 0.5), track("b", 122, "9A", 0.6)})
	if err != nil || n != 2 {
		t.Fatalf("import: %d %v", n, err)
	}
	payload := <-imported
	if payload["count"] != 2 {
		t.Fatalf("event payload %v", payload)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	unidentified := models.Track{Title: "Roller", Artist: "A", BPM: 174, Key: "8A", Energy: 0.6, Duration: 300}
	for range 2 {
		if _, err := f.svc.Import(ctx, []models.Track{unidentified}); !errors.Is(err, ErrInvalidTrack) {
			t.Fatalf("expected ErrInvalidTrack, got %v", err)
		}
	}

	withPath := unidentified
	withPath.FilePath = "/music/roller.flac"
	for range 2 {
		if _, err := f.svc.Import(ctx, []models.Track{withPath}); err != nil {
			t.Fatalf("import: %v", err)
		}
	}

	all, err := f.svc.Tracks(ctx)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("importing the same track twice stored %d tracks", len(all))
	}
}

func TestIntent(t *testing.T) {
	f := newFixture(t, nil)
	seedLibrary(t, f)

	report, err := f.svc.Intent(context.Background(), "2 hour liquid dnb, start mellow")
	if err != nil {
		t.Fatalf("intent: %v", err)
	}
	if report.TargetCount != 24 {
		t.Fatalf("target count = %d", report.TargetCount)
	}
	if report.Availability.Total != 18 || report.Availability.Matching == 0 {
		t.Fatalf("availability = %+v", report.Availability)
	}
	if !report.Reading.Arc.StartLow {
		t.Fatal("start mellow should start low")
	}
}
