package planner

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/sequencer"
)

func bound(v float64) *float64 { return &v }

func TestSearchTracks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)

	house, err := f.svc.SearchTracks(ctx, library.TrackFilter{BPMMin: bound(120), BPMMax: bound(130), Key: "8b"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(house) != 6 {
		t.Fatalf("expected 6 house tracks, got %d", len(house))
	}

	byArtist, err := f.svc.SearchTracks(ctx, library.TrackFilter{Query: "artist dnb03"})
	if err != nil || len(byArtist) != 1 || byArtist[0].ID != "dnb03" {
		t.Fatalf("query search: %+v %v", byArtist, err)
	}

	if _, err := f.svc.SearchTracks(ctx, library.TrackFilter{BPMMin: bound(175), BPMMax: bound(170)}); !errors.Is(err, sequencer.ErrInvalidInput) {
		t.Fatalf("inverted bpm range: %v", err)
	}
	if _, err := f.svc.SearchTracks(ctx, library.TrackFilter{EnergyMin: bound(0.9), EnergyMax: bound(0.1)}); !errors.Is(err, sequencer.ErrInvalidInput) {
		t.Fatalf("inverted energy range: %v", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	seedLibrary(t, f)

	stats, err := f.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Tracks != 18 || stats.TotalDuration != 18*300 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.BPM == nil || stats.BPM.Min != 124 || stats.BPM.Max != 174 {
		t.Fatalf("bpm range: %+v", stats.BPM)
	}
	if len(stats.TopKeys) == 0 || stats.TopKeys[0].Key != "8B" || stats.TopKeys[0].Count != 6 {
		t.Fatalf("top keys: %+v", stats.TopKeys)
	}
}

func TestSetDetailByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	plan := saveFiveTrackSet(t, f)

	detail, err := f.svc.SetDetailByName(ctx, "gappy")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Set.ID != plan.ID || len(detail.Tracks) != 5 || len(detail.Transitions) != 4 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	for _, tr := range detail.Transitions {
		if tr.Label == "" {
			t.Fatalf("transition %s->%s has no label", tr.FromID, tr.ToID)
		}
	}

	if _, err := f.svc.SetDetailByName(ctx, "nope"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("missing set: %v", err)
	}
}

func TestDeleteSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	plan := saveFiveTrackSet(t, f)
	deleted := f.bus.Subscribe(events.EventSetDeleted)

	if _, err := f.svc.AnalyzeGaps(ctx, plan.ID, ""); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	id, err := f.svc.DeleteSetByName(ctx, "gappy")
	if err != nil || id != plan.ID {
		t.Fatalf("delete by name: %s %v", id, err)
	}
	payload := <-deleted
	if payload["set_id"] != plan.ID {
		t.Fatalf("event payload %v", payload)
	}

	if _, err := f.svc.SetDetail(ctx, plan.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("deleted set still readable: %v", err)
	}
	if stored, _ := f.repo.Gaps(ctx, plan.ID); len(stored) != 0 {
		t.Fatalf("gaps survived delete: %+v", stored)
	}
	if sets, _ := f.svc.Sets(ctx); len(sets) != 0 {
		t.Fatalf("sets left: %+v", sets)
	}
	if all, _ := f.svc.Tracks(ctx); len(all) != 7 {
		t.Fatalf("delete should keep library tracks, got %d", len(all))
	}

	if err := f.svc.DeleteSet(ctx, plan.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := f.svc.DeleteSetByName(ctx, "gappy"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("delete unknown name: %v", err)
	}
}

func TestPlannerSpansCarrySetAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	ctx := context.Background()
	f := newFixture(t, nil)
	seedLibrary(t, f)

	res, err := f.svc.Plan(ctx, PlanRequest{Name: "traced", Description: "dnb", RiskMode: "bold"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := f.svc.AnalyzeGaps(ctx, res.Set.ID, "safe"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := map[string]string{"Plan": "bold", "AnalyzeGaps": "safe"}
	seen := 0
	for _, span := range recorder.Ended() {
		mode, ok := want[span.Name()]
		if !ok {
			continue
		}
		seen++
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range span.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if got := attrs["deepcrate.set_id"].AsString(); got != res.Set.ID {
			t.Errorf("%s: set id = %q", span.Name(), got)
		}
		if got := attrs["deepcrate.risk_mode"].AsString(); got != mode {
			t.Errorf("%s: risk mode = %q", span.Name(), got)
		}
	}
	if seen != 2 {
		t.Fatalf("expected Plan and AnalyzeGaps spans, saw %d", seen)
	}
}
