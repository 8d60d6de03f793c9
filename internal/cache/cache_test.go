package cache

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"gap report", GapReportKey("set-1", scoring.RiskSafe), "deepcrate:cache:gaps:set-1:safe"},
		{"plan", PlanKey("set-1"), "deepcrate:cache:plan:set-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	if c.IsAvailable() {
		t.Fatal("nil cache reported available")
	}
	if _, ok := c.GetGapReport(ctx, "s", scoring.RiskBalanced); ok {
		t.Fatal("nil cache hit")
	}
	if _, ok := c.GetPlan(ctx, "s"); ok {
		t.Fatal("nil cache hit")
	}
	if err := c.SetGapReport(ctx, &CachedGapReport{SetID: "s"}); err != nil {
		t.Fatalf("set on nil cache: %v", err)
	}
	if err := c.SetPlan(ctx, &CachedPlan{Set: models.SetPlan{ID: "s"}}); err != nil {
		t.Fatalf("set on nil cache: %v", err)
	}
	if err := c.InvalidateSet(ctx, "s"); err != nil {
		t.Fatalf("invalidate on nil cache: %v", err)
	}
	if err := c.FlushAll(ctx); err != nil {
		t.Fatalf("flush on nil cache: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close nil cache: %v", err)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	c := &Cache{logger: zerolog.Nop(), config: DefaultConfig(), disabled: true}

	if c.IsAvailable() {
		t.Fatal("disabled cache reported available")
	}
	if err := c.SetGapReport(ctx, &CachedGapReport{SetID: "s", RiskMode: scoring.RiskBold}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.GetGapReport(ctx, "s", scoring.RiskBold); ok {
		t.Fatal("disabled cache hit")
	}
}

func TestHandleErrorTripsBreaker(t *testing.T) {
	c := &Cache{logger: zerolog.Nop(), config: DefaultConfig()}
	c.handleError(context.DeadlineExceeded, "get")
	if !c.disabled {
		t.Fatal("breaker should open on error")
	}

	keep := &Cache{logger: zerolog.Nop(), config: Config{DisableOnError: false}}
	keep.handleError(context.DeadlineExceeded, "get")
	if keep.disabled {
		t.Fatal("breaker should stay closed when DisableOnError is false")
	}
}
