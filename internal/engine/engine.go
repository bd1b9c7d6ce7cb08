// Package engine implements the suspicious-pair detection engine: a
// spatial broad-phase search over projected coordinates, exact
// great-circle re-verification, a name containment gate, and a
// deterministic multi-pass merge with canonical-key deduplication.
package engine

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/shop-dedupe/internal/model"
)

// Defaults used when Config fields are left zero.
const (
	DefaultDistanceThresholdKm = 0.10
	DefaultMinNameLength       = 3
)

// Config holds the detection parameters. It is supplied at construction
// and never re-read mid-run.
type Config struct {
	DistanceThresholdKm float64
	MinNameLength       int
	Mode                model.Mode
}

func (c Config) withDefaults() Config {
	if c.DistanceThresholdKm <= 0 {
		c.DistanceThresholdKm = DefaultDistanceThresholdKm
	}
	if c.MinNameLength <= 0 {
		c.MinNameLength = DefaultMinNameLength
	}
	if c.Mode == "" {
		c.Mode = model.ModeAll
	}
	return c
}

// Warning reports a pass that was degraded to zero candidates, e.g. an
// index build failure. Warnings never abort a run.
type Warning struct {
	Pass    model.ComparisonType `json:"pass"`
	Message string               `json:"message"`
}

// Result is the outcome of a detection run.
type Result struct {
	Pairs     []model.CandidatePair `json:"pairs"`
	Warnings  []Warning             `json:"warnings,omitempty"`
	Secured   int                   `json:"secured"`
	Unsecured int                   `json:"unsecured"`
}

// Engine runs suspicious-pair detection over a validated record set.
type Engine struct {
	cfg Config
}

// New creates an Engine, applying defaults for zero config fields.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Partition splits records into secured (non-blank prospect code) and
// unsecured sets, preserving input order within each.
func Partition(records []model.ShopRecord) (secured, unsecured []model.ShopRecord) {
	for _, r := range records {
		if r.IsSecured() {
			secured = append(secured, r)
		} else {
			unsecured = append(unsecured, r)
		}
	}
	return secured, unsecured
}

// pass order is fixed: secured-self, cross, unsecured-self. When a key
// could surface from two passes, the copy from the earlier slot wins,
// regardless of which pass finishes first.
type passSlot struct {
	label model.ComparisonType
	self  bool
}

var passOrder = [3]passSlot{
	{label: model.ComparisonSecuredSecured, self: true},
	{label: model.ComparisonUnsecuredSecured, self: false},
	{label: model.ComparisonUnsecuredUnsecured, self: true},
}

// Run executes the selected passes, merges their output and returns the
// deduplicated pair list ordered by ascending distance. Per-pass index
// failures degrade that pass to zero candidates and surface as
// warnings; the only returned error is context cancellation.
func (e *Engine) Run(ctx context.Context, records []model.ShopRecord) (*Result, error) {
	secured, unsecured := Partition(records)
	zap.L().Debug("engine: records classified",
		zap.Int("secured", len(secured)),
		zap.Int("unsecured", len(unsecured)),
	)

	inputs := [3]struct{ primary, secondary []model.ShopRecord }{
		{secured, secured},
		{unsecured, secured},
		{unsecured, unsecured},
	}
	enabled := [3]bool{
		e.cfg.Mode.RunsSecuredSelf(),
		e.cfg.Mode.RunsCross(),
		e.cfg.Mode.RunsUnsecuredSelf(),
	}

	// Passes share no mutable state: each writes only its own slot, so
	// the merge below is deterministic regardless of scheduling.
	var passPairs [3][]model.CandidatePair
	var passWarnings [3]*Warning

	g, gCtx := errgroup.WithContext(ctx)
	for slot, spec := range passOrder {
		if !enabled[slot] {
			continue
		}
		in := inputs[slot]
		g.Go(func() error {
			pairs, err := e.runPass(gCtx, in.primary, in.secondary, spec.label, spec.self)
			if err != nil {
				if gCtx.Err() != nil {
					return err
				}
				zap.L().Warn("engine: pass degraded to zero candidates",
					zap.String("pass", string(spec.label)),
					zap.Error(err),
				)
				passWarnings[slot] = &Warning{Pass: spec.label, Message: err.Error()}
				return nil
			}
			passPairs[slot] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: run")
	}

	res := &Result{
		Pairs:     mergePasses(passPairs),
		Secured:   len(secured),
		Unsecured: len(unsecured),
	}
	for _, w := range passWarnings {
		if w != nil {
			res.Warnings = append(res.Warnings, *w)
		}
	}
	return res, nil
}

// mergePasses concatenates pass outputs in fixed pass order, drops any
// pair whose canonical key was already kept, and stable-sorts by
// distance so ties keep pass-then-discovery order.
func mergePasses(passPairs [3][]model.CandidatePair) []model.CandidatePair {
	seen := make(map[string]struct{})
	var merged []model.CandidatePair
	for _, pairs := range passPairs {
		for _, p := range pairs {
			key := p.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DistanceKm < merged[j].DistanceKm
	})
	return merged
}
