package flowrec

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// maxDraws bounds every redraw loop in the window policy.
const maxDraws = 10

// Source is the random source used for sample selection and perturbation.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// NewSource returns a seeded PCG source. A zero seed is replaced by the clock.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pinnedWindow fixes the draw window for substances whose flows are set by
// sampling practice rather than history.
type pinnedWindow struct {
	keys      []string
	all       []string
	low, high int64
}

func (w pinnedWindow) match(key string) bool {
	if slices.Contains(w.keys, key) {
		return true
	}
	if len(w.all) == 0 {
		return false
	}
	for _, p := range w.all {
		if !strings.Contains(key, p) {
			return false
		}
	}
	return true
}

var defaultPinnedWindows = []pinnedWindow{
	{keys: []string{"산화아연(분진)", "활석(석면불포함)", "활석", "석탄"}, low: 2201, high: 2260},
	{keys: []string{"산화아연(흄)"}, all: []string{"크롬", "수용성"}, low: 1500, high: 1585},
}

// Recommender turns a canonical key into a (before, after) flow pair.
type Recommender struct {
	table      *ReferenceTable
	variant    Variant
	deltaMin   int64
	deltaMax   int64
	halfWindow int64
	pinned     []pinnedWindow

	mu  sync.Mutex
	rng Source
}

// NewRecommender builds a recommender over table. A nil rng is replaced by
// NewSource(cfg.Seed).
func NewRecommender(table *ReferenceTable, cfg Config, rng Source) *Recommender {
	cfg.ApplyDefaults()
	if rng == nil {
		rng = NewSource(cfg.Seed)
	}
	r := &Recommender{
		table:  table,
		pinned: defaultPinnedWindows,
		rng:    rng,
	}
	r.configure(cfg)
	return r
}

func (r *Recommender) configure(cfg Config) {
	r.variant = cfg.Variant
	r.deltaMin = toMilli(cfg.Delta.Min)
	r.deltaMax = toMilli(cfg.Delta.Max)
	r.halfWindow = toMilli(cfg.HalfWindow)
	if r.deltaMin < 1 {
		r.deltaMin = 1
	}
	if r.deltaMax < r.deltaMin {
		r.deltaMax = r.deltaMin
	}
}

// SetConfig swaps the policy parameters. The table and random source are kept.
func (r *Recommender) SetConfig(cfg Config) {
	cfg.ApplyDefaults()
	r.mu.Lock()
	r.configure(cfg)
	r.mu.Unlock()
}

// Variant returns the active policy.
func (r *Recommender) Variant() Variant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variant
}

// Recommend returns the before and after flows for key, recording what it
// issued in used. Keys missing from the table yield two N/A flows without
// touching the random source.
func (r *Recommender) Recommend(key string, used *Registry) (before, after Flow) {
	samples, ok := r.table.samples[key]
	if !ok {
		return Flow{}, Flow{}
	}
	if used == nil {
		used = NewRegistry()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.variant == VariantSingleMean {
		return r.meanWindow(key, samples, used)
	}
	return r.perSample(key, samples, used)
}

func (r *Recommender) perSample(key string, samples []Flow, used *Registry) (Flow, Flow) {
	candidates := make([]Flow, 0, len(samples))
	for _, s := range samples {
		if !used.SampleUsed(key, s) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		candidates = samples
	}
	base := candidates[r.rng.IntN(len(candidates))]
	used.MarkSample(key, base)

	delta := r.drawDelta()
	before := base.Milli() + (delta+1)/2
	return separate(before, before-delta)
}

func (r *Recommender) meanWindow(key string, samples []Flow, used *Registry) (Flow, Flow) {
	mean := samples[0].Milli()
	low, high := mean-r.halfWindow, mean+r.halfWindow
	for _, w := range r.pinned {
		if w.match(key) {
			low, high = w.low, w.high
			break
		}
	}
	var before, after Flow
	for i := 0; i < maxDraws; i++ {
		before, after = r.drawWindowPair(low, high)
		if !used.PairUsed(key, before, after) {
			break
		}
	}
	used.MarkPair(key, before, after)
	return before, after
}

func (r *Recommender) drawWindowPair(low, high int64) (Flow, Flow) {
	before := low + r.floorDraw(high-low)
	after := before
	for i := 0; i < maxDraws; i++ {
		cand := low + r.floorDraw(before-low)
		if gap := before - cand; gap > 0 && gap <= r.deltaMax {
			after = cand
			break
		}
	}
	return separate(before, after)
}

// drawDelta returns a delta in thousandths, uniform over the configured bounds
// and rounded to the nearest thousandth.
func (r *Recommender) drawDelta() int64 {
	span := r.deltaMax - r.deltaMin
	if span <= 0 {
		return r.deltaMin
	}
	return r.deltaMin + int64(math.Round(r.rng.Float64()*float64(span)))
}

// floorDraw truncates a uniform draw over [0, n) to whole thousandths.
func (r *Recommender) floorDraw(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return int64(math.Floor(r.rng.Float64() * float64(n)))
}

// separate keeps the pair distinct by nudging before up one thousandth.
func separate(before, after int64) (Flow, Flow) {
	if before == after {
		before++
	}
	return FlowFromMilli(before), FlowFromMilli(after)
}

func toMilli(v float64) int64 {
	return int64(math.Round(v * 1000))
}
