package flowrec

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Observer receives run statistics, typically to export them as metrics.
type Observer interface {
	ObserveRun(lines int, elapsed time.Duration)
	ObserveLookup(found bool)
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports runs and lookups to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithSource replaces the recommender's random source.
func WithSource(src Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// Service runs batches of raw substance lines through extraction and
// recommendation.
type Service struct {
	table *ReferenceTable
	rec   *Recommender

	cfgMu sync.RWMutex
	cfg   Config

	source   Source
	observer Observer
	logger   *zap.Logger
}

// NewService constructs a service over an already loaded reference table.
func NewService(cfg Config, table *ReferenceTable, logger *zap.Logger, opts ...Option) (*Service, error) {
	if table == nil {
		return nil, errors.New("reference table is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		table:  table,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rec = NewRecommender(table, cfg, s.source)
	return s, nil
}

// Config returns the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig replaces the configuration. The reference table is not reloaded.
func (s *Service) UpdateConfig(cfg Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.rec.SetConfig(cfg)
	s.logger.Info("configuration updated", zap.String("variant", string(cfg.Variant)))
	return nil
}

// Table returns the reference table the service reads from.
func (s *Service) Table() *ReferenceTable {
	return s.table
}

// Run resolves every non-empty line. Each call is one batch: base samples are
// deduplicated within the call and never across calls.
func (s *Service) Run(lines []string) []ResultRow {
	start := time.Now()
	used := NewRegistry()
	rows := make([]ResultRow, 0, len(lines))
	misses := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key := Extract(line)
		before, after := s.rec.Recommend(key, used)
		row := ResultRow{Raw: line, Key: key, Before: before, After: after}
		if !row.Found() {
			misses++
			s.logger.Debug("no reference data", zap.String("raw", line), zap.String("key", key))
		}
		if s.observer != nil {
			s.observer.ObserveLookup(row.Found())
		}
		rows = append(rows, row)
	}
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveRun(len(rows), elapsed)
	}
	s.logger.Info("recommendation run finished",
		zap.Int("rows", len(rows)),
		zap.Int("misses", misses),
		zap.Duration("elapsed", elapsed))
	return rows
}

// ExtractAll resolves canonical keys without generating flows.
func (s *Service) ExtractAll(lines []string) []ResultRow {
	rows := make([]ResultRow, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, ResultRow{Raw: line, Key: Extract(line)})
	}
	return rows
}
