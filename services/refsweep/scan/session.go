// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan orchestrates the reference-integrity scan pass.
//
// A Session owns the folder tree across scans. Scan runs to completion
// on the calling goroutine in one synchronous call: no chunking, no
// progress callbacks, no cancellation. A second scan cannot start
// while one is in flight because the synchronous call monopolizes the
// only goroutine able to issue it, so the session needs no locking.
//
// # Error Handling
//
// Individual item load failures are absorbed: they contribute zero
// findings and the scan continues. Unresolvable members are findings,
// not errors. Resource exhaustion on oversized projects is not caught
// here; callers must scope the scan to avoid it.
package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/RefSweep/pkg/logging"
	"github.com/AleutianAI/RefSweep/services/refsweep/object"
	"github.com/AleutianAI/RefSweep/services/refsweep/report"
	"github.com/AleutianAI/RefSweep/services/refsweep/walker"
)

// State is the session lifecycle state.
//
// Transitions: Unscanned -> Scanning -> Scanned -> Scanning -> ...
// There is no error state: per-item failures are absorbed, and a
// completed scan always yields either no findings or a fully navigable
// breakdown, never a partial result.
type State int

const (
	// Unscanned is the initial state: no results, present a prompt.
	Unscanned State = iota

	// Scanning is entered synchronously on Scan and has no externally
	// observable intermediate results.
	Scanning

	// Scanned is entered on completion; the tree is read-only.
	Scanned
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case Unscanned:
		return "unscanned"
	case Scanning:
		return "scanning"
	case Scanned:
		return "scanned"
	default:
		return "unknown"
	}
}

// Refreshable is satisfied by walkers whose resolution index can be
// rebuilt from current storage. The session refreshes such walkers at
// the start of every scan so rescans never resolve against a stale
// index.
type Refreshable interface {
	// Refresh rebuilds the walker's resolution index.
	Refresh() error
}

// Storage is the storage-index collaborator the session scans over.
// The catalog package provides the production implementation.
type Storage interface {
	// ListItemPaths returns project-relative paths of every
	// scannable item; external paths are already filtered.
	ListItemPaths() ([]string, error)

	// Load reads one item. Any error is treated by the session as
	// zero findings for the path, never as fatal.
	Load(path string) (*object.Item, error)
}

// Options configures Session behavior.
type Options struct {
	// ExcludedOrigins lists composite origins to skip entirely.
	// Composites generated from an external interchange format
	// cannot be usefully edited, so scanning them wastes attention.
	// The matching rule is project policy, not a hardcoded list.
	// Default: ["imported"]
	ExcludedOrigins []string

	// Logger receives per-item warnings and scan summaries.
	// Default: logging.Default()
	Logger *logging.Logger
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		ExcludedOrigins: []string{"imported"},
	}
}

// SessionOption is a functional option for configuring a Session.
type SessionOption func(*Options)

// WithExcludedOrigins overrides the composite exclusion policy.
func WithExcludedOrigins(origins ...string) SessionOption {
	return func(o *Options) {
		o.ExcludedOrigins = origins
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Stats summarizes one completed scan.
type Stats struct {
	// ScanID uniquely identifies the scan pass.
	ScanID string

	// ItemsVisited is the number of enumerated paths processed.
	ItemsVisited int

	// LoadFailures is the number of paths that failed to load.
	// Each contributed zero findings.
	LoadFailures int

	// Skipped is the number of composites excluded by origin policy.
	Skipped int

	// ResultsKept is the number of non-empty result containers
	// inserted into the tree. Equals the root folder count.
	ResultsKept int

	// BrokenLinks is the total number of broken references found.
	BrokenLinks int

	// DurationMilli is the wall-clock scan duration.
	DurationMilli int64
}

// Session is the scan orchestrator.
type Session struct {
	storage Storage
	walker  walker.Walker
	options Options

	state State
	root  *report.FolderNode
	stats Stats
}

// NewSession creates a session over the given storage and walker.
func NewSession(storage Storage, w walker.Walker, opts ...SessionOption) *Session {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logging.Default()
	}
	return &Session{
		storage: storage,
		walker:  w,
		options: options,
		state:   Unscanned,
		root:    report.NewFolderNode(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Root returns the aggregate tree. Empty until the first scan; valid
// for read-only traversal while Scanned.
func (s *Session) Root() *report.FolderNode {
	return s.root
}

// LastStats returns the stats of the most recent completed scan.
func (s *Session) LastStats() Stats {
	return s.stats
}

// Clear discards all results and returns to Unscanned. Idempotent.
func (s *Session) Clear() {
	s.root.Clear()
	s.stats = Stats{}
	s.state = Unscanned
}

// Scan rebuilds the folder tree from empty in one synchronous pass.
//
// # Description
//
// Clears prior results, enumerates every storage path, classifies and
// loads each item, runs the walker, and inserts every non-empty result
// into the aggregate tree keyed by the item's path. Finishes with a
// recursive sort so repeated scans over unchanged storage produce
// structurally equal trees.
//
// # Outputs
//
//   - Stats: Scan summary. Also retrievable via LastStats.
//   - error: Non-nil only when storage enumeration itself fails; the
//     session is left cleared in Unscanned.
func (s *Session) Scan() (Stats, error) {
	if s.state == Scanning {
		return Stats{}, fmt.Errorf("scan: already in flight")
	}

	s.Clear()
	s.state = Scanning
	start := time.Now()
	s.stats.ScanID = uuid.NewString()
	log := s.options.Logger.With("scan_id", s.stats.ScanID)

	// A rescan must resolve against current storage.
	if r, ok := s.walker.(Refreshable); ok {
		if err := r.Refresh(); err != nil {
			s.state = Unscanned
			log.Error("scan failed", "phase", "refresh", "error", err.Error())
			return Stats{}, fmt.Errorf("scan: refresh index: %w", err)
		}
	}

	paths, err := s.storage.ListItemPaths()
	if err != nil {
		s.state = Unscanned
		log.Error("scan failed", "phase", "enumerate", "error", err.Error())
		return Stats{}, fmt.Errorf("scan: %w", err)
	}

	for _, path := range paths {
		s.stats.ItemsVisited++

		item, err := s.storage.Load(path)
		if err != nil {
			// Deleted, corrupted, or unsupported: zero findings.
			s.stats.LoadFailures++
			log.Warn("item load failed", "path", path, "error", err.Error())
			continue
		}

		result := s.classify(item)
		if result == nil {
			continue
		}

		if err := s.root.Insert(result); err != nil {
			s.state = Unscanned
			return Stats{}, fmt.Errorf("scan: %w", err)
		}
		s.stats.ResultsKept++
		s.stats.BrokenLinks += result.FindingCount()
	}

	s.root.SortRecursively()
	s.stats.DurationMilli = time.Since(start).Milliseconds()
	s.state = Scanned

	log.Info("scan complete",
		"items_visited", s.stats.ItemsVisited,
		"load_failures", s.stats.LoadFailures,
		"skipped", s.stats.Skipped,
		"results_kept", s.stats.ResultsKept,
		"broken_links", s.stats.BrokenLinks,
		"duration_ms", s.stats.DurationMilli,
	)
	return s.stats, nil
}

// classify builds the appropriate result container for one item,
// returning nil when the item contributes nothing to the tree.
func (s *Session) classify(item *object.Item) report.Result {
	if item.Storage.Kind == object.KindComposite {
		if s.excluded(item.Origin) {
			s.stats.Skipped++
			return nil
		}
		result := report.NewCompositeResult(item, s.walker)
		if !result.HasFindings() {
			return nil
		}
		return result
	}

	result := report.NewAssetResult(item, s.walker)
	if !result.HasFindings() {
		return nil
	}
	return result
}

// excluded applies the composite origin exclusion policy.
func (s *Session) excluded(origin string) bool {
	for _, o := range s.options.ExcludedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}
