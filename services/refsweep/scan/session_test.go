// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/RefSweep/pkg/logging"
	"github.com/AleutianAI/RefSweep/services/refsweep/catalog"
	"github.com/AleutianAI/RefSweep/services/refsweep/object"
	"github.com/AleutianAI/RefSweep/services/refsweep/walker"
)

func write(t *testing.T, fs billy.Filesystem, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
}

func quietLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.New(logging.Config{Writer: io.Discard, Quiet: true})
}

// newTestSession wires a session over a memfs project exactly the way
// production wiring does: catalog -> live resolver -> index walker.
func newTestSession(t *testing.T, fs billy.Filesystem, opts ...SessionOption) *Session {
	t.Helper()
	cat := catalog.New(fs)
	w := walker.NewIndexWalker(catalog.NewLiveResolver(cat))
	opts = append([]SessionOption{WithLogger(quietLogger(t))}, opts...)
	return NewSession(cat, w, opts...)
}

// brokenProjectFS builds a project with three broken links: a composite
// under Models/Char with two and a plain item under Models with one.
func brokenProjectFS(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()

	write(t, fs, "Models/Char/char.graph.yaml", `
origin: authored
root:
  id: obj-char
  name: Char
  type: Character
  fields:
    mesh:
      $ref: obj-deleted-mesh
  children:
    - id: obj-hand
      name: Hand
      type: Limb
      fields:
        grip:
          $ref: obj-deleted-grip
`)
	write(t, fs, "Models/char_old.item.yaml", `
id: obj-char-old
name: char_old
type: Character
origin: authored
fields:
  skeleton:
    $ref: obj-deleted-skeleton
`)
	write(t, fs, "Models/clean.item.yaml", `
id: obj-clean
name: clean
origin: authored
`)
	return fs
}

func TestSession_Scan_BrokenProject(t *testing.T) {
	session := newTestSession(t, brokenProjectFS(t))

	stats, err := session.Scan()
	require.NoError(t, err)

	assert.Equal(t, Scanned, session.State())
	assert.NotEmpty(t, stats.ScanID)
	assert.Equal(t, 3, stats.ItemsVisited)
	assert.Equal(t, 0, stats.LoadFailures)
	assert.Equal(t, 2, stats.ResultsKept)
	assert.Equal(t, 3, stats.BrokenLinks)

	root := session.Root()
	assert.Equal(t, 2, root.Count())
	assert.Equal(t, 3, root.TotalFindings())

	models, ok := root.Subfolder("Models")
	require.True(t, ok)
	assert.Equal(t, 2, models.Count())
	require.Len(t, models.Assets(), 1)
	assert.Equal(t, "char_old", models.Assets()[0].DisplayName())
	assert.Equal(t, 1, models.Assets()[0].FindingCount())

	char, ok := models.Subfolder("Char")
	require.True(t, ok)
	assert.Equal(t, 1, char.Count())
	require.Len(t, char.Composites(), 1)

	comp := char.Composites()[0]
	assert.Equal(t, "char", comp.DisplayName())
	assert.Equal(t, 2, comp.FindingCount())
	require.Len(t, comp.PerNode(), 2)
	assert.Equal(t, "Char", comp.PerNode()[0].NodeName)
	assert.Equal(t, "Hand", comp.PerNode()[1].NodeName)
}

func TestSession_Scan_CleanProject(t *testing.T) {
	fs := memfs.New()
	write(t, fs, "Models/a.item.yaml", "id: obj-a\norigin: authored\n")
	write(t, fs, "Models/b.item.yaml", `
id: obj-b
origin: authored
fields:
  friend:
    $ref: obj-a
`)
	session := newTestSession(t, fs)

	stats, err := session.Scan()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ItemsVisited)
	assert.Equal(t, 0, stats.ResultsKept)
	assert.Equal(t, 0, stats.BrokenLinks)
	assert.Equal(t, 0, session.Root().Count())
	assert.Empty(t, session.Root().SubfolderNames())
	assert.Equal(t, Scanned, session.State())
}

func TestSession_Scan_EmptyProject(t *testing.T) {
	session := newTestSession(t, memfs.New())

	stats, err := session.Scan()
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ItemsVisited)
	assert.Equal(t, 0, session.Root().Count())
	assert.Equal(t, Scanned, session.State())
}

func TestSession_Scan_ExcludedOrigin(t *testing.T) {
	fs := memfs.New()
	write(t, fs, "Imports/pack.graph.yaml", `
origin: imported
root:
  id: obj-pack
  name: Pack
  fields:
    payload:
      $ref: obj-nowhere
`)
	write(t, fs, "Models/ref.item.yaml", `
id: obj-ref
origin: authored
fields:
  pack:
    $ref: obj-pack
`)

	t.Run("default policy skips imported composites", func(t *testing.T) {
		session := newTestSession(t, fs)

		stats, err := session.Scan()
		require.NoError(t, err)

		// The broken composite is skipped entirely, and a reference
		// INTO it still resolves: the index covers excluded items.
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 0, stats.ResultsKept)
		assert.Equal(t, 0, stats.BrokenLinks)
	})

	t.Run("custom policy scans them", func(t *testing.T) {
		session := newTestSession(t, fs, WithExcludedOrigins("vendored"))

		stats, err := session.Scan()
		require.NoError(t, err)

		assert.Equal(t, 0, stats.Skipped)
		assert.Equal(t, 1, stats.ResultsKept)
		assert.Equal(t, 1, stats.BrokenLinks)
	})
}

func TestSession_Scan_AbsorbsLoadFailures(t *testing.T) {
	fs := brokenProjectFS(t)
	write(t, fs, "Models/garbled.item.yaml", "{{{ not yaml")
	session := newTestSession(t, fs)

	stats, err := session.Scan()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.ItemsVisited)
	assert.Equal(t, 1, stats.LoadFailures)
	assert.Equal(t, 2, stats.ResultsKept)
	assert.Equal(t, Scanned, session.State())
}

func TestSession_Scan_EnumerationFailure(t *testing.T) {
	session := NewSession(failingStorage{}, walker.NewIndexWalker(nilResolver{}),
		WithLogger(quietLogger(t)))

	_, err := session.Scan()
	require.Error(t, err)
	assert.Equal(t, Unscanned, session.State())
	assert.Equal(t, 0, session.Root().Count())
}

func TestSession_Rescan_Idempotent(t *testing.T) {
	session := newTestSession(t, brokenProjectFS(t))

	first, err := session.Scan()
	require.NoError(t, err)
	second, err := session.Scan()
	require.NoError(t, err)

	assert.Equal(t, first.ItemsVisited, second.ItemsVisited)
	assert.Equal(t, first.ResultsKept, second.ResultsKept)
	assert.Equal(t, first.BrokenLinks, second.BrokenLinks)
	assert.NotEqual(t, first.ScanID, second.ScanID)

	root := session.Root()
	assert.Equal(t, 2, root.Count())
	models, ok := root.Subfolder("Models")
	require.True(t, ok)
	assert.Equal(t, 2, models.Count())
}

func TestSession_Rescan_SeesStorageChanges(t *testing.T) {
	fs := brokenProjectFS(t)
	session := newTestSession(t, fs)

	stats, err := session.Scan()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.BrokenLinks)

	// Restoring the missing skeleton repairs the plain item's link.
	write(t, fs, "Models/skeleton.item.yaml", "id: obj-deleted-skeleton\norigin: authored\n")

	stats, err = session.Scan()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BrokenLinks)
	assert.Equal(t, 1, stats.ResultsKept)

	models, ok := session.Root().Subfolder("Models")
	require.True(t, ok)
	assert.Empty(t, models.Assets())
}

func TestSession_Clear(t *testing.T) {
	session := newTestSession(t, brokenProjectFS(t))
	_, err := session.Scan()
	require.NoError(t, err)
	session.Root().SetVisibleRecursively(true)

	session.Clear()

	assert.Equal(t, Unscanned, session.State())
	assert.Equal(t, 0, session.Root().Count())
	assert.False(t, session.Root().Visible())
	assert.Equal(t, Stats{}, session.LastStats())

	// Idempotent, including before any scan.
	session.Clear()
	newTestSession(t, memfs.New()).Clear()
}

func TestSession_InitialState(t *testing.T) {
	session := newTestSession(t, memfs.New())

	assert.Equal(t, Unscanned, session.State())
	assert.NotNil(t, session.Root())
	assert.Equal(t, 0, session.Root().Count())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unscanned", Unscanned.String())
	assert.Equal(t, "scanning", Scanning.String())
	assert.Equal(t, "scanned", Scanned.String())
	assert.Equal(t, "unknown", State(42).String())
}

// failingStorage fails enumeration, simulating an unreadable root.
type failingStorage struct{}

func (failingStorage) ListItemPaths() ([]string, error) {
	return nil, assert.AnError
}

func (failingStorage) Load(string) (*object.Item, error) {
	return nil, assert.AnError
}

// nilResolver resolves nothing.
type nilResolver struct{}

func (nilResolver) HasObject(string) bool            { return false }
func (nilResolver) HasType(string) bool              { return false }
func (nilResolver) ObjectType(string) (string, bool) { return "", false }
func (nilResolver) MethodExists(string, string) bool { return false }
