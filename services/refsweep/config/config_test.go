// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunCreatesDefault(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)

	// The file materialized and loads identically next time.
	_, err = os.Stat(filepath.Join(root, DefaultFileName))
	require.NoError(t, err)

	again, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	root := t.TempDir()
	content := `
excluded_origins:
  - imported
  - vendored
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"imported", "vendored"}, cfg.ExcludedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unmentioned keys keep their defaults.
	assert.Equal(t, []string{".item.yaml"}, cfg.ItemSuffixes)
	assert.Equal(t, []string{".graph.yaml"}, cfg.GraphSuffixes)
}

func TestLoad_EmptyExclusionListIsValid(t *testing.T) {
	root := t.TempDir()
	content := "excluded_origins: []\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Empty(t, cfg.ExcludedOrigins)
}

func TestLoad_MalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte("{{{ nope"), 0o644))

	_, err := Load(root)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"suffix without dot", "item_suffixes: [item.yaml]\n"},
		{"empty suffix list", "graph_suffixes: []\n"},
		{"unknown log level", "logging:\n  level: loud\n"},
		{"empty excluded origin", "excluded_origins: [\"\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte(tt.content), 0o644))

			_, err := Load(root)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}
