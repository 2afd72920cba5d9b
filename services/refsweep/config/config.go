// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads scanner policy from the project's refsweep.yaml.
//
// The exclusion rule for derived/imported composites is project
// policy, not a hardcoded list: projects tune which origins are
// skipped, which file suffixes map to which item kinds, and how the
// scanner logs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file name at the project root.
const DefaultFileName = "refsweep.yaml"

// Config is the scanner policy document.
type Config struct {
	// ExcludedOrigins lists composite origins skipped entirely
	// during scanning. Such composites are generated from an
	// external interchange format and cannot be usefully edited.
	ExcludedOrigins []string `yaml:"excluded_origins" validate:"omitempty,dive,min=1"`

	// ItemSuffixes maps file suffixes to plain items.
	ItemSuffixes []string `yaml:"item_suffixes" validate:"required,min=1,dive,startswith=."`

	// GraphSuffixes maps file suffixes to composite items.
	GraphSuffixes []string `yaml:"graph_suffixes" validate:"required,min=1,dive,startswith=."`

	// TypeSuffixes maps file suffixes to type registry entries.
	TypeSuffixes []string `yaml:"type_suffixes" validate:"required,min=1,dive,startswith=."`

	// Logging configures scanner log output.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures scanner log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir enables file logging when non-empty.
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the policy used when no file exists.
func DefaultConfig() Config {
	return Config{
		ExcludedOrigins: []string{"imported"},
		ItemSuffixes:    []string{".item.yaml"},
		GraphSuffixes:   []string{".graph.yaml"},
		TypeSuffixes:    []string{".type.yaml"},
		Logging:         LoggingConfig{Level: "info"},
	}
}

// Load reads and validates the config file at the given project root,
// creating the default file on first run.
func Load(projectRoot string) (Config, error) {
	path := filepath.Join(projectRoot, DefaultFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config against its struct constraints.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	return nil
}

// createDefault writes the default config for first runs.
func createDefault(path string) error {
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write default config %s: %w", path, err)
	}
	return nil
}
