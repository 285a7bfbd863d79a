// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/unfreeze/internal/config"
)

func TestConfigCLI_InitValidateDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "unfreeze.yaml")
	var stdout, stderr bytes.Buffer

	require.Equal(t, 0, runConfigCLI([]string{"init", path}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), path)

	stdout.Reset()
	require.Equal(t, 0, runConfigCLI([]string{"validate", "-f", path}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "is valid")

	stdout.Reset()
	require.Equal(t, 0, runConfigCLI([]string{"dump", "--file", path}, &stdout, &stderr), stderr.String())
	var dumped config.AppConfig
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &dumped))
	assert.Equal(t, 6*time.Second, dumped.Freeze.UnfreezingSeekDelay)

	// init never overwrites
	stderr.Reset()
	assert.Equal(t, 1, runConfigCLI([]string{"init", path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "already exists")
}

func TestConfigCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("freeze:\n  bogus: 1\n"), 0o600))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"help", []string{"help"}, 0},
		{"unknown subcommand", []string{"frobnicate"}, 2},
		{"init without path", []string{"init"}, 2},
		{"init non-yaml", []string{"init", filepath.Join(dir, "c.json")}, 1},
		{"validate without file", []string{"validate"}, 2},
		{"validate unknown field", []string{"validate", "-f", bad}, 1},
		{"dump bad format", []string{"dump", "--format", "toml"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, runConfigCLI(tt.args, &stdout, &stderr))
		})
	}
}

func TestJanitorInterval(t *testing.T) {
	assert.Equal(t, time.Second, janitorInterval(time.Second))
	assert.Equal(t, 15*time.Second, janitorInterval(time.Minute))
	assert.Equal(t, 30*time.Second, janitorInterval(time.Hour))
}
