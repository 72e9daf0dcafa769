// Copyright 2026 OpenPoints Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tally

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	// Default logger discards output but is never nil
	assert.NotNil(t, cfg.logger)
	assert.Empty(t, cfg.dataDir)
	assert.Empty(t, cfg.blobPlugin)
	assert.Empty(t, cfg.metadataPlugin)
	assert.Empty(t, cfg.apiListenAddress)
	assert.Zero(t, cfg.shutdownTimeout)
}

func TestNewConfigOptions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	registry := prometheus.NewRegistry()
	cfg := NewConfig(
		WithLogger(logger),
		WithDataDir("/tmp/tally-test"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("sqlite"),
		WithApiListenAddress(":9999"),
		WithPrometheusRegistry(registry),
		WithShutdownTimeout(5*time.Second),
	)

	assert.Equal(t, logger, cfg.logger)
	assert.Equal(t, "/tmp/tally-test", cfg.dataDir)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "sqlite", cfg.metadataPlugin)
	assert.Equal(t, ":9999", cfg.apiListenAddress)
	assert.Equal(t, prometheus.Registerer(registry), cfg.promRegistry)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
}
