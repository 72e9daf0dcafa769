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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openpoints-io/tally/api"
	"github.com/openpoints-io/tally/coordinator"
	"github.com/openpoints-io/tally/database"
)

// Tally is the redemption service. It owns the database, the redemption
// coordinator and the REST API listener.
type Tally struct {
	config       Config
	db           *database.Database
	coordinator  *coordinator.Coordinator
	api          *api.Api
	apiCancel    context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

func New(cfg Config) (*Tally, error) {
	t := &Tally{
		config: cfg,
		done:   make(chan struct{}),
	}
	return t, nil
}

// Database returns the underlying database instance
func (t *Tally) Database() *database.Database {
	return t.db
}

// Coordinator returns the redemption coordinator instance
func (t *Tally) Coordinator() *coordinator.Coordinator {
	return t.coordinator
}

func (t *Tally) Run(ctx context.Context) error {
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        t.config.dataDir,
		Logger:         t.config.logger,
		PromRegistry:   t.config.promRegistry,
		BlobPlugin:     t.config.blobPlugin,
		MetadataPlugin: t.config.metadataPlugin,
	})
	if err != nil {
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			// The two stores disagree about the last commit, which
			// means the data directory was partially restored or
			// corrupted. There is no automatic recovery for ledger
			// data, so refuse to start.
			return fmt.Errorf(
				"database stores are inconsistent, refusing to start: %w",
				err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	t.db = db
	// Create redemption coordinator
	t.coordinator = coordinator.NewCoordinator(
		coordinator.CoordinatorConfig{
			Database:     t.db,
			Logger:       t.config.logger,
			PromRegistry: t.config.promRegistry,
		},
	)
	// Start API listener
	apiCtx, apiCancel := context.WithCancel(ctx)
	t.apiCancel = apiCancel
	t.api = api.New(
		api.ApiConfig{
			ListenAddress: t.config.apiListenAddress,
		},
		t.coordinator,
		t.db,
		t.config.logger,
	)
	if err := t.api.Start(apiCtx); err != nil {
		apiCancel()
		return fmt.Errorf("failed to start API listener: %w", err)
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		return t.Stop()
	case <-t.done:
		return nil
	}
}

func (t *Tally) Stop() error {
	var err error
	t.shutdownOnce.Do(func() {
		err = t.shutdown()
	})
	return err
}

func (t *Tally) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if t.config.shutdownTimeout > 0 {
		shutdownTimeout = t.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	t.config.logger.Debug("starting graceful shutdown")

	// Stop accepting new requests
	if t.api != nil {
		if stopErr := t.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if t.apiCancel != nil {
		t.apiCancel()
	}

	// Flush and close storage
	if t.db != nil {
		if closeErr := t.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	t.config.logger.Debug("graceful shutdown complete")
	close(t.done)
	return err
}
