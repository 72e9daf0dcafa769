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

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/openpoints-io/tally/database/plugin"
	"github.com/openpoints-io/tally/database/plugin/blob"
	badgerplugin "github.com/openpoints-io/tally/database/plugin/blob/badger"
	"github.com/openpoints-io/tally/database/plugin/metadata"
	"github.com/openpoints-io/tally/database/plugin/metadata/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

// Config describes how to construct a Database. Empty plugin names select
// the built-in stores configured from DataDir, which is the path used by
// tests and embedded callers. Named plugins are configured through the
// plugin option system, with DataDir forwarded to their data-dir option.
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

// Database coordinates the metadata store holding balances, the reward
// catalog and the redemption ledger with the blob store holding immutable
// receipts.
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	dataDir  string
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	metadataErr := d.Metadata().Close()
	err = errors.Join(err, metadataErr)
	// Close blob
	blobErr := d.Blob().Close()
	err = errors.Join(err, blobErr)
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Make sure both stores agree on the last commit
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the
// provided data directory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var metadataDb metadata.MetadataStore
	var blobDb blob.BlobStore
	var err error
	if cfg.MetadataPlugin != "" {
		// Named plugins read their data-dir from plugin options
		if cfg.DataDir != "" {
			if err := plugin.SetPluginOption(
				plugin.PluginTypeMetadata,
				cfg.MetadataPlugin,
				"data-dir",
				cfg.DataDir,
			); err != nil {
				return nil, err
			}
		}
		metadataDb, err = metadata.New(cfg.MetadataPlugin)
	} else {
		metadataDb, err = sqlite.NewWithOptions(
			sqlite.WithDataDir(cfg.DataDir),
			sqlite.WithLogger(cfg.Logger),
			sqlite.WithPromRegistry(cfg.PromRegistry),
		)
	}
	if err != nil {
		return nil, err
	}
	if cfg.BlobPlugin != "" {
		if cfg.DataDir != "" {
			if err := plugin.SetPluginOption(
				plugin.PluginTypeBlob,
				cfg.BlobPlugin,
				"data-dir",
				cfg.DataDir,
			); err != nil {
				return nil, err
			}
		}
		blobDb, err = blob.New(cfg.BlobPlugin)
	} else {
		blobDb, err = badgerplugin.New(
			badgerplugin.WithDataDir(cfg.DataDir),
			badgerplugin.WithLogger(cfg.Logger),
			badgerplugin.WithPromRegistry(cfg.PromRegistry),
			// GC only makes sense for disk-backed value logs
			badgerplugin.WithGc(cfg.DataDir != ""),
		)
	}
	if err != nil {
		return nil, err
	}
	db := &Database{
		logger:   cfg.Logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
