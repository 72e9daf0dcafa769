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
	"fmt"
	"sync"
	"time"

	"github.com/openpoints-io/tally/database/types"
)

// Txn coordinates a metadata transaction and a blob transaction as a single
// unit of work. On commit the blob side goes first, so a blob failure never
// leaves metadata committed without its receipt.
type Txn struct {
	db        *Database
	blob      types.Txn
	metadata  types.Txn
	mu        sync.Mutex
	finished  bool
	readWrite bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	t.openBlob()
	t.openMetadata()
	return t
}

// NewBlobOnlyTxn opens a transaction against the blob store only
func NewBlobOnlyTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	t.openBlob()
	return t
}

// NewMetadataOnlyTxn opens a transaction against the metadata store only
func NewMetadataOnlyTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	t.openMetadata()
	return t
}

func (t *Txn) openBlob() {
	if bs := t.db.Blob(); bs != nil {
		t.blob = bs.NewTransaction(t.readWrite)
	}
}

func (t *Txn) openMetadata() {
	ms := t.db.Metadata()
	if ms == nil {
		return
	}
	t.metadata = ms.Transaction()
	if t.metadata == nil {
		t.db.logger.Warn(
			"metadata transaction is nil; callers must nil-check txn.Metadata()",
		)
	}
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blob
}

// Do runs fn inside the transaction, committing on success and rolling back
// if fn returns an error
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				rbErr,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	if t.readWrite && t.blob == nil && t.metadata == nil {
		t.finished = true
		return types.ErrNoStoreAvailable
	}
	// Read-only transactions have nothing to commit, just release them
	if !t.readWrite {
		return t.rollback()
	}
	// Stamp both stores with the same commit timestamp so a torn write is
	// detectable at the next startup
	if t.blob != nil && t.metadata != nil {
		now := time.Now().UnixMilli()
		if err := t.db.updateCommitTimestamp(t, now); err != nil {
			_ = t.blob.Rollback()
			_ = t.metadata.Rollback()
			t.finished = true
			return fmt.Errorf("failed to update commit timestamp: %w", err)
		}
	}
	if t.blob != nil {
		if err := t.blob.Commit(); err != nil {
			if t.metadata != nil {
				_ = t.metadata.Rollback()
			}
			t.finished = true
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadata != nil {
		if err := t.metadata.Commit(); err != nil {
			t.db.logger.Error(
				"partial commit: blob committed, metadata failed",
				"error", err,
			)
			_ = t.metadata.Rollback()
			t.finished = true
			return fmt.Errorf(
				"partial commit: metadata commit failed after blob commit: %w",
				err,
			)
		}
	}
	t.finished = true
	return nil
}

func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	var errs []error
	if t.blob != nil {
		if err := t.blob.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("blob rollback: %w", err))
		}
	}
	if t.metadata != nil {
		if err := t.metadata.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	t.finished = true
	return errors.Join(errs...)
}

// Release rolls the transaction back if it has not already finished. Errors
// are logged rather than returned so it is safe to defer.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
