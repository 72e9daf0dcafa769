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
	"fmt"
	"iter"

	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/types"
)

// historyPageSize is the number of ledger rows fetched per query when
// iterating a participant's history
const historyPageSize = 100

// ReceiptBlobKey generates the blob store key for a redemption receipt
func ReceiptBlobKey(redemptionId uint) []byte {
	return fmt.Appendf(nil, "receipt_%d", redemptionId)
}

// AppendRedemption appends a redemption record to the ledger and writes the
// matching receipt blob. The record's ID and timestamp must already be set.
func (d *Database) AppendRedemption(
	redemption *models.Redemption,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	// Ledger row first so the database assigns the record ID
	if err := d.metadata.AddRedemption(redemption, txn.Metadata()); err != nil {
		return err
	}
	// Receipt blob keyed by the assigned ID
	blobTxn := txn.Blob()
	if blobTxn == nil {
		return types.ErrNilTxn
	}
	receipt, err := models.NewReceipt(redemption).Encode()
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	if err := d.blob.Set(blobTxn, ReceiptBlobKey(redemption.ID), receipt); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// GetReceipt returns the immutable receipt blob for a redemption record
func (d *Database) GetReceipt(
	redemptionId uint,
	txn *Txn,
) (*models.Receipt, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	val, err := d.blob.Get(txn.Blob(), ReceiptBlobKey(redemptionId))
	if err != nil {
		return nil, err
	}
	return models.DecodeReceipt(val)
}

// GetRedemptionsByParticipant returns one page of a participant's history
// in chronological order
func (d *Database) GetRedemptionsByParticipant(
	participantId string,
	limit int,
	offset int,
	txn *Txn,
) ([]models.Redemption, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetRedemptionsByParticipant(
		participantId,
		limit,
		offset,
		txn.Metadata(),
	)
}

// CountRedemptionsByParticipant returns the number of ledger records for a
// participant
func (d *Database) CountRedemptionsByParticipant(
	participantId string,
	txn *Txn,
) (int64, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.CountRedemptionsByParticipant(
		participantId,
		txn.Metadata(),
	)
}

// RedemptionsForParticipant returns a participant's full history as a lazy
// sequence in chronological order, ties broken by insertion order. Each
// range over the sequence runs fresh queries, so the sequence can be
// iterated more than once. Unknown participants yield an empty sequence.
func (d *Database) RedemptionsForParticipant(
	participantId string,
) iter.Seq2[models.Redemption, error] {
	return func(yield func(models.Redemption, error) bool) {
		offset := 0
		for {
			page, err := d.GetRedemptionsByParticipant(
				participantId,
				historyPageSize,
				offset,
				nil,
			)
			if err != nil {
				yield(models.Redemption{}, err)
				return
			}
			for _, redemption := range page {
				if !yield(redemption, nil) {
					return
				}
			}
			if len(page) < historyPageSize {
				return
			}
			offset += len(page)
		}
	}
}
