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

package sqlite

import (
	"fmt"

	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/types"
)

// AddRedemption appends a redemption record to the ledger. The record's ID
// is assigned by the database and populated on return.
func (d *MetadataStoreSqlite) AddRedemption(
	redemption *models.Redemption,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(redemption); result.Error != nil {
		return fmt.Errorf("add redemption: %w", result.Error)
	}
	return nil
}

// GetRedemptionsByParticipant returns a participant's redemption history in
// chronological order. Records with identical timestamps are ordered by
// insertion.
func (d *MetadataStoreSqlite) GetRedemptionsByParticipant(
	participantId string,
	limit int,
	offset int,
	txn types.Txn,
) ([]models.Redemption, error) {
	var ret []models.Redemption
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.
		Where("participant_id = ?", participantId).
		Order("redeemed_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("get redemptions: %w", result.Error)
	}
	return ret, nil
}

// CountRedemptionsByParticipant returns the number of ledger records for a
// participant
func (d *MetadataStoreSqlite) CountRedemptionsByParticipant(
	participantId string,
	txn types.Txn,
) (int64, error) {
	var count int64
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	result := db.Model(&models.Redemption{}).
		Where("participant_id = ?", participantId).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("count redemptions: %w", result.Error)
	}
	return count, nil
}
