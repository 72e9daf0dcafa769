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
	"errors"
	"fmt"

	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/types"
	"gorm.io/gorm"
)

// GetParticipant gets a participant by ID
func (d *MetadataStoreSqlite) GetParticipant(
	participantId string,
	txn types.Txn,
) (*models.Participant, error) {
	ret := &models.Participant{}
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.First(ret, "id = ?", participantId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrParticipantNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetParticipant creates or updates a participant record
func (d *MetadataStoreSqlite) SetParticipant(
	participant *models.Participant,
	txn types.Txn,
) error {
	if participant.Balance < 0 {
		return models.ErrNegativeBalance
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(participant); result.Error != nil {
		return fmt.Errorf("save participant: %w", result.Error)
	}
	return nil
}

// DeleteParticipant removes a participant. Participants with redemption
// history are never deleted, since ledger records reference them.
func (d *MetadataStoreSqlite) DeleteParticipant(
	participantId string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	historyCount, err := d.CountRedemptionsByParticipant(participantId, txn)
	if err != nil {
		return err
	}
	if historyCount > 0 {
		return models.ErrParticipantHasHistory
	}
	result := db.Where("id = ?", participantId).
		Delete(&models.Participant{})
	if result.Error != nil {
		return fmt.Errorf("delete participant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrParticipantNotFound
	}
	return nil
}

// ListParticipants returns participants ordered by ID with pagination
func (d *MetadataStoreSqlite) ListParticipants(
	limit int,
	offset int,
	reverse bool,
	txn types.Txn,
) ([]models.Participant, error) {
	var ret []models.Participant
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order(idOrder(reverse))
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("list participants: %w", result.Error)
	}
	return ret, nil
}

// SearchParticipants returns participants whose ID or name contains the
// query string, case-insensitive
func (d *MetadataStoreSqlite) SearchParticipants(
	query string,
	limit int,
	offset int,
	reverse bool,
	txn types.Txn,
) ([]models.Participant, error) {
	var ret []models.Participant
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	pattern := "%" + query + "%"
	q := db.
		Where("id LIKE ? COLLATE NOCASE OR name LIKE ? COLLATE NOCASE",
			pattern, pattern).
		Order(idOrder(reverse))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if result := q.Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("search participants: %w", result.Error)
	}
	return ret, nil
}

// CreditParticipant atomically adds points to a participant's balance and
// returns the new balance. Used by external adjustment operations, never by
// the redemption path.
func (d *MetadataStoreSqlite) CreditParticipant(
	participantId string,
	amount int64,
	txn types.Txn,
) (int64, error) {
	if amount < 0 {
		return 0, errors.New("credit amount cannot be negative")
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	result := db.Model(&models.Participant{}).
		Where("id = ?", participantId).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("credit participant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, models.ErrParticipantNotFound
	}
	participant, err := d.GetParticipant(participantId, txn)
	if err != nil {
		return 0, err
	}
	return participant.Balance, nil
}

// DebitParticipant atomically subtracts points from a participant's balance
// if and only if the current balance covers the amount, and returns the new
// balance. A balance below zero is never observable.
func (d *MetadataStoreSqlite) DebitParticipant(
	participantId string,
	amount int64,
	txn types.Txn,
) (int64, error) {
	if amount < 0 {
		return 0, errors.New("debit amount cannot be negative")
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	result := db.Model(&models.Participant{}).
		Where("id = ? AND balance >= ?", participantId, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("debit participant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Conditional update matched nothing, so either the participant is
		// missing or the balance is short. Re-read to tell them apart.
		participant, err := d.GetParticipant(participantId, txn)
		if err != nil {
			return 0, err
		}
		return participant.Balance, models.ErrInsufficientBalance
	}
	participant, err := d.GetParticipant(participantId, txn)
	if err != nil {
		return 0, err
	}
	return participant.Balance, nil
}
