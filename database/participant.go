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

	"github.com/openpoints-io/tally/database/models"
)

// GetParticipant returns a participant by ID
func (d *Database) GetParticipant(
	participantId string,
	txn *Txn,
) (*models.Participant, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetParticipant(participantId, txn.Metadata())
}

// SetParticipant creates or updates a participant
func (d *Database) SetParticipant(
	participant *models.Participant,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetParticipant(participant, txn.Metadata()); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// CreateParticipant inserts a new participant, failing with
// models.ErrParticipantExists when the ID is already taken. The existence
// check and the insert share one write transaction, so concurrent creates
// of the same ID cannot overwrite each other.
func (d *Database) CreateParticipant(
	participant *models.Participant,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	_, err := d.metadata.GetParticipant(participant.ID, txn.Metadata())
	if err == nil {
		return models.ErrParticipantExists
	}
	if !errors.Is(err, models.ErrParticipantNotFound) {
		return err
	}
	if err := d.metadata.SetParticipant(participant, txn.Metadata()); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// DeleteParticipant removes a participant without ledger history
func (d *Database) DeleteParticipant(
	participantId string,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.DeleteParticipant(participantId, txn.Metadata()); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// ListParticipants returns participants ordered by ID
func (d *Database) ListParticipants(
	limit int,
	offset int,
	reverse bool,
	txn *Txn,
) ([]models.Participant, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.ListParticipants(limit, offset, reverse, txn.Metadata())
}

// SearchParticipants returns participants matching the query by ID or name
func (d *Database) SearchParticipants(
	query string,
	limit int,
	offset int,
	reverse bool,
	txn *Txn,
) ([]models.Participant, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.SearchParticipants(
		query,
		limit,
		offset,
		reverse,
		txn.Metadata(),
	)
}

// GetBalance returns a participant's current point balance
func (d *Database) GetBalance(
	participantId string,
	txn *Txn,
) (int64, error) {
	participant, err := d.GetParticipant(participantId, txn)
	if err != nil {
		return 0, err
	}
	return participant.Balance, nil
}

// Credit adds points to a participant's balance and returns the new balance
func (d *Database) Credit(
	participantId string,
	amount int64,
	txn *Txn,
) (int64, error) {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	balance, err := d.metadata.CreditParticipant(
		participantId,
		amount,
		txn.Metadata(),
	)
	if err != nil {
		return balance, err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return 0, err
		}
	}
	return balance, nil
}

// Debit subtracts points from a participant's balance and returns the new
// balance. Fails with models.ErrInsufficientBalance when the balance does
// not cover the amount, leaving the balance untouched.
func (d *Database) Debit(
	participantId string,
	amount int64,
	txn *Txn,
) (int64, error) {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	balance, err := d.metadata.DebitParticipant(
		participantId,
		amount,
		txn.Metadata(),
	)
	if err != nil {
		return balance, err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return 0, err
		}
	}
	return balance, nil
}
