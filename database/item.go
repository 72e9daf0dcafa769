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
	"github.com/openpoints-io/tally/database/models"
)

// GetItem returns a reward item by ID
func (d *Database) GetItem(
	itemId uint,
	txn *Txn,
) (*models.RewardItem, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.GetItem(itemId, txn.Metadata())
}

// SetItem creates or updates a reward item
func (d *Database) SetItem(
	item *models.RewardItem,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetItem(item, txn.Metadata()); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// DeleteItem removes a reward item from the catalog
func (d *Database) DeleteItem(
	itemId uint,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.DeleteItem(itemId, txn.Metadata()); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// ListItems returns the reward catalog ordered by ID
func (d *Database) ListItems(
	limit int,
	offset int,
	reverse bool,
	txn *Txn,
) ([]models.RewardItem, error) {
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, false)
		defer txn.Commit() //nolint:errcheck
	}
	return d.metadata.ListItems(limit, offset, reverse, txn.Metadata())
}

// GetQuantity returns the remaining stock for a reward item
func (d *Database) GetQuantity(
	itemId uint,
	txn *Txn,
) (int64, error) {
	item, err := d.GetItem(itemId, txn)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// Decrement reduces an item's remaining stock by one and returns the
// updated item. Fails with models.ErrOutOfStock when no stock remains,
// leaving the quantity untouched.
func (d *Database) Decrement(
	itemId uint,
	txn *Txn,
) (*models.RewardItem, error) {
	owned := false
	if txn == nil {
		txn = NewMetadataOnlyTxn(d, true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	item, err := d.metadata.DecrementItem(itemId, txn.Metadata())
	if err != nil {
		return item, err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return nil, err
		}
	}
	return item, nil
}
