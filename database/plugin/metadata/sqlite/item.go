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

// GetItem gets a reward item by ID
func (d *MetadataStoreSqlite) GetItem(
	itemId uint,
	txn types.Txn,
) (*models.RewardItem, error) {
	ret := &models.RewardItem{}
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.First(ret, "id = ?", itemId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrItemNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetItem creates or updates a reward item record
func (d *MetadataStoreSqlite) SetItem(
	item *models.RewardItem,
	txn types.Txn,
) error {
	if item.PointsRequired <= 0 || item.Quantity < 0 {
		return models.ErrInvalidItem
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(item); result.Error != nil {
		return fmt.Errorf("save item: %w", result.Error)
	}
	return nil
}

// DeleteItem removes a reward item
func (d *MetadataStoreSqlite) DeleteItem(
	itemId uint,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", itemId).
		Delete(&models.RewardItem{})
	if result.Error != nil {
		return fmt.Errorf("delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrItemNotFound
	}
	return nil
}

// ListItems returns reward items ordered by ID with pagination
func (d *MetadataStoreSqlite) ListItems(
	limit int,
	offset int,
	reverse bool,
	txn types.Txn,
) ([]models.RewardItem, error) {
	var ret []models.RewardItem
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
		return nil, fmt.Errorf("list items: %w", result.Error)
	}
	return ret, nil
}

// DecrementItem atomically reduces an item's remaining quantity by one if
// and only if stock remains, and returns the updated item. A quantity below
// zero is never observable.
func (d *MetadataStoreSqlite) DecrementItem(
	itemId uint,
	txn types.Txn,
) (*models.RewardItem, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Model(&models.RewardItem{}).
		Where("id = ? AND quantity > 0", itemId).
		Update("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return nil, fmt.Errorf("decrement item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the item is missing or its stock is exhausted
		item, err := d.GetItem(itemId, txn)
		if err != nil {
			return nil, err
		}
		return item, models.ErrOutOfStock
	}
	return d.GetItem(itemId, txn)
}
