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
	"testing"

	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/plugin/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(
	t *testing.T,
	name string,
	pointsRequired int64,
	quantity int64,
) *models.RewardItem {
	t.Helper()
	item, err := models.NewRewardItem(name, pointsRequired, quantity)
	require.NoError(t, err)
	return item
}

func TestSetGetItem(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Water Bottle", 150, 10)
	require.NoError(t, store.SetItem(item, nil))
	require.NotZero(t, item.ID, "database should assign an ID")

	ret, err := store.GetItem(item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Water Bottle", ret.Name)
	assert.Equal(t, int64(150), ret.PointsRequired)
	assert.Equal(t, int64(10), ret.Quantity)
}

func TestGetItemNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	_, err := store.GetItem(99999, nil)
	assert.ErrorIs(t, err, models.ErrItemNotFound)
}

func TestSetItemInvalid(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Freebie", 10, 1)
	item.PointsRequired = 0
	assert.ErrorIs(t, store.SetItem(item, nil), models.ErrInvalidItem)

	item = testItem(t, "Phantom", 10, 1)
	item.Quantity = -1
	assert.ErrorIs(t, store.SetItem(item, nil), models.ErrInvalidItem)
}

func TestDecrementItem(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Mug", 100, 2)
	require.NoError(t, store.SetItem(item, nil))

	ret, err := store.DecrementItem(item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ret.Quantity)

	ret, err = store.DecrementItem(item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ret.Quantity)

	// Exhausted stock never goes negative
	ret, err = store.DecrementItem(item.ID, nil)
	assert.ErrorIs(t, err, models.ErrOutOfStock)
	assert.Equal(t, int64(0), ret.Quantity)
}

func TestDecrementItemViaStoreInterface(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Sticker", 10, 1)
	require.NoError(t, store.SetItem(item, nil))

	// Callers reach the store through the MetadataStore interface, so the
	// decrement must return the updated item there as well
	var ms metadata.MetadataStore = store
	ret, err := ms.DecrementItem(item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ret.Quantity)
}

func TestDecrementItemNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	_, err := store.DecrementItem(12345, nil)
	assert.ErrorIs(t, err, models.ErrItemNotFound)
}

func TestDecrementItemWithTransaction(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Poster", 50, 1)
	require.NoError(t, store.SetItem(item, nil))

	txn := store.Transaction()
	ret, err := store.DecrementItem(item.ID, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ret.Quantity)
	require.NoError(t, txn.Rollback())

	// Stock restored after rollback
	ret, err = store.GetItem(item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ret.Quantity)
}

func TestListItems(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	for _, item := range []*models.RewardItem{
		testItem(t, "AAA", 100, 5),
		testItem(t, "BBB", 200, 3),
		testItem(t, "CCC", 300, 1),
	} {
		require.NoError(t, store.SetItem(item, nil))
	}

	items, err := store.ListItems(0, 0, false, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "AAA", items[0].Name)
	assert.Equal(t, "CCC", items[2].Name)

	items, err = store.ListItems(2, 1, false, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BBB", items[0].Name)
}

func TestDeleteItem(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	item := testItem(t, "Ephemeral", 10, 1)
	require.NoError(t, store.SetItem(item, nil))
	require.NoError(t, store.DeleteItem(item.ID, nil))

	_, err := store.GetItem(item.ID, nil)
	assert.ErrorIs(t, err, models.ErrItemNotFound)

	assert.ErrorIs(t, store.DeleteItem(item.ID, nil), models.ErrItemNotFound)
}
