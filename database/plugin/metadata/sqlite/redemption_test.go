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
	"time"

	"github.com/openpoints-io/tally/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRedemption(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	redemption := &models.Redemption{
		ParticipantID: "S5001",
		ItemName:      "Water Bottle",
		PointsUsed:    150,
		RedeemedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.AddRedemption(redemption, nil))
	assert.NotZero(t, redemption.ID, "database should assign record ID")

	records, err := store.GetRedemptionsByParticipant("S5001", 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Water Bottle", records[0].ItemName)
	assert.Equal(t, int64(150), records[0].PointsUsed)
}

func TestGetRedemptionsOrdering(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order, with two records sharing a
	// timestamp to exercise the insertion-order tie-break
	for _, r := range []*models.Redemption{
		{ParticipantID: "S5002", ItemName: "second", PointsUsed: 2, RedeemedAt: base.Add(time.Hour)},
		{ParticipantID: "S5002", ItemName: "first", PointsUsed: 1, RedeemedAt: base},
		{ParticipantID: "S5002", ItemName: "third", PointsUsed: 3, RedeemedAt: base.Add(time.Hour)},
	} {
		require.NoError(t, store.AddRedemption(r, nil))
	}

	records, err := store.GetRedemptionsByParticipant("S5002", 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].ItemName)
	assert.Equal(t, "second", records[1].ItemName)
	assert.Equal(t, "third", records[2].ItemName)
}

func TestGetRedemptionsEmpty(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	records, err := store.GetRedemptionsByParticipant("S5003", 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetRedemptionsPagination(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, store.AddRedemption(&models.Redemption{
			ParticipantID: "S5004",
			ItemName:      "Mug",
			PointsUsed:    int64(i + 1),
			RedeemedAt:    base.Add(time.Duration(i) * time.Minute),
		}, nil))
	}

	records, err := store.GetRedemptionsByParticipant("S5004", 2, 2, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(3), records[0].PointsUsed)
	assert.Equal(t, int64(4), records[1].PointsUsed)
}

func TestCountRedemptionsByParticipant(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	count, err := store.CountRedemptionsByParticipant("S5005", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	for range 3 {
		require.NoError(t, store.AddRedemption(&models.Redemption{
			ParticipantID: "S5005",
			ItemName:      "Sticker Pack",
			PointsUsed:    50,
			RedeemedAt:    time.Now().UTC(),
		}, nil))
	}

	count, err = store.CountRedemptionsByParticipant("S5005", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAddRedemptionWithTransaction(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	txn := store.Transaction()
	require.NoError(t, store.AddRedemption(&models.Redemption{
		ParticipantID: "S5006",
		ItemName:      "Poster",
		PointsUsed:    75,
		RedeemedAt:    time.Now().UTC(),
	}, txn))
	require.NoError(t, txn.Rollback())

	records, err := store.GetRedemptionsByParticipant("S5006", 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, records, "rolled-back redemption should not persist")
}
