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

func setupTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := NewWithOptions(
		WithDataDir(t.TempDir()),
	)
	require.NoError(t, err, "failed to create store")
	return store
}

func testParticipant(
	t *testing.T,
	id string,
	name string,
	balance int64,
) *models.Participant {
	t.Helper()
	participant, err := models.NewParticipant(id, name, balance)
	require.NoError(t, err)
	return participant
}

func TestSetGetParticipant(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	participant := testParticipant(t, "S1001", "Ada Lovelace", 500)
	participant.Diploma = "Mathematics"
	participant.YearOfEntry = 2024
	participant.Email = "ada@example.com"
	require.NoError(t, store.SetParticipant(participant, nil))

	ret, err := store.GetParticipant("S1001", nil)
	require.NoError(t, err)
	require.NotNil(t, ret)
	assert.Equal(t, "S1001", ret.ID)
	assert.Equal(t, "Ada Lovelace", ret.Name)
	assert.Equal(t, "Mathematics", ret.Diploma)
	assert.Equal(t, 2024, ret.YearOfEntry)
	assert.Equal(t, int64(500), ret.Balance)

	// Update via Save
	ret.Balance = 750
	require.NoError(t, store.SetParticipant(ret, nil))
	ret, err = store.GetParticipant("S1001", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(750), ret.Balance)
}

func TestGetParticipantNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	_, err := store.GetParticipant("nobody", nil)
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)
}

func TestSetParticipantNegativeBalance(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	participant := testParticipant(t, "S1002", "Broke", 0)
	participant.Balance = -1
	err := store.SetParticipant(participant, nil)
	assert.ErrorIs(t, err, models.ErrNegativeBalance)
}

func TestDebitParticipant(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S2001", "Grace", 300), nil),
	)

	newBalance, err := store.DebitParticipant("S2001", 200, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), newBalance)

	// Debit exactly the remaining balance
	newBalance, err = store.DebitParticipant("S2001", 100, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), newBalance)

	// Any further debit fails and leaves the balance untouched
	newBalance, err = store.DebitParticipant("S2001", 1, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	assert.Equal(t, int64(0), newBalance)
}

func TestDebitParticipantInsufficient(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S2002", "Short", 90), nil),
	)

	balance, err := store.DebitParticipant("S2002", 200, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	assert.Equal(t, int64(90), balance)

	// Balance unchanged after the failed debit
	ret, err := store.GetParticipant("S2002", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(90), ret.Balance)
}

func TestDebitParticipantNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	_, err := store.DebitParticipant("missing", 10, nil)
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)
}

func TestCreditParticipant(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S2003", "Earner", 10), nil),
	)

	newBalance, err := store.CreditParticipant("S2003", 40, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), newBalance)

	_, err = store.CreditParticipant("missing", 40, nil)
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)
}

func TestDebitParticipantWithTransaction(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S3001", "Txn", 500), nil),
	)

	// Debit within a transaction, then roll it back
	txn := store.Transaction()
	newBalance, err := store.DebitParticipant("S3001", 200, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(300), newBalance)
	require.NoError(t, txn.Rollback())

	// Balance restored after rollback
	ret, err := store.GetParticipant("S3001", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(500), ret.Balance)

	// Debit again and commit
	txn = store.Transaction()
	_, err = store.DebitParticipant("S3001", 200, txn)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	ret, err = store.GetParticipant("S3001", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(300), ret.Balance)
}

func TestListParticipants(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	for _, p := range []*models.Participant{
		testParticipant(t, "S3", "Charlie", 30),
		testParticipant(t, "S1", "Alice", 10),
		testParticipant(t, "S2", "Bob", 20),
	} {
		require.NoError(t, store.SetParticipant(p, nil))
	}

	participants, err := store.ListParticipants(0, 0, false, nil)
	require.NoError(t, err)
	require.Len(t, participants, 3)
	assert.Equal(t, "S1", participants[0].ID)
	assert.Equal(t, "S2", participants[1].ID)
	assert.Equal(t, "S3", participants[2].ID)

	// Pagination
	participants, err = store.ListParticipants(1, 1, false, nil)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "S2", participants[0].ID)

	// Reverse order
	participants, err = store.ListParticipants(0, 0, true, nil)
	require.NoError(t, err)
	require.Len(t, participants, 3)
	assert.Equal(t, "S3", participants[0].ID)
}

func TestSearchParticipants(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	for _, p := range []*models.Participant{
		testParticipant(t, "S100", "Ada Lovelace", 0),
		testParticipant(t, "S200", "Grace Hopper", 0),
		testParticipant(t, "S300", "Alan Turing", 0),
	} {
		require.NoError(t, store.SetParticipant(p, nil))
	}

	results, err := store.SearchParticipants("ada", 0, 0, false, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "S100", results[0].ID)

	// Matches against ID as well as name
	results, err = store.SearchParticipants("S2", 0, 0, false, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Grace Hopper", results[0].Name)

	results, err = store.SearchParticipants("zzz", 0, 0, false, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteParticipant(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S4001", "Gone", 0), nil),
	)
	require.NoError(t, store.DeleteParticipant("S4001", nil))

	_, err := store.GetParticipant("S4001", nil)
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)

	err = store.DeleteParticipant("S4001", nil)
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)
}

func TestDeleteParticipantWithHistory(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close() //nolint:errcheck

	require.NoError(
		t,
		store.SetParticipant(testParticipant(t, "S4002", "Keeper", 100), nil),
	)
	require.NoError(
		t,
		store.AddRedemption(&models.Redemption{
			ParticipantID: "S4002",
			ItemName:      "Sticker Pack",
			PointsUsed:    50,
			RedeemedAt:    time.Now().UTC(),
		}, nil),
	)

	err := store.DeleteParticipant("S4002", nil)
	assert.ErrorIs(t, err, models.ErrParticipantHasHistory)

	// Still present
	_, err = store.GetParticipant("S4002", nil)
	require.NoError(t, err)
}
