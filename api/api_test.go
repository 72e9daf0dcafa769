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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/openpoints-io/tally/coordinator"
	"github.com/openpoints-io/tally/database"
	"github.com/openpoints-io/tally/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setupApi(t *testing.T) (*Api, *database.Database) {
	t.Helper()
	db, err := database.New(&database.Config{
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	c := coordinator.NewCoordinator(coordinator.CoordinatorConfig{
		Database:     db,
		PromRegistry: prometheus.NewRegistry(),
	})
	a := New(
		ApiConfig{
			ListenAddress: ":0",
		},
		c,
		db,
		nil,
	)
	return a, db
}

func addTestParticipant(
	t *testing.T,
	db *database.Database,
	id string,
	name string,
	balance int64,
) {
	t.Helper()
	participant, err := models.NewParticipant(id, name, balance)
	require.NoError(t, err)
	require.NoError(t, db.SetParticipant(participant, nil))
}

func addTestItem(
	t *testing.T,
	db *database.Database,
	name string,
	points int64,
	quantity int64,
) uint {
	t.Helper()
	item, err := models.NewRewardItem(name, points, quantity)
	require.NoError(t, err)
	require.NoError(t, db.SetItem(item, nil))
	return item.ID
}

func TestStartStop(t *testing.T) {
	a, _ := setupApi(t)

	err := a.Start(t.Context())
	require.NoError(t, err)

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartStopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Self-contained setup so every resource is closed before the leak check
	db, err := database.New(&database.Config{
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	c := coordinator.NewCoordinator(coordinator.CoordinatorConfig{
		Database:     db,
		PromRegistry: prometheus.NewRegistry(),
	})
	a := New(
		ApiConfig{
			ListenAddress: ":0",
		},
		c,
		db,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))
	cancel()

	require.NoError(t, db.Close())
}

func TestStartAlreadyStarted(t *testing.T) {
	a, _ := setupApi(t)

	ctx := t.Context()
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	err = a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHandleRoot(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet, "/", nil,
	)
	w := httptest.NewRecorder()
	a.handleRoot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		"application/json",
		w.Header().Get("Content-Type"),
	)

	var resp RootResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "tally", resp.Service)
	assert.NotEmpty(t, resp.Version)
}

func TestHandleHealth(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet, "/health", nil,
	)
	w := httptest.NewRecorder()
	a.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsHealthy)
}

func TestHandleRedeem(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 500)
	itemId := addTestItem(t, db, "Sticker Pack", 200, 3)

	body, err := json.Marshal(RedeemRequest{
		ParticipantID: "AA123456",
		ItemID:        itemId,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/redeem",
		strings.NewReader(string(body)),
	)
	w := httptest.NewRecorder()
	a.handleRedeem(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp RedeemResponse
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Sticker Pack", resp.ItemName)
	assert.Equal(t, int64(200), resp.PointsUsed)
	assert.Equal(t, int64(300), resp.NewBalance)
	assert.NotZero(t, resp.RedemptionID)
}

func TestHandleRedeemErrors(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 100)
	stockedId := addTestItem(t, db, "Sticker Pack", 200, 3)
	emptyId := addTestItem(t, db, "Hoodie", 50, 0)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name: "insufficient funds",
			body: `{"participant_id":"AA123456","item_id":` +
				strconv.FormatUint(uint64(stockedId), 10) + `}`,
			expectedStatus: http.StatusPaymentRequired,
		},
		{
			name: "out of stock",
			body: `{"participant_id":"AA123456","item_id":` +
				strconv.FormatUint(uint64(emptyId), 10) + `}`,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown participant",
			body:           `{"participant_id":"ZZ999999","item_id":1}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unknown item",
			body:           `{"participant_id":"AA123456","item_id":999}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid body",
			body:           `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/api/v1/redeem",
				strings.NewReader(test.body),
			)
			w := httptest.NewRecorder()
			a.handleRedeem(w, req)

			assert.Equal(t, test.expectedStatus, w.Code)

			var resp ErrorResponse
			err := json.NewDecoder(w.Body).Decode(&resp)
			require.NoError(t, err)
			assert.Equal(t, test.expectedStatus, resp.StatusCode)
		})
	}
}

func TestHandleCreateParticipant(t *testing.T) {
	a, _ := setupApi(t)

	body := `{"id":"AA123456","name":"Alice","balance":100,"email":"alice@example.com"}`
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/participants",
		strings.NewReader(body),
	)
	w := httptest.NewRecorder()
	a.handleCreateParticipant(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp ParticipantResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "AA123456", resp.ID)
	assert.Equal(t, "Alice", resp.Name)
	assert.Equal(t, int64(100), resp.Balance)
	assert.Equal(t, "alice@example.com", resp.Email)

	// Creating the same participant again conflicts
	req = httptest.NewRequest(
		http.MethodPost,
		"/api/v1/participants",
		strings.NewReader(body),
	)
	w = httptest.NewRecorder()
	a.handleCreateParticipant(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleCreateParticipantInvalid(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/participants",
		strings.NewReader(`{"id":"AA123456","name":"Alice","balance":-5}`),
	)
	w := httptest.NewRecorder()
	a.handleCreateParticipant(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetParticipant(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 250)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants/AA123456",
		nil,
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleGetParticipant(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ParticipantResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Name)
	assert.Equal(t, int64(250), resp.Balance)
}

func TestHandleGetParticipantNotFound(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants/ZZ999999",
		nil,
	)
	req.SetPathValue("id", "ZZ999999")
	w := httptest.NewRecorder()
	a.handleGetParticipant(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateParticipant(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 250)

	req := httptest.NewRequest(
		http.MethodPut,
		"/api/v1/participants/AA123456",
		strings.NewReader(`{"name":"Alice B","diploma":"MSc","balance":9999}`),
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleUpdateParticipant(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ParticipantResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", resp.Name)
	assert.Equal(t, "MSc", resp.Diploma)
	// Updates never touch the balance
	assert.Equal(t, int64(250), resp.Balance)
}

func TestHandleDeleteParticipant(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 250)

	req := httptest.NewRequest(
		http.MethodDelete,
		"/api/v1/participants/AA123456",
		nil,
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleDeleteParticipant(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Second delete reports not found
	w = httptest.NewRecorder()
	a.handleDeleteParticipant(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteParticipantWithHistory(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 500)
	itemId := addTestItem(t, db, "Sticker Pack", 100, 5)
	_, err := a.coordinator.Redeem(t.Context(), "AA123456", itemId)
	require.NoError(t, err)

	req := httptest.NewRequest(
		http.MethodDelete,
		"/api/v1/participants/AA123456",
		nil,
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleDeleteParticipant(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleCreditParticipant(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 100)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/participants/AA123456/credit",
		strings.NewReader(`{"amount":150}`),
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleCreditParticipant(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp BalanceResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, int64(250), resp.Balance)
}

func TestHandleCreditParticipantInvalidAmount(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 100)

	for _, body := range []string{`{"amount":0}`, `{"amount":-10}`} {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/v1/participants/AA123456/credit",
			strings.NewReader(body),
		)
		req.SetPathValue("id", "AA123456")
		w := httptest.NewRecorder()
		a.handleCreditParticipant(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestHandleGetBalance(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 420)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants/AA123456/balance",
		nil,
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleGetBalance(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp BalanceResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "AA123456", resp.ParticipantID)
	assert.Equal(t, int64(420), resp.Balance)
}

func TestHandleGetHistory(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 500)
	firstId := addTestItem(t, db, "Sticker Pack", 100, 5)
	secondId := addTestItem(t, db, "Hoodie", 200, 5)
	_, err := a.coordinator.Redeem(t.Context(), "AA123456", firstId)
	require.NoError(t, err)
	_, err = a.coordinator.Redeem(t.Context(), "AA123456", secondId)
	require.NoError(t, err)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants/AA123456/history",
		nil,
	)
	req.SetPathValue("id", "AA123456")
	w := httptest.NewRecorder()
	a.handleGetHistory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []HistoryEntry
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "Sticker Pack", resp[0].ItemName)
	assert.Equal(t, "Hoodie", resp[1].ItemName)
}

func TestHandleGetHistoryUnknownParticipant(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants/ZZ999999/history",
		nil,
	)
	req.SetPathValue("id", "ZZ999999")
	w := httptest.NewRecorder()
	a.handleGetHistory(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListParticipants(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 100)
	addTestParticipant(t, db, "BB234567", "Bob", 200)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleListParticipants(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []ParticipantResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "AA123456", resp[0].ID)
	assert.Equal(t, "BB234567", resp[1].ID)
}

func TestHandleListParticipantsSearch(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 100)
	addTestParticipant(t, db, "BB234567", "Bob", 200)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/participants?q=ali",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleListParticipants(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []ParticipantResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "Alice", resp[0].Name)
}

func TestHandleItemCrud(t *testing.T) {
	a, _ := setupApi(t)

	// Create
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/items",
		strings.NewReader(`{"name":"Sticker Pack","points_required":100,"quantity":5}`),
	)
	w := httptest.NewRecorder()
	a.handleCreateItem(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created ItemResponse
	err := json.NewDecoder(w.Body).Decode(&created)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	idStr := strconv.FormatUint(uint64(created.ID), 10)

	// Get
	req = httptest.NewRequest(
		http.MethodGet,
		"/api/v1/items/"+idStr,
		nil,
	)
	req.SetPathValue("id", idStr)
	w = httptest.NewRecorder()
	a.handleGetItem(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Update
	req = httptest.NewRequest(
		http.MethodPut,
		"/api/v1/items/"+idStr,
		strings.NewReader(`{"name":"Big Sticker Pack","points_required":150,"quantity":8}`),
	)
	req.SetPathValue("id", idStr)
	w = httptest.NewRecorder()
	a.handleUpdateItem(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated ItemResponse
	err = json.NewDecoder(w.Body).Decode(&updated)
	require.NoError(t, err)
	assert.Equal(t, "Big Sticker Pack", updated.Name)
	assert.Equal(t, int64(150), updated.PointsRequired)
	assert.Equal(t, int64(8), updated.Quantity)

	// Delete
	req = httptest.NewRequest(
		http.MethodDelete,
		"/api/v1/items/"+idStr,
		nil,
	)
	req.SetPathValue("id", idStr)
	w = httptest.NewRecorder()
	a.handleDeleteItem(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Gone
	req = httptest.NewRequest(
		http.MethodGet,
		"/api/v1/items/"+idStr,
		nil,
	)
	req.SetPathValue("id", idStr)
	w = httptest.NewRecorder()
	a.handleGetItem(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetItemInvalidId(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/items/abc",
		nil,
	)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	a.handleGetItem(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetReceipt(t *testing.T) {
	a, db := setupApi(t)
	addTestParticipant(t, db, "AA123456", "Alice", 500)
	itemId := addTestItem(t, db, "Sticker Pack", 100, 5)
	result, err := a.coordinator.Redeem(t.Context(), "AA123456", itemId)
	require.NoError(t, err)

	idStr := strconv.FormatUint(uint64(result.Redemption.ID), 10)
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/redemptions/"+idStr+"/receipt",
		nil,
	)
	req.SetPathValue("id", idStr)
	w := httptest.NewRecorder()
	a.handleGetReceipt(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ReceiptResponse
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, result.Redemption.ID, resp.RedemptionID)
	assert.Equal(t, "AA123456", resp.ParticipantID)
	assert.Equal(t, "Sticker Pack", resp.ItemName)
	assert.Equal(t, int64(100), resp.PointsUsed)
}

func TestHandleGetReceiptNotFound(t *testing.T) {
	a, _ := setupApi(t)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/redemptions/999/receipt",
		nil,
	)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	a.handleGetReceipt(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
