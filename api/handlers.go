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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/openpoints-io/tally/coordinator"
	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/types"
	"github.com/openpoints-io/tally/internal/version"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeRedemptionError maps a coordinator error onto an HTTP status
func writeRedemptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrParticipantNotFound):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"participant not found",
		)
	case errors.Is(err, coordinator.ErrItemNotFound):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"reward item not found",
		)
	case errors.Is(err, coordinator.ErrOutOfStock):
		writeError(
			w,
			http.StatusConflict,
			"Conflict",
			"reward item out of stock",
		)
	case errors.Is(err, coordinator.ErrInsufficientFunds):
		writeError(
			w,
			http.StatusPaymentRequired,
			"Payment Required",
			"insufficient point balance",
		)
	default:
		writeError(
			w,
			http.StatusServiceUnavailable,
			"Service Unavailable",
			"storage unavailable",
		)
	}
}

// itemIDFromPath parses the {id} path segment as a reward item ID
func itemIDFromPath(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Service: "tally",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleRedeem handles POST /api/v1/redeem. This is the only write path
// into the redemption ledger.
func (a *Api) handleRedeem(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	if req.ParticipantID == "" || req.ItemID == 0 {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"participant_id and item_id are required",
		)
		return
	}
	result, err := a.coordinator.Redeem(
		r.Context(),
		req.ParticipantID,
		req.ItemID,
	)
	if err != nil {
		writeRedemptionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RedeemResponse{
		Success:      true,
		RedemptionID: result.Redemption.ID,
		ItemName:     result.Redemption.ItemName,
		PointsUsed:   result.Redemption.PointsUsed,
		RedeemedAt:   result.Redemption.RedeemedAt,
		NewBalance:   result.NewBalance,
	})
}

// handleListParticipants handles GET /api/v1/participants. A `q` query
// parameter switches to search by ID or name.
func (a *Api) handleListParticipants(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	var participants []models.Participant
	if q := r.URL.Query().Get("q"); q != "" {
		participants, err = a.db.SearchParticipants(
			q,
			params.Limit(),
			params.Offset(),
			params.Descending(),
			nil,
		)
	} else {
		participants, err = a.db.ListParticipants(
			params.Limit(),
			params.Offset(),
			params.Descending(),
			nil,
		)
	}
	if err != nil {
		a.logger.Error(
			"failed to list participants",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to list participants",
		)
		return
	}
	ret := make([]ParticipantResponse, 0, len(participants))
	for i := range participants {
		ret = append(ret, newParticipantResponse(&participants[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleCreateParticipant handles POST /api/v1/participants.
func (a *Api) handleCreateParticipant(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	participant, err := models.NewParticipant(req.ID, req.Name, req.Balance)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	participant.Diploma = req.Diploma
	participant.YearOfEntry = req.YearOfEntry
	participant.Email = req.Email
	if err := a.db.CreateParticipant(participant, nil); err != nil {
		if errors.Is(err, models.ErrParticipantExists) {
			writeError(
				w,
				http.StatusConflict,
				"Conflict",
				"participant already exists",
			)
			return
		}
		a.logger.Error("failed to create participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to create participant",
		)
		return
	}
	writeJSON(w, http.StatusCreated, newParticipantResponse(participant))
}

// handleGetParticipant handles GET /api/v1/participants/{id}.
func (a *Api) handleGetParticipant(
	w http.ResponseWriter,
	r *http.Request,
) {
	participant, err := a.db.GetParticipant(r.PathValue("id"), nil)
	if err != nil {
		if errors.Is(err, models.ErrParticipantNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"participant not found",
			)
			return
		}
		a.logger.Error("failed to get participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to get participant",
		)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantResponse(participant))
}

// handleUpdateParticipant handles PUT /api/v1/participants/{id}. Profile
// fields only; the balance moves through redemptions and credits.
func (a *Api) handleUpdateParticipant(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	participant, err := a.db.GetParticipant(r.PathValue("id"), nil)
	if err != nil {
		if errors.Is(err, models.ErrParticipantNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"participant not found",
			)
			return
		}
		a.logger.Error("failed to get participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to update participant",
		)
		return
	}
	if req.Name != "" {
		participant.Name = req.Name
	}
	participant.Diploma = req.Diploma
	participant.YearOfEntry = req.YearOfEntry
	participant.Email = req.Email
	if err := a.db.SetParticipant(participant, nil); err != nil {
		a.logger.Error("failed to update participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to update participant",
		)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantResponse(participant))
}

// handleDeleteParticipant handles DELETE /api/v1/participants/{id}.
func (a *Api) handleDeleteParticipant(
	w http.ResponseWriter,
	r *http.Request,
) {
	err := a.db.DeleteParticipant(r.PathValue("id"), nil)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrParticipantNotFound):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"participant not found",
		)
	case errors.Is(err, models.ErrParticipantHasHistory):
		writeError(
			w,
			http.StatusConflict,
			"Conflict",
			"participant has redemption history",
		)
	default:
		a.logger.Error("failed to delete participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to delete participant",
		)
	}
}

// handleCreditParticipant handles POST /api/v1/participants/{id}/credit.
// This is the only external balance adjustment.
func (a *Api) handleCreditParticipant(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	if req.Amount <= 0 {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"amount must be positive",
		)
		return
	}
	participantId := r.PathValue("id")
	balance, err := a.db.Credit(participantId, req.Amount, nil)
	if err != nil {
		if errors.Is(err, models.ErrParticipantNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"participant not found",
			)
			return
		}
		a.logger.Error("failed to credit participant", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to credit participant",
		)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		ParticipantID: participantId,
		Balance:       balance,
	})
}

// handleGetBalance handles GET /api/v1/participants/{id}/balance.
func (a *Api) handleGetBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	participantId := r.PathValue("id")
	balance, err := a.coordinator.Balance(r.Context(), participantId)
	if err != nil {
		writeRedemptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		ParticipantID: participantId,
		Balance:       balance,
	})
}

// handleGetHistory handles GET /api/v1/participants/{id}/history. Entries
// come back in chronological order with insertion-order tie-break.
func (a *Api) handleGetHistory(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	seq, err := a.coordinator.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRedemptionError(w, err)
		return
	}
	ret := []HistoryEntry{}
	skip := params.Offset()
	for redemption, err := range seq {
		if err != nil {
			a.logger.Error("failed to read history", "error", err)
			writeError(
				w,
				http.StatusInternalServerError,
				"Internal Server Error",
				"failed to read history",
			)
			return
		}
		if skip > 0 {
			skip--
			continue
		}
		ret = append(ret, HistoryEntry{
			RedemptionID: redemption.ID,
			ItemName:     redemption.ItemName,
			PointsUsed:   redemption.PointsUsed,
			RedeemedAt:   redemption.RedeemedAt,
		})
		if len(ret) >= params.Limit() {
			break
		}
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleListItems handles GET /api/v1/items.
func (a *Api) handleListItems(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	items, err := a.db.ListItems(
		params.Limit(),
		params.Offset(),
		params.Descending(),
		nil,
	)
	if err != nil {
		a.logger.Error("failed to list items", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to list items",
		)
		return
	}
	ret := make([]ItemResponse, 0, len(items))
	for i := range items {
		ret = append(ret, newItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleCreateItem handles POST /api/v1/items.
func (a *Api) handleCreateItem(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	item, err := models.NewRewardItem(
		req.Name,
		req.PointsRequired,
		req.Quantity,
	)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	if err := a.db.SetItem(item, nil); err != nil {
		a.logger.Error("failed to create item", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to create item",
		)
		return
	}
	writeJSON(w, http.StatusCreated, newItemResponse(item))
}

// handleGetItem handles GET /api/v1/items/{id}.
func (a *Api) handleGetItem(
	w http.ResponseWriter,
	r *http.Request,
) {
	itemId, err := itemIDFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid item ID",
		)
		return
	}
	item, err := a.db.GetItem(itemId, nil)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"reward item not found",
			)
			return
		}
		a.logger.Error("failed to get item", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to get item",
		)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(item))
}

// handleUpdateItem handles PUT /api/v1/items/{id}.
func (a *Api) handleUpdateItem(
	w http.ResponseWriter,
	r *http.Request,
) {
	itemId, err := itemIDFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid item ID",
		)
		return
	}
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	item, err := a.db.GetItem(itemId, nil)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"reward item not found",
			)
			return
		}
		a.logger.Error("failed to get item", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to update item",
		)
		return
	}
	if req.Name != "" {
		item.Name = req.Name
	}
	if req.PointsRequired != 0 {
		item.PointsRequired = req.PointsRequired
	}
	item.Quantity = req.Quantity
	if err := a.db.SetItem(item, nil); err != nil {
		if errors.Is(err, models.ErrInvalidItem) {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				err.Error(),
			)
			return
		}
		a.logger.Error("failed to update item", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to update item",
		)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(item))
}

// handleDeleteItem handles DELETE /api/v1/items/{id}.
func (a *Api) handleDeleteItem(
	w http.ResponseWriter,
	r *http.Request,
) {
	itemId, err := itemIDFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid item ID",
		)
		return
	}
	err = a.db.DeleteItem(itemId, nil)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrItemNotFound):
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"reward item not found",
		)
	default:
		a.logger.Error("failed to delete item", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to delete item",
		)
	}
}

// handleGetReceipt handles GET /api/v1/redemptions/{id}/receipt.
func (a *Api) handleGetReceipt(
	w http.ResponseWriter,
	r *http.Request,
) {
	redemptionId, err := itemIDFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid redemption ID",
		)
		return
	}
	receipt, err := a.db.GetReceipt(redemptionId, nil)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"receipt not found",
			)
			return
		}
		a.logger.Error("failed to get receipt", "error", err)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to get receipt",
		)
		return
	}
	writeJSON(w, http.StatusOK, ReceiptResponse{
		RedemptionID:  receipt.ID,
		ParticipantID: receipt.ParticipantID,
		ItemName:      receipt.ItemName,
		PointsUsed:    receipt.PointsUsed,
		RedeemedAt:    receipt.RedeemedAt,
	})
}
