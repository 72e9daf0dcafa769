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
	"time"

	"github.com/openpoints-io/tally/database/models"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the error envelope for all failed requests.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// RedeemRequest is the body for POST /api/v1/redeem.
type RedeemRequest struct {
	ParticipantID string `json:"participant_id"`
	ItemID        uint   `json:"item_id"`
}

// RedeemResponse is returned for a committed redemption.
type RedeemResponse struct {
	Success      bool      `json:"success"`
	RedemptionID uint      `json:"redemption_id"`
	ItemName     string    `json:"item_name"`
	PointsUsed   int64     `json:"points_used"`
	RedeemedAt   time.Time `json:"redeemed_at"`
	NewBalance   int64     `json:"new_balance"`
}

// ParticipantRequest is the body for participant create/update.
type ParticipantRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Diploma     string `json:"diploma"`
	YearOfEntry int    `json:"year_of_entry"`
	Email       string `json:"email"`
	Balance     int64  `json:"balance"`
}

// ParticipantResponse represents a participant.
type ParticipantResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Diploma     string `json:"diploma,omitempty"`
	YearOfEntry int    `json:"year_of_entry,omitempty"`
	Email       string `json:"email,omitempty"`
	Balance     int64  `json:"balance"`
}

func newParticipantResponse(p *models.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		Name:        p.Name,
		Diploma:     p.Diploma,
		YearOfEntry: p.YearOfEntry,
		Email:       p.Email,
		Balance:     p.Balance,
	}
}

// CreditRequest is the body for POST /api/v1/participants/{id}/credit.
type CreditRequest struct {
	Amount int64 `json:"amount"`
}

// BalanceResponse is returned by the balance and credit endpoints.
type BalanceResponse struct {
	ParticipantID string `json:"participant_id"`
	Balance       int64  `json:"balance"`
}

// ItemRequest is the body for item create/update.
type ItemRequest struct {
	Name           string `json:"name"`
	PointsRequired int64  `json:"points_required"`
	Quantity       int64  `json:"quantity"`
}

// ItemResponse represents a reward item.
type ItemResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	PointsRequired int64  `json:"points_required"`
	Quantity       int64  `json:"quantity"`
}

func newItemResponse(item *models.RewardItem) ItemResponse {
	return ItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		PointsRequired: item.PointsRequired,
		Quantity:       item.Quantity,
	}
}

// HistoryEntry is one row of a participant's redemption history.
type HistoryEntry struct {
	RedemptionID uint      `json:"redemption_id"`
	ItemName     string    `json:"item_name"`
	PointsUsed   int64     `json:"points_used"`
	RedeemedAt   time.Time `json:"redeemed_at"`
}

// ReceiptResponse is the immutable receipt for a redemption.
type ReceiptResponse struct {
	RedemptionID  uint      `json:"redemption_id"`
	ParticipantID string    `json:"participant_id"`
	ItemName      string    `json:"item_name"`
	PointsUsed    int64     `json:"points_used"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}
