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

package models

import (
	"encoding/json"
	"time"
)

// Redemption is the immutable audit entry for one completed redemption. The
// item name and points charged are snapshotted at redemption time, so later
// catalog edits never change history. Rows are never updated or deleted.
type Redemption struct {
	ID            uint      `gorm:"primaryKey"`
	ParticipantID string    `gorm:"not null;index:idx_redemption_participant_time,priority:1"`
	ItemName      string    `gorm:"not null"`
	PointsUsed    int64     `gorm:"not null"`
	RedeemedAt    time.Time `gorm:"not null;index:idx_redemption_participant_time,priority:2"`
}

func (Redemption) TableName() string {
	return "redemption"
}

// Receipt is the blob-store representation of a redemption, written once at
// commit time alongside the metadata row
type Receipt struct {
	ID            uint      `json:"id"`
	ParticipantID string    `json:"participant_id"`
	ItemName      string    `json:"item_name"`
	PointsUsed    int64     `json:"points_used"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}

// NewReceipt builds the blob receipt for a committed redemption row
func NewReceipt(r *Redemption) *Receipt {
	return &Receipt{
		ID:            r.ID,
		ParticipantID: r.ParticipantID,
		ItemName:      r.ItemName,
		PointsUsed:    r.PointsUsed,
		RedeemedAt:    r.RedeemedAt,
	}
}

// Encode serializes the receipt for blob storage
func (r *Receipt) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeReceipt deserializes a receipt from blob storage
func DecodeReceipt(data []byte) (*Receipt, error) {
	var ret Receipt
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
