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

import "errors"

var ErrParticipantNotFound = errors.New("participant not found")

// ErrInsufficientBalance is returned by a conditional debit when the
// participant's balance is below the requested amount
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrParticipantExists is returned when creating a participant whose ID is
// already taken
var ErrParticipantExists = errors.New("participant already exists")

// ErrParticipantHasHistory is returned when deleting a participant that is
// still referenced by redemption records
var ErrParticipantHasHistory = errors.New(
	"participant has redemption history",
)

// ErrNegativeBalance is returned when constructing or mutating a participant
// with a balance below zero
var ErrNegativeBalance = errors.New("participant balance cannot be negative")

// Participant is an account holding a point balance eligible to redeem items.
// Only the redemption coordinator mutates Balance, always inside a committed
// transaction. The profile fields carry no invariants.
type Participant struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Diploma     string
	YearOfEntry int
	Email       string `gorm:"index"`
	Balance     int64  `gorm:"not null;default:0;check:balance >= 0"`
}

func (Participant) TableName() string {
	return "participant"
}

// NewParticipant creates a participant, rejecting a negative starting balance
func NewParticipant(
	id string,
	name string,
	balance int64,
) (*Participant, error) {
	if id == "" {
		return nil, errors.New("participant ID is empty")
	}
	if balance < 0 {
		return nil, ErrNegativeBalance
	}
	return &Participant{
		ID:      id,
		Name:    name,
		Balance: balance,
	}, nil
}
