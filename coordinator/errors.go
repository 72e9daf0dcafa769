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

package coordinator

import (
	"errors"
	"fmt"

	"github.com/openpoints-io/tally/database/models"
)

// Redemption request outcomes. Every failed redemption maps to exactly one
// of these, so callers branch on errors.Is rather than string matching.
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrItemNotFound        = errors.New("reward item not found")
	ErrOutOfStock          = errors.New("reward item out of stock")
	ErrInsufficientFunds   = errors.New("insufficient point balance")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// classify maps storage-level errors onto the coordinator's error set.
// Unknown errors are wrapped as storage failures so callers never see
// store internals.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, models.ErrItemNotFound):
		return ErrItemNotFound
	case errors.Is(err, models.ErrOutOfStock):
		return ErrOutOfStock
	case errors.Is(err, models.ErrInsufficientBalance):
		return ErrInsufficientFunds
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}

// isRequestError reports whether the error is already one of the
// coordinator's request outcomes
func isRequestError(err error) bool {
	return errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrStorageUnavailable)
}

// Outcome returns the metric/API label for a redemption result
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "storage_error"
	}
}
