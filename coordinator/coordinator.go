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
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/openpoints-io/tally/database"
	"github.com/openpoints-io/tally/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type CoordinatorConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	Database     *database.Database
}

// Coordinator is the only write path for redemptions. Each Redeem call is a
// single all-or-nothing unit against the balance, inventory and ledger
// stores.
type Coordinator struct {
	config  CoordinatorConfig
	db      *database.Database
	logger  *slog.Logger
	metrics struct {
		redemptionsTotal *prometheus.CounterVec
		redeemSeconds    prometheus.Histogram
	}
}

// Result describes a committed redemption
type Result struct {
	Redemption models.Redemption
	NewBalance int64
}

func NewCoordinator(config CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		config: config,
		db:     config.Database,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		c.logger = config.Logger.With("component", "coordinator")
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	c.metrics.redemptionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_redemptions_total",
			Help: "total redemption requests by outcome",
		},
		[]string{"outcome"},
	)
	c.metrics.redeemSeconds = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tally_redemption_duration_seconds",
			Help:    "redemption request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	return c
}

// Redeem exchanges points for one unit of a reward item. The debit, the
// stock decrement and the ledger append commit together or not at all. On
// failure the error identifies the first check that failed: a missing item
// is reported before a missing participant, and exhausted stock is reported
// before insufficient funds.
func (c *Coordinator) Redeem(
	ctx context.Context,
	participantId string,
	itemId uint,
) (*Result, error) {
	start := time.Now()
	result, err := c.redeem(ctx, participantId, itemId)
	c.metrics.redeemSeconds.Observe(time.Since(start).Seconds())
	c.metrics.redemptionsTotal.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		c.logger.Debug(
			"redemption rejected",
			"participant", participantId,
			"item", itemId,
			"outcome", Outcome(err),
		)
		return nil, err
	}
	c.logger.Info(
		"redemption committed",
		"participant", participantId,
		"item", result.Redemption.ItemName,
		"points_used", result.Redemption.PointsUsed,
		"new_balance", result.NewBalance,
	)
	return result, nil
}

func (c *Coordinator) redeem(
	ctx context.Context,
	participantId string,
	itemId uint,
) (*Result, error) {
	// Honor cancellation up front; once the unit starts mutating it runs
	// to commit or abort
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *Result
	err := c.db.Transaction(true).Do(func(txn *database.Txn) error {
		// Resolve both sides, item first
		item, err := c.db.GetItem(itemId, txn)
		if err != nil {
			return classify(err)
		}
		participant, err := c.db.GetParticipant(participantId, txn)
		if err != nil {
			return classify(err)
		}
		// Stock is checked before funds so that a request failing both
		// reports out-of-stock
		if item.Quantity <= 0 {
			return ErrOutOfStock
		}
		if participant.Balance < item.PointsRequired {
			return ErrInsufficientFunds
		}
		// Conditional mutations; either can still lose a race and abort
		// the whole unit. Item row first, matching the read order above
		if _, err := c.db.Decrement(itemId, txn); err != nil {
			return classify(err)
		}
		newBalance, err := c.db.Debit(participantId, item.PointsRequired, txn)
		if err != nil {
			return classify(err)
		}
		redemption := &models.Redemption{
			ParticipantID: participantId,
			ItemName:      item.Name,
			PointsUsed:    item.PointsRequired,
			RedeemedAt:    time.Now().UTC(),
		}
		if err := c.db.AppendRedemption(redemption, txn); err != nil {
			return classify(err)
		}
		result = &Result{
			Redemption: *redemption,
			NewBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		if !isRequestError(err) {
			// Commit and rollback failures surface as storage errors
			return nil, classify(err)
		}
		return nil, err
	}
	return result, nil
}

// History returns a participant's redemption history in chronological
// order. Unknown participants are an error rather than an empty history.
func (c *Coordinator) History(
	ctx context.Context,
	participantId string,
) (iter.Seq2[models.Redemption, error], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := c.db.GetParticipant(participantId, nil); err != nil {
		return nil, classify(err)
	}
	return c.db.RedemptionsForParticipant(participantId), nil
}

// Balance returns a participant's current point balance
func (c *Coordinator) Balance(
	ctx context.Context,
	participantId string,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	balance, err := c.db.GetBalance(participantId, nil)
	if err != nil {
		return 0, classify(err)
	}
	return balance, nil
}
