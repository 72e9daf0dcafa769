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

package metadata

import (
	"fmt"

	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/database/plugin"
	"github.com/openpoints-io/tally/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Participants
	GetParticipant(
		string, // participantId
		types.Txn,
	) (*models.Participant, error)
	SetParticipant(
		*models.Participant,
		types.Txn,
	) error
	DeleteParticipant(
		string, // participantId
		types.Txn,
	) error
	ListParticipants(
		int, // limit
		int, // offset
		bool, // reverse
		types.Txn,
	) ([]models.Participant, error)
	SearchParticipants(
		string, // query
		int, // limit
		int, // offset
		bool, // reverse
		types.Txn,
	) ([]models.Participant, error)
	CreditParticipant(
		string, // participantId
		int64, // amount
		types.Txn,
	) (int64, error)
	DebitParticipant(
		string, // participantId
		int64, // amount
		types.Txn,
	) (int64, error)

	// Reward items
	GetItem(
		uint, // itemId
		types.Txn,
	) (*models.RewardItem, error)
	SetItem(
		*models.RewardItem,
		types.Txn,
	) error
	DeleteItem(
		uint, // itemId
		types.Txn,
	) error
	ListItems(
		int, // limit
		int, // offset
		bool, // reverse
		types.Txn,
	) ([]models.RewardItem, error)
	DecrementItem(
		uint, // itemId
		types.Txn,
	) (*models.RewardItem, error)

	// Redemption ledger
	AddRedemption(
		*models.Redemption,
		types.Txn,
	) error
	GetRedemptionsByParticipant(
		string, // participantId
		int, // limit
		int, // offset
		types.Txn,
	) ([]models.Redemption, error)
	CountRedemptionsByParticipant(
		string, // participantId
		types.Txn,
	) (int64, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}

	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}

	return metadataStore, nil
}
