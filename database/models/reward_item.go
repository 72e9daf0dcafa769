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

var ErrItemNotFound = errors.New("reward item not found")

// ErrOutOfStock is returned by a conditional decrement when the item has no
// remaining stock
var ErrOutOfStock = errors.New("item out of stock")

// ErrInvalidItem is returned when constructing an item with a non-positive
// point cost or negative stock
var ErrInvalidItem = errors.New("invalid reward item")

// RewardItem is a catalog entry with a point cost and finite stock. Quantity
// is decremented only by the redemption coordinator on successful redemption.
type RewardItem struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"not null;index"`
	PointsRequired int64  `gorm:"not null;check:points_required > 0"`
	Quantity       int64  `gorm:"not null;default:0;check:quantity >= 0"`
}

func (RewardItem) TableName() string {
	return "reward_item"
}

// NewRewardItem creates a catalog item, enforcing a positive point cost and
// non-negative stock
func NewRewardItem(
	name string,
	pointsRequired int64,
	quantity int64,
) (*RewardItem, error) {
	if name == "" {
		return nil, errors.New("reward item name is empty")
	}
	if pointsRequired <= 0 {
		return nil, ErrInvalidItem
	}
	if quantity < 0 {
		return nil, ErrInvalidItem
	}
	return &RewardItem{
		Name:           name,
		PointsRequired: pointsRequired,
		Quantity:       quantity,
	}, nil
}
