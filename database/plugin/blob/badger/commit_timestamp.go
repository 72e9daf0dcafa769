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

package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/openpoints-io/tally/database/types"
)

// commitTimestampKey holds the timestamp of the last commit that spanned
// both stores, as a big-endian uint64
const commitTimestampKey = "metadata_commit_timestamp"

func (b *BlobStoreBadger) GetCommitTimestamp() (int64, error) {
	txn := b.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	val, err := b.Get(txn, []byte(commitTimestampKey))
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf(
			"malformed commit timestamp value: %d bytes",
			len(val),
		)
	}
	return int64(binary.BigEndian.Uint64(val)), nil //nolint:gosec // timestamps fit in int64
}

func (b *BlobStoreBadger) SetCommitTimestamp(
	timestamp int64,
	txn types.Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], uint64(timestamp)) //nolint:gosec // timestamps are non-negative
	return b.Set(txn, []byte(commitTimestampKey), val[:])
}
