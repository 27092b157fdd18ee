// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package preimage

import (
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/syndtr/goleveldb/leveldb"
)

// MemoryOracle is an Oracle backed by an in-memory map, populated up front
// through Put. It ignores hints, since all its data is already present. Its
// main use is in tests and in self-contained replay setups.
type MemoryOracle struct {
	data map[common.Hash][]byte
}

// NewMemoryOracle creates an empty in-memory oracle.
func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{data: map[common.Hash][]byte{}}
}

// Put stores the given data under its keccak hash and returns that hash.
func (o *MemoryOracle) Put(data []byte) common.Hash {
	hash := common.Keccak256(data)
	o.data[hash] = data
	return hash
}

// Get returns the preimage of the given hash, or an error if it was never
// stored.
func (o *MemoryOracle) Get(hash common.Hash) ([]byte, error) {
	data, found := o.data[hash]
	if !found {
		return nil, fmt.Errorf("no preimage known for %v", hash)
	}
	return data, nil
}

// Hint is a no-op; the oracle holds all its data already.
func (o *MemoryOracle) Hint([]byte) {}

// DiskOracle is an Oracle backed by a LevelDB instance, keyed by hash. Like
// the in-memory variant it is populated up front and ignores hints; it
// serves setups where the preimage set is too large to keep in memory.
type DiskOracle struct {
	db *leveldb.DB
}

// OpenDiskOracle opens (or creates) a LevelDB-backed oracle at the given
// path. The returned oracle must be closed when no longer needed.
func OpenDiskOracle(path string) (*DiskOracle, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open preimage store at %s: %w", path, err)
	}
	return &DiskOracle{db: db}, nil
}

// Put stores the given data under its keccak hash and returns that hash.
func (o *DiskOracle) Put(data []byte) (common.Hash, error) {
	hash := common.Keccak256(data)
	if err := o.db.Put(hash[:], data, nil); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Get returns the preimage of the given hash, or an error if it was never
// stored.
func (o *DiskOracle) Get(hash common.Hash) ([]byte, error) {
	data, err := o.db.Get(hash[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("no preimage known for %v", hash)
	}
	return data, err
}

// Hint is a no-op; the oracle holds all its data already.
func (o *DiskOracle) Hint([]byte) {}

// Close releases the underlying database.
func (o *DiskOracle) Close() error {
	return o.db.Close()
}
