// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt/rlp"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// StateSource is the preimage surface the state database depends on. It is
// satisfied by preimage.Provider; tests may substitute their own.
type StateSource interface {
	mpt.NodeSource
	HeaderSource

	// ResolveCode returns the verified contract code with the given hash.
	ResolveCode(hash common.Hash) ([]byte, error)
}

// StateDB is a trie-backed view of the Ethereum world state at a fixed
// state root, with modifications accumulated in memory until Commit. The
// world trie maps hashed addresses to accounts; each account with storage
// owns a storage trie mapping hashed slot keys to values. All tries share
// the same StateSource, so nodes touched once stay local to the process.
//
// A StateDB assumes exclusive, sequential access.
type StateDB struct {
	source StateSource
	world  *mpt.Trie
	chain  *HeaderChain

	// accounts caches all accounts touched since construction, including
	// absent ones. An entry always outlives its storage trie.
	accounts map[common.Address]*accountEntry
}

type accountEntry struct {
	account Account
	storage *mpt.Trie

	// exists records whether the account is present in the world trie or
	// was written since; absent accounts are tracked to avoid repeated
	// trie lookups.
	exists bool

	dirtyAccount bool
	dirtyStorage bool
}

// NewStateDB creates a state view rooted at the given state root. No trie
// node is resolved until the first access needs it.
func NewStateDB(source StateSource, root common.Hash) *StateDB {
	return &StateDB{
		source:   source,
		world:    mpt.NewTrie(root, source),
		accounts: map[common.Address]*accountEntry{},
	}
}

// AttachHeaderChain anchors the state view at a head block, enabling
// BlockHash queries against that block's ancestry.
func (s *StateDB) AttachHeaderChain(chain *HeaderChain) {
	s.chain = chain
}

// GetAccount returns the account stored for the given address, or an empty
// account if the address holds none. Absence is not an error.
func (s *StateDB) GetAccount(address common.Address) (Account, error) {
	entry, err := s.getEntry(address)
	if err != nil {
		return Account{}, err
	}
	return entry.account, nil
}

// Exists reports whether the given address holds an account in this state.
func (s *StateDB) Exists(address common.Address) (bool, error) {
	entry, err := s.getEntry(address)
	if err != nil {
		return false, err
	}
	return entry.exists, nil
}

// SetAccount replaces the account stored for the given address. The change
// becomes part of the state root at the next Commit. The account's storage
// root is ignored if the address has pending storage modifications; those
// take precedence.
func (s *StateDB) SetAccount(address common.Address, account Account) error {
	entry, err := s.getEntry(address)
	if err != nil {
		return err
	}
	entry.account = account
	entry.exists = true
	entry.dirtyAccount = true
	return nil
}

// GetStorage returns the value of the given storage slot, or the zero value
// if the slot was never written.
func (s *StateDB) GetStorage(address common.Address, key common.Key) (common.Value, error) {
	storage, err := s.getStorage(address)
	if err != nil {
		return common.Value{}, err
	}
	data, found, err := storage.Get(common.Keccak256ForKey(key))
	if err != nil || !found {
		return common.Value{}, err
	}
	return decodeStorageValue(data)
}

// SetStorage updates the given storage slot. Writing the zero value removes
// the slot from the storage trie, since zero is the implicit default.
func (s *StateDB) SetStorage(address common.Address, key common.Key, value common.Value) error {
	entry, err := s.getEntry(address)
	if err != nil {
		return err
	}
	storage, err := s.getStorage(address)
	if err != nil {
		return err
	}
	entry.dirtyStorage = true
	slot := common.Keccak256ForKey(key)
	if value.IsZero() {
		return storage.Delete(slot)
	}
	return storage.Insert(slot, encodeStorageValue(value))
}

// GetCode returns the contract code of the given address, or nil if the
// address holds no code.
func (s *StateDB) GetCode(address common.Address) ([]byte, error) {
	entry, err := s.getEntry(address)
	if err != nil {
		return nil, err
	}
	if entry.account.CodeHash == EmptyCodeHash {
		return nil, nil
	}
	return s.source.ResolveCode(entry.account.CodeHash)
}

// BlockHash returns the hash of the block the given number of blocks below
// the attached head. It fails if no header chain is attached.
func (s *StateDB) BlockHash(depth uint64) (common.Hash, error) {
	if s.chain == nil {
		return common.Hash{}, fmt.Errorf("no header chain attached")
	}
	return s.chain.BlockHashAt(depth)
}

// Commit folds all pending modifications into the tries and returns the new
// state root. Storage tries are committed first, their roots written into
// their accounts, and accounts that end up empty are removed from the world
// trie rather than stored.
func (s *StateDB) Commit() (common.Hash, error) {
	// Accounts are folded in address order so that oracle traffic is
	// reproducible across runs.
	addresses := maps.Keys(s.accounts)
	slices.SortFunc(addresses, func(a, b common.Address) bool {
		return bytes.Compare(a[:], b[:]) < 0
	})
	for _, address := range addresses {
		entry := s.accounts[address]
		if entry.dirtyStorage {
			root, err := entry.storage.Commit()
			if err != nil {
				return common.Hash{}, err
			}
			entry.account.StorageRoot = root
			entry.dirtyAccount = true
			entry.dirtyStorage = false
		}
		if !entry.dirtyAccount {
			continue
		}
		key := common.Keccak256ForAddress(address)
		if entry.account.IsEmpty() {
			if err := s.world.Delete(key); err != nil {
				return common.Hash{}, err
			}
			entry.exists = false
		} else if err := s.world.Insert(key, encodeAccount(entry.account)); err != nil {
			return common.Hash{}, err
		}
		entry.dirtyAccount = false
	}
	return s.world.Commit()
}

func (s *StateDB) getEntry(address common.Address) (*accountEntry, error) {
	if entry, found := s.accounts[address]; found {
		return entry, nil
	}
	entry := &accountEntry{account: NewEmptyAccount()}
	data, found, err := s.world.Get(common.Keccak256ForAddress(address))
	if err != nil {
		return nil, err
	}
	if found {
		account, err := decodeAccount(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode account of %v: %w", address, err)
		}
		entry.account = account
		entry.exists = true
	}
	s.accounts[address] = entry
	return entry, nil
}

func (s *StateDB) getStorage(address common.Address) (*mpt.Trie, error) {
	entry, err := s.getEntry(address)
	if err != nil {
		return nil, err
	}
	if entry.storage == nil {
		entry.storage = mpt.NewTrie(entry.account.StorageRoot, s.source)
	}
	return entry.storage, nil
}

func encodeStorageValue(value common.Value) []byte {
	trimmed := value[:]
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	return rlp.Encode(rlp.String{Str: trimmed})
}

func decodeStorageValue(data []byte) (common.Value, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return common.Value{}, err
	}
	str, ok := item.(rlp.String)
	if !ok || len(str.Str) > common.ValueSize {
		return common.Value{}, fmt.Errorf("invalid storage value encoding")
	}
	var value common.Value
	copy(value[common.ValueSize-len(str.Str):], str.Str)
	return value, nil
}
