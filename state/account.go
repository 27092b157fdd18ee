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
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum-optimism/kona-repro-pat/common/amount"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt/rlp"
)

// EmptyCodeHash is the hash of empty contract code, carried by every account
// that is not a contract.
var EmptyCodeHash = common.Keccak256(nil)

// Account is the unit of information stored per address in the world state
// trie. Accounts are value types; the tries store their RLP encoding.
type Account struct {
	Nonce       uint64
	Balance     amount.Amount
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// NewEmptyAccount returns an account in its default state, with an empty
// storage trie and no code.
func NewEmptyAccount() Account {
	return Account{
		StorageRoot: mpt.EmptyNodeHash,
		CodeHash:    EmptyCodeHash,
	}
}

// IsEmpty reports whether the account is indistinguishable from a never
// touched one and hence has no place in the world state trie.
func (a Account) IsEmpty() bool {
	return a.Nonce == 0 &&
		a.Balance.IsZero() &&
		a.StorageRoot == mpt.EmptyNodeHash &&
		a.CodeHash == EmptyCodeHash
}

func encodeAccount(a Account) []byte {
	storageRoot := a.StorageRoot
	codeHash := a.CodeHash
	return rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.Uint64{Value: a.Nonce},
		rlp.BigInt{Value: a.Balance.ToBig()},
		rlp.Hash{Hash: &storageRoot},
		rlp.Hash{Hash: &codeHash},
	}})
}

func decodeAccount(data []byte) (Account, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return Account{}, err
	}
	list, ok := item.(rlp.List)
	if !ok || len(list.Items) != 4 {
		return Account{}, fmt.Errorf("invalid account encoding")
	}
	nonce, ok := list.Items[0].(rlp.String)
	if !ok {
		return Account{}, fmt.Errorf("invalid account nonce")
	}
	balance, ok := list.Items[1].(rlp.String)
	if !ok {
		return Account{}, fmt.Errorf("invalid account balance")
	}
	storageRoot, ok := list.Items[2].(rlp.String)
	if !ok || len(storageRoot.Str) != common.HashSize {
		return Account{}, fmt.Errorf("invalid account storage root")
	}
	codeHash, ok := list.Items[3].(rlp.String)
	if !ok || len(codeHash.Str) != common.HashSize {
		return Account{}, fmt.Errorf("invalid account code hash")
	}

	res := Account{}
	if res.Nonce, err = nonce.Uint64(); err != nil {
		return Account{}, err
	}
	if res.Balance, err = amount.NewFromBigInt(balance.BigInt()); err != nil {
		return Account{}, err
	}
	copy(res.StorageRoot[:], storageRoot.Str)
	copy(res.CodeHash[:], codeHash.Str)
	return res, nil
}
