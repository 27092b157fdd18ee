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
	"testing"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum-optimism/kona-repro-pat/common/amount"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt/rlp"
)

func TestAccount_EmptyAccountIsEmpty(t *testing.T) {
	if !NewEmptyAccount().IsEmpty() {
		t.Errorf("default account not considered empty")
	}
}

func TestAccount_ModifiedAccountsAreNotEmpty(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Account)
	}{
		{"nonce", func(a *Account) { a.Nonce = 1 }},
		{"balance", func(a *Account) { a.Balance = amount.New(1) }},
		{"storage", func(a *Account) { a.StorageRoot = common.Hash{1} }},
		{"code", func(a *Account) { a.CodeHash = common.Hash{1} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			account := NewEmptyAccount()
			test.modify(&account)
			if account.IsEmpty() {
				t.Errorf("modified account considered empty")
			}
		})
	}
}

func TestAccount_EncodingRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		account Account
	}{
		{"empty", NewEmptyAccount()},
		{"with nonce", Account{Nonce: 12, Balance: amount.New(), StorageRoot: mpt.EmptyNodeHash, CodeHash: EmptyCodeHash}},
		{"with balance", Account{Balance: amount.New(1, 2, 3, 4), StorageRoot: mpt.EmptyNodeHash, CodeHash: EmptyCodeHash}},
		{"with storage and code", Account{Nonce: 1, Balance: amount.New(5), StorageRoot: common.Hash{1, 2}, CodeHash: common.Hash{3, 4}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			restored, err := decodeAccount(encodeAccount(test.account))
			if err != nil {
				t.Fatalf("failed to decode account: %v", err)
			}
			if restored != test.account {
				t.Errorf("invalid account, got %+v, wanted %+v", restored, test.account)
			}
		})
	}
}

func TestAccount_DecodeRejectsInvalidEncodings(t *testing.T) {
	hash := common.Hash{}
	tests := []struct {
		name string
		data []byte
	}{
		{"not rlp", []byte{0xb9, 0x00}},
		{"not a list", rlp.Encode(rlp.String{Str: []byte{1, 2, 3}})},
		{"wrong item count", rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: 1},
			rlp.Uint64{Value: 2},
		}})},
		{"truncated storage root", rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: 1},
			rlp.Uint64{Value: 2},
			rlp.String{Str: []byte{1, 2, 3}},
			rlp.Hash{Hash: &hash},
		}})},
		{"nonce too wide", rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: make([]byte, 9)},
			rlp.Uint64{Value: 2},
			rlp.Hash{Hash: &hash},
			rlp.Hash{Hash: &hash},
		}})},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := decodeAccount(test.data); err == nil {
				t.Errorf("expected decoding of %x to fail", test.data)
			}
		})
	}
}
