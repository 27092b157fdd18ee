// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashSize is the number of bytes of a Hash.
	HashSize = 32
	// AddressSize is the number of bytes of an Address.
	AddressSize = 20
	// KeySize is the number of bytes of a storage Key.
	KeySize = 32
	// ValueSize is the number of bytes of a storage Value.
	ValueSize = 32
)

// Hash is a 32-byte commitment to some content, the result of a Keccak256
// computation. A Hash standing in for a not-yet-fetched piece of data is
// the only information retained about that data.
type Hash [HashSize]byte

// HashFromBytes creates a hash from the given byte slice, which must hold
// exactly HashSize bytes.
func HashFromBytes(data []byte) (Hash, error) {
	var h Hash
	if len(data) != HashSize {
		return h, fmt.Errorf("invalid hash length: got %d, wanted %d", len(data), HashSize)
	}
	copy(h[:], data)
	return h, nil
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Address is a 20-byte account identifier of an Ethereum-compatible chain.
type Address [AddressSize]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Key is a 32-byte storage slot identifier within a single account.
type Key [KeySize]byte

// Value is a 32-byte storage slot content.
type Value [ValueSize]byte

// IsZero returns true if the value consists of zero bytes only.
func (v Value) IsZero() bool {
	return v == Value{}
}
