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
	"bytes"
	"encoding/hex"
	"testing"
)

func TestKeccak256_KnownVectors(t *testing.T) {
	tests := []struct {
		input []byte
		hash  string
	}{
		{nil, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{[]byte{}, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{[]byte("abc"), "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{[]byte("testing"), "5f16f4c7f149ac4f9510d9cf8cf384038ad348b3bcdc01915f95de12df9d1b02"},
	}

	for _, test := range tests {
		want, err := hex.DecodeString(test.hash)
		if err != nil {
			t.Fatalf("invalid test case hash: %v", err)
		}
		if got := Keccak256(test.input); !bytes.Equal(got[:], want) {
			t.Errorf("invalid hash of %q, got %v, wanted %s", test.input, got, test.hash)
		}
	}
}

func TestKeccak256_AddressAndKeyVariantsMatchGenericHash(t *testing.T) {
	address := Address{1, 2, 3}
	if got, want := Keccak256ForAddress(address), Keccak256(address[:]); got != want {
		t.Errorf("address hash differs from generic hash, got %v, wanted %v", got, want)
	}

	key := Key{4, 5, 6}
	if got, want := Keccak256ForKey(key), Keccak256(key[:]); got != want {
		t.Errorf("key hash differs from generic hash, got %v, wanted %v", got, want)
	}
}

func TestKeccak256_RepeatedUseProducesStableResults(t *testing.T) {
	// The hasher pool must not leak state between uses.
	data := []byte("some data to be hashed")
	first := Keccak256(data)
	for i := 0; i < 10; i++ {
		if got := Keccak256(data); got != first {
			t.Fatalf("hash changed between runs, got %v, wanted %v", got, first)
		}
		Keccak256([]byte("interleaved other input"))
	}
}

func BenchmarkKeccak256_32Bytes(b *testing.B) {
	data := make([]byte, 32)
	for i := 0; i < b.N; i++ {
		Keccak256(data)
	}
}
