// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"bytes"
	"testing"

	"github.com/ethereum-optimism/kona-repro-pat/common"
)

func TestNibble_Print(t *testing.T) {
	tests := []struct {
		value Nibble
		print string
	}{
		{Nibble(0), "0"},
		{Nibble(9), "9"},
		{Nibble(10), "a"},
		{Nibble(15), "f"},
		{Nibble(16), "?"},
		{Nibble(255), "?"},
	}

	for _, test := range tests {
		if got, want := test.value.String(), test.print; got != want {
			t.Errorf("invalid print, got %s, wanted %s", got, want)
		}
	}
}

func TestNibble_HashToNibblePath(t *testing.T) {
	hash := common.Hash{0x12, 0xab}
	path := HashToNibblePath(hash)
	if got, want := len(path), 64; got != want {
		t.Fatalf("invalid path length, got %d, wanted %d", got, want)
	}
	for i, want := range []Nibble{1, 2, 0xa, 0xb} {
		if path[i] != want {
			t.Errorf("invalid nibble %d, got %v, wanted %v", i, path[i], want)
		}
	}
	for i := 4; i < 64; i++ {
		if path[i] != 0 {
			t.Errorf("invalid nibble %d, got %v, wanted 0", i, path[i])
		}
	}
}

func TestNibble_AddressAndKeyPathsAreHashed(t *testing.T) {
	address := common.Address{1, 2, 3}
	if got, want := pathString(AddressToNibblePath(address)), pathString(HashToNibblePath(common.Keccak256ForAddress(address))); got != want {
		t.Errorf("invalid address path, got %s, wanted %s", got, want)
	}
	key := common.Key{4, 5, 6}
	if got, want := pathString(KeyToNibblePath(key)), pathString(HashToNibblePath(common.Keccak256ForKey(key))); got != want {
		t.Errorf("invalid key path, got %s, wanted %s", got, want)
	}
}

func TestNibble_GetCommonPrefixLength(t *testing.T) {
	tests := []struct {
		a, b   []Nibble
		length int
	}{
		{nil, nil, 0},
		{[]Nibble{1}, nil, 0},
		{[]Nibble{1, 2}, []Nibble{1, 3}, 1},
		{[]Nibble{1, 2}, []Nibble{1, 2}, 2},
		{[]Nibble{1, 2}, []Nibble{1, 2, 3}, 2},
		{[]Nibble{5, 2}, []Nibble{1, 2, 3}, 0},
	}

	for _, test := range tests {
		if got, want := GetCommonPrefixLength(test.a, test.b), test.length; got != want {
			t.Errorf("invalid common prefix of %v and %v, got %d, wanted %d", test.a, test.b, got, want)
		}
		if got, want := GetCommonPrefixLength(test.b, test.a), test.length; got != want {
			t.Errorf("invalid common prefix of %v and %v, got %d, wanted %d", test.b, test.a, got, want)
		}
	}
}

func TestNibble_IsPrefixOf(t *testing.T) {
	tests := []struct {
		a, b   []Nibble
		result bool
	}{
		{nil, nil, true},
		{nil, []Nibble{1}, true},
		{[]Nibble{1}, nil, false},
		{[]Nibble{1, 2}, []Nibble{1, 2, 3}, true},
		{[]Nibble{1, 3}, []Nibble{1, 2, 3}, false},
	}

	for _, test := range tests {
		if got, want := IsPrefixOf(test.a, test.b), test.result; got != want {
			t.Errorf("invalid prefix test of %v and %v, got %t, wanted %t", test.a, test.b, got, want)
		}
	}
}

func TestNibble_CompactEncoding(t *testing.T) {
	tests := []struct {
		path    []Nibble
		isLeaf  bool
		compact []byte
	}{
		// the examples of the yellow paper's hex-prefix appendix
		{nil, false, []byte{0x00}},
		{nil, true, []byte{0x20}},
		{[]Nibble{1, 2, 3, 4, 5}, false, []byte{0x11, 0x23, 0x45}},
		{[]Nibble{0, 1, 2, 3, 4, 5}, false, []byte{0x00, 0x01, 0x23, 0x45}},
		{[]Nibble{0xf, 1, 0xc, 0xb, 8}, true, []byte{0x3f, 0x1c, 0xb8}},
		{[]Nibble{0, 0xf, 1, 0xc, 0xb, 8}, true, []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}

	for _, test := range tests {
		if got, want := nibblesToCompact(test.path, test.isLeaf), test.compact; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding of %v, got %x, wanted %x", test.path, got, want)
		}
		path, isLeaf, err := compactToNibbles(test.compact)
		if err != nil {
			t.Fatalf("failed to decode %x: %v", test.compact, err)
		}
		if isLeaf != test.isLeaf {
			t.Errorf("invalid leaf flag of %x, got %t, wanted %t", test.compact, isLeaf, test.isLeaf)
		}
		if got, want := pathString(path), pathString(test.path); got != want {
			t.Errorf("invalid decoding of %x, got %s, wanted %s", test.compact, got, want)
		}
	}
}

func TestNibble_CompactDecodingRejectsNonCanonicalInput(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty input", []byte{}},
		{"invalid flag nibble", []byte{0x40}},
		{"high flag nibble", []byte{0xff, 0x12}},
		{"padding in even extension path", []byte{0x05, 0x12}},
		{"padding in even leaf path", []byte{0x2a}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := compactToNibbles(test.input); err == nil {
				t.Errorf("expected decoding of %x to fail", test.input)
			}
		})
	}
}
