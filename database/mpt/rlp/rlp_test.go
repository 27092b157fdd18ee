// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rlp

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum-optimism/kona-repro-pat/common"
)

func TestEncoding_EncodeStrings(t *testing.T) {
	tests := []struct {
		input  []byte
		result []byte
	}{
		// empty string
		{[]byte{}, []byte{0x80}},

		// single values < 0x80
		{[]byte{0}, []byte{0}},
		{[]byte{1}, []byte{1}},
		{[]byte{0x7f}, []byte{0x7f}},

		// single values >= 0x80
		{[]byte{0x80}, []byte{0x81, 0x80}},
		{[]byte{0xff}, []byte{0x81, 0xff}},

		// more than one element for short strings (< 56 bytes)
		{[]byte{0, 0}, []byte{0x82, 0, 0}},
		{[]byte{1, 2, 3}, []byte{0x83, 1, 2, 3}},

		{make([]byte, 55), func() []byte {
			res := make([]byte, 56)
			res[0] = 0x80 + 55
			return res
		}()},

		// 56 or more bytes
		{make([]byte, 56), func() []byte {
			res := make([]byte, 58)
			res[0] = 0xb7 + 1
			res[1] = 56
			return res
		}()},

		{make([]byte, 1024), func() []byte {
			res := make([]byte, 1027)
			res[0] = 0xb7 + 2
			res[1] = 1024 >> 8
			res[2] = 1024 & 0xff
			return res
		}()},
	}

	for _, test := range tests {
		if got, want := Encode(String{test.input}), test.result; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding, wanted %v, got %v", want, got)
		}
	}
}

func TestEncoding_EncodeLists(t *testing.T) {
	tests := []struct {
		input  []Item
		result []byte
	}{
		// empty list
		{[]Item{}, []byte{0xc0}},

		// single element list with short content
		{[]Item{String{[]byte{1}}}, []byte{0xc1, 1}},
		{[]Item{String{[]byte{1, 2, 3}}}, []byte{0xc4, 0x83, 1, 2, 3}},

		// multiple short elements
		{[]Item{String{[]byte{1}}, String{[]byte{2, 3}}}, []byte{0xc3, 1, 0x82, 2, 3}},

		// nested lists
		{[]Item{List{[]Item{String{[]byte{1}}}}}, []byte{0xc2, 0xc1, 1}},

		// a list with a total content length of 56 bytes
		{[]Item{String{make([]byte, 55)}}, func() []byte {
			res := make([]byte, 58)
			res[0] = 0xf7 + 1
			res[1] = 56
			res[2] = 0x80 + 55
			return res
		}()},
	}

	for _, test := range tests {
		if got, want := Encode(List{test.input}), test.result; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding, wanted %v, got %v", want, got)
		}
	}
}

func TestEncoding_EncodeHash(t *testing.T) {
	hash := common.Hash{1, 2, 3}
	got := Encode(Hash{&hash})
	want := Encode(String{hash[:]})
	if !bytes.Equal(got, want) {
		t.Errorf("invalid encoding, wanted %v, got %v", want, got)
	}
}

func TestEncoding_EncodeEncoded(t *testing.T) {
	// An already encoded fragment is embedded verbatim.
	inner := Encode(List{[]Item{String{[]byte{1, 2}}}})
	got := Encode(List{[]Item{Encoded{inner}}})
	want := Encode(List{[]Item{List{[]Item{String{[]byte{1, 2}}}}}})
	if !bytes.Equal(got, want) {
		t.Errorf("invalid encoding, wanted %v, got %v", want, got)
	}
}

func TestEncoding_EncodeUint64(t *testing.T) {
	tests := []struct {
		input  uint64
		result []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{1}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x81, 0x80}},
		{0x100, []byte{0x82, 1, 0}},
		{0x123456, []byte{0x83, 0x12, 0x34, 0x56}},
		{^uint64(0), []byte{0x88, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, test := range tests {
		if got, want := Encode(Uint64{test.input}), test.result; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding of %d, wanted %v, got %v", test.input, want, got)
		}
	}
}

func TestEncoding_EncodeBigInt(t *testing.T) {
	tests := []struct {
		input  *big.Int
		result []byte
	}{
		{big.NewInt(0), []byte{0x80}},
		{big.NewInt(1), []byte{1}},
		{big.NewInt(0x80), []byte{0x81, 0x80}},
		{new(big.Int).Lsh(big.NewInt(1), 64), []byte{0x89, 1, 0, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, test := range tests {
		if got, want := Encode(BigInt{test.input}), test.result; !bytes.Equal(got, want) {
			t.Errorf("invalid encoding of %v, wanted %v, got %v", test.input, want, got)
		}
	}
}

func TestEncoding_EncodedLengthMatchesEncoding(t *testing.T) {
	tests := []Item{
		String{},
		String{[]byte{1}},
		String{[]byte{0x80}},
		String{make([]byte, 56)},
		List{},
		List{[]Item{String{[]byte{1}}, String{make([]byte, 60)}}},
		Uint64{0},
		Uint64{0x12345678},
		BigInt{new(big.Int).Lsh(big.NewInt(7), 100)},
		Hash{&common.Hash{}},
	}

	for _, item := range tests {
		if got, want := item.getEncodedLength(), len(Encode(item)); got != want {
			t.Errorf("invalid encoded length of %v, got %d, wanted %d", item, got, want)
		}
	}
}

func TestDecoding_DecodeRestoresEncodedItems(t *testing.T) {
	tests := []struct {
		name string
		item Item
	}{
		{"empty string", String{[]byte{}}},
		{"single byte", String{[]byte{0x42}}},
		{"short string", String{[]byte{1, 2, 3}}},
		{"long string", String{bytes.Repeat([]byte{7}, 80)}},
		{"empty list", List{[]Item{}}},
		{"flat list", List{[]Item{String{[]byte{1}}, String{[]byte{2, 3}}}}},
		{"nested list", List{[]Item{List{[]Item{String{[]byte{1}}}}, String{[]byte{}}}}},
		{"long list", List{[]Item{String{bytes.Repeat([]byte{1}, 40)}, String{bytes.Repeat([]byte{2}, 40)}}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			restored, err := Decode(Encode(test.item))
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if !itemsEqual(restored, test.item) {
				t.Errorf("invalid decoding, got %v, wanted %v", restored, test.item)
			}
		})
	}
}

func TestDecoding_DecodeSeventeenElementList(t *testing.T) {
	// The shape of a branch node: 16 single-byte children and a string.
	items := make([]Item, 17)
	for i := 0; i < 16; i++ {
		items[i] = String{[]byte{byte(i)}}
	}
	items[16] = String{}

	restored, err := Decode(Encode(List{items}))
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	list, ok := restored.(List)
	if !ok || len(list.Items) != 17 {
		t.Fatalf("invalid decoding, got %v", restored)
	}
	for i := 0; i < 16; i++ {
		str, ok := list.Items[i].(String)
		if !ok || !bytes.Equal(str.Str, []byte{byte(i)}) {
			t.Errorf("invalid item %d, got %v", i, list.Items[i])
		}
	}
}

func TestDecoding_InvalidInputIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty input", []byte{}},
		{"truncated short string", []byte{0x83, 1, 2}},
		{"truncated long string", []byte{0xb8, 56, 1, 2, 3}},
		{"truncated list", []byte{0xc3, 1, 2}},
		{"trailing bytes", []byte{0x81, 0x80, 0xff}},
		{"length with leading zero", []byte{0xb9, 0x00, 0x38}},
		{"non-canonical long string length", append([]byte{0xb8, 3}, 1, 2, 3)},
		{"non-canonical single byte string", []byte{0x81, 0x05}},
		{"non-canonical single byte string in a list", []byte{0xc2, 0x81, 0x05}},
		{"oversized length claim", append([]byte{0xbf}, bytes.Repeat([]byte{0xff}, 8)...)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decode(test.input); err == nil {
				t.Errorf("expected decoding of %x to fail", test.input)
			}
		})
	}
}

func TestDecoding_StringAccessors(t *testing.T) {
	value, err := String{[]byte{0x12, 0x34}}.Uint64()
	if err != nil || value != 0x1234 {
		t.Errorf("invalid uint64 value, got %d (%v), wanted %d", value, err, 0x1234)
	}
	if _, err := (String{make([]byte, 9)}).Uint64(); err == nil {
		t.Errorf("expected error for string longer than 8 bytes")
	}
	if got, want := (String{[]byte{1, 0}}).BigInt(), big.NewInt(256); got.Cmp(want) != 0 {
		t.Errorf("invalid big.Int value, got %v, wanted %v", got, want)
	}
}

func itemsEqual(a, b Item) bool {
	switch a := a.(type) {
	case String:
		b, ok := b.(String)
		return ok && bytes.Equal(a.Str, b.Str)
	case List:
		b, ok := b.(List)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !itemsEqual(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	}
	panic(fmt.Sprintf("unsupported item type %v", reflect.TypeOf(a)))
}
