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
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum-optimism/kona-repro-pat/common"
)

// The definition of the RLP encoding can be found here:
// https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp
//
// Based on Appendix B of https://ethereum.github.io/yellowpaper/paper.pdf
//
// Recursive-Length Prefix (RLP) serialization is based on a recursive
// structure definition of an `item`. An item is defined as
//   - a string of bytes
//   - a list of items
// Note the recursive definition in the second line. This recursive step
// allows arbitrarily nested structures to be encoded. This package provides
// RLP encoding support for Items and a few convenience utilities for encoding
// frequently utilized types.

// Item is an interface for everything that can be RLP encoded by this package.
type Item interface {
	// write writes the RLP encoding of this item to the given writer.
	write(writer) writer

	// getEncodedLength computes the encoded length of this item in bytes.
	getEncodedLength() int
}

// Encode is a convenience function for serializing an item structure.
func Encode(item Item) []byte {
	return EncodeInto(make([]byte, 0, 1024), item)
}

// EncodeInto appends the encoding of the item to the given buffer.
func EncodeInto(dst []byte, item Item) []byte {
	return item.write(writer(dst))
}

// Decode parses a single item from the given RLP stream. Trailing bytes
// after the item are rejected as malformed input.
func Decode(data []byte) (Item, error) {
	item, consumed, err := decode(data)
	if err != nil {
		return nil, err
	}
	if consumed != uint64(len(data)) {
		return nil, fmt.Errorf("trailing bytes after RLP item: %d", uint64(len(data))-consumed)
	}
	return item, nil
}

// decode parses the first item of the given RLP stream and reports the number
// of bytes consumed. It recursively calls itself to decode nested items.
func decode(data []byte) (Item, uint64, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("input RLP is empty")
	}

	prefix := data[0]
	switch {
	case prefix < 0x80: // single byte item
		return String{Str: data[0:1]}, 1, nil

	case prefix < 0xb8: // short string
		length := uint64(prefix - 0x80)
		if uint64(len(data)) < length+1 {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length+1, len(data))
		}
		if length == 1 && data[1] < 0x80 {
			return nil, 0, fmt.Errorf("non-canonical single byte string: 0x%02x", data[1])
		}
		return String{Str: data[1 : length+1]}, length + 1, nil

	case prefix < 0xc0: // long string
		sizeLength := uint64(prefix - 0xb7)
		length, err := readSize(data[1:], sizeLength)
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLength + 1
		// readSize guarantees len(data) >= offset; comparing this way
		// around avoids overflowing offset+length for huge claims.
		if length > uint64(len(data))-offset {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length, uint64(len(data))-offset)
		}
		return String{Str: data[offset : offset+length]}, offset + length, nil

	case prefix < 0xf8: // short list
		length := uint64(prefix - 0xc0)
		if uint64(len(data)) < length+1 {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length+1, len(data))
		}
		items, err := decodeList(data[1 : length+1])
		return List{Items: items}, length + 1, err

	default: // long list
		sizeLength := uint64(prefix - 0xf7)
		length, err := readSize(data[1:], sizeLength)
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLength + 1
		if length > uint64(len(data))-offset {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length, uint64(len(data))-offset)
		}
		items, err := decodeList(data[offset : offset+length])
		return List{Items: items}, offset + length, err
	}
}

// decodeList decodes a sequence of items from the given RLP stream. The
// enclosing list prefix must already be cut off; the input is consumed in
// chunks until it is empty.
func decodeList(data []byte) ([]Item, error) {
	items := make([]Item, 0, 17)
	for len(data) > 0 {
		item, consumed, err := decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		data = data[consumed:]
	}
	return items, nil
}

// readSize parses a big-endian length field of the given width. Lengths
// below 56 and lengths with leading zero bytes are non-canonical.
func readSize(data []byte, sizeLength uint64) (uint64, error) {
	if sizeLength > 8 {
		return 0, fmt.Errorf("length field too wide: %d bytes", sizeLength)
	}
	if uint64(len(data)) < sizeLength {
		return 0, fmt.Errorf("expected %d bytes, got: %d", sizeLength, len(data))
	}
	if sizeLength > 0 && data[0] == 0 {
		return 0, fmt.Errorf("length field has leading zero bytes")
	}
	var size uint64
	for i := uint64(0); i < sizeLength; i++ {
		size = size<<8 | uint64(data[i])
	}
	if size < 56 {
		return 0, fmt.Errorf("non-canonical length field: %d", size)
	}
	return size, nil
}

// writer is a specialized writer for this package accumulating encoded RLP
// content in a pre-allocated buffer.
type writer []byte

func (w writer) Write(data []byte) writer {
	return append(w, data...)
}

func (w writer) Put(c byte) writer {
	return append(w, c)
}

// ----------------------------------------------------------------------------
//                           Core Item Types
// ----------------------------------------------------------------------------

// String is the atomic ground type of an RLP input structure representing a
// (potentially empty) string of bytes.
type String struct {
	Str []byte
}

func (s String) write(writer writer) writer {
	l := len(s.Str)
	// Single-element strings are encoded as a single byte if the
	// value is small enough.
	if l == 1 && s.Str[0] < 0x80 {
		return writer.Write(s.Str)
	}
	// For the rest, the length is encoded, followed by the string itself.
	writer = encodeLength(l, 0x80, writer)
	return writer.Write(s.Str)
}

func (s String) getEncodedLength() int {
	l := len(s.Str)
	if l == 1 && s.Str[0] < 0x80 {
		return 1
	}
	return l + getEncodedLengthLength(l)
}

// Uint64 reinterprets the string as a big-endian encoded unsigned integer.
// Strings longer than 8 bytes do not fit and are rejected.
func (s String) Uint64() (uint64, error) {
	if len(s.Str) > 8 {
		return 0, fmt.Errorf("string too long to be a uint64: %d bytes", len(s.Str))
	}
	var res uint64
	for _, b := range s.Str {
		res = res<<8 | uint64(b)
	}
	return res, nil
}

// BigInt reinterprets the string as a big-endian encoded unsigned integer of
// arbitrary size.
func (s String) BigInt() *big.Int {
	return new(big.Int).SetBytes(s.Str)
}

// Hash holds a pointer to a hash, avoiding the array-to-slice conversion
// needed when passing a common.Hash through rlp.String.
type Hash struct {
	Hash *common.Hash
}

func (h Hash) write(writer writer) writer {
	writer = encodeLength(common.HashSize, 0x80, writer)
	return writer.Write(h.Hash[:])
}

func (h Hash) getEncodedLength() int {
	return common.HashSize + 1
}

// List composes a list of items into a new item to be serialized.
type List struct {
	Items []Item
}

func (l List) write(writer writer) writer {
	length := 0
	for i := 0; i < len(l.Items); i++ {
		length += l.Items[i].getEncodedLength()
	}
	writer = encodeLength(length, 0xc0, writer)
	for i := 0; i < len(l.Items); i++ {
		writer = l.Items[i].write(writer)
	}
	return writer
}

func (l List) getEncodedLength() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.getEncodedLength()
	}
	return sum + getEncodedLengthLength(sum)
}

// Encoded embeds an already RLP encoded data fragment in a new RLP encoding.
type Encoded struct {
	Data []byte
}

func (e Encoded) write(writer writer) writer {
	return writer.Write(e.Data)
}

func (e Encoded) getEncodedLength() int {
	return len(e.Data)
}

// ----------------------------------------------------------------------------
//                           Utility Item Types
// ----------------------------------------------------------------------------

// Uint64 is an Item encoding unsigned integers into RLP by interpreting them
// as a string of bytes. The bytes are derived from the integer value by
// encoding it in big-endian byte order and removing leading zero-bytes.
type Uint64 struct {
	Value uint64
}

func (u Uint64) write(writer writer) writer {
	if u.Value == 0 {
		return writer.Put(0x80)
	}
	var buffer = make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, u.Value)
	for buffer[0] == 0 {
		buffer = buffer[1:]
	}
	return String{Str: buffer}.write(writer)
}

func (u Uint64) getEncodedLength() int {
	if u.Value < 0x80 {
		return 1
	}
	return 1 + int(getNumBytes(u.Value))
}

// BigInt is an Item encoding big.Int values into RLP by interpreting them
// as a string of bytes, analogous to the Uint64 encoder above.
type BigInt struct {
	Value *big.Int
}

func (i BigInt) write(writer writer) writer {
	if i.Value.BitLen() <= 64 {
		return Uint64{Value: i.Value.Uint64()}.write(writer)
	}
	return String{Str: i.Value.Bytes()}.write(writer)
}

func (i BigInt) getEncodedLength() int {
	bitlen := i.Value.BitLen()
	if bitlen <= 64 {
		return Uint64{Value: i.Value.Uint64()}.getEncodedLength()
	}
	length := (bitlen + 7) / 8
	return getEncodedLengthLength(length) + length
}

// encodeLength is a utility function used by String and List structures to
// encode the length of the string or list in the output stream.
func encodeLength(length int, offset byte, writer writer) writer {
	if length < 56 {
		return writer.Put(offset + byte(length))
	}
	numBytesForLength := getNumBytes(uint64(length))
	writer = writer.Put(offset + 55 + numBytesForLength)
	for i := byte(0); i < numBytesForLength; i++ {
		writer = writer.Put(byte(length >> (8 * (numBytesForLength - i - 1))))
	}
	return writer
}

// getNumBytes computes the minimum number of bytes required to represent
// the given value in big-endian encoding.
func getNumBytes(value uint64) byte {
	if value == 0 {
		return 0
	}
	for res := byte(1); ; res++ {
		if value >>= 8; value == 0 {
			return res
		}
	}
}

func getEncodedLengthLength(length int) int {
	if length < 56 {
		return 1
	}
	return int(getNumBytes(uint64(length))) + 1
}
