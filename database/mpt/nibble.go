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
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
)

// Nibble is a 4-bit unsigned integer in the range 0-F. It is a single letter
// used to navigate in the MPT structure.
type Nibble byte

// Rune converts a Nibble into a hexa-decimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	} else if n < 16 {
		return rune('a' + n - 10)
	} else {
		return '?'
	}
}

// String converts a Nibble into a hexa-decimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}

// AddressToNibblePath derives the navigation path of the given address in the
// account trie: the 64 nibbles of its Keccak256 hash.
func AddressToNibblePath(address common.Address) []Nibble {
	return HashToNibblePath(common.Keccak256ForAddress(address))
}

// KeyToNibblePath derives the navigation path of the given storage key in a
// storage trie: the 64 nibbles of its Keccak256 hash.
func KeyToNibblePath(key common.Key) []Nibble {
	return HashToNibblePath(common.Keccak256ForKey(key))
}

// HashToNibblePath splits the 32 bytes of the given hash into 64 nibbles.
func HashToNibblePath(hash common.Hash) []Nibble {
	res := make([]Nibble, len(hash)*2)
	parseNibbles(res, hash[:])
	return res
}

func parseNibbles(dst []Nibble, src []byte) {
	for i := 0; i < len(src); i++ {
		dst[2*i] = Nibble(src[i] >> 4)
		dst[2*i+1] = Nibble(src[i] & 0xF)
	}
}

// GetCommonPrefixLength computes the length of the common prefix of the given
// Nibble-slices.
func GetCommonPrefixLength(a, b []Nibble) int {
	lengthA := len(a)
	if lengthA > len(b) {
		return GetCommonPrefixLength(b, a)
	}
	for i := 0; i < lengthA; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return lengthA
}

// IsPrefixOf tests whether one Nibble slice is the prefix of another.
func IsPrefixOf(a, b []Nibble) bool {
	return len(a) <= len(b) && GetCommonPrefixLength(a, b) == len(a)
}

// ----------------------------------------------------------------------------
//                         Hex-Prefix Path Encoding
// ----------------------------------------------------------------------------

// The partial paths stored in leaf and extension nodes are serialized in the
// compact "hex prefix" form of Ethereum's yellow paper (Appendix C): two
// nibbles per byte, preceded by a flag nibble marking whether the path
// belongs to a leaf and whether its length is odd. An odd-length path
// contributes its first nibble to the low half of the flag byte.
//
// The encoding is as follows:
//   - 0b_0000_0000 (0x00): extension node, even path
//   - 0b_0001_xxxx (0x1_): extension node, odd path
//   - 0b_0010_0000 (0x20): leaf node, even path
//   - 0b_0011_xxxx (0x3_): leaf node, odd path

const (
	compactLeafFlag = 0b_0010_0000
	compactOddFlag  = 0b_0001_0000
)

// nibblesToCompact encodes the given nibble path in its compact hex-prefix
// form, tagging it as a leaf or an extension path.
func nibblesToCompact(path []Nibble, isLeaf bool) []byte {
	compact := make([]byte, len(path)/2+1)
	if isLeaf {
		compact[0] |= compactLeafFlag
	}
	if len(path)%2 == 1 {
		compact[0] |= compactOddFlag | byte(path[0])
		path = path[1:]
	}
	for i := 0; i < len(path); i += 2 {
		compact[1+i/2] = byte(path[i])<<4 | byte(path[i+1])
	}
	return compact
}

// compactToNibbles decodes a compact hex-prefix path into its nibbles and its
// leaf-vs-extension tag. Encodings that would not re-encode to the same bytes
// are rejected: an unknown flag nibble, or a non-zero padding nibble in an
// even-length path.
func compactToNibbles(compact []byte) ([]Nibble, bool, error) {
	if len(compact) == 0 {
		return nil, false, fmt.Errorf("compact path is empty")
	}
	if compact[0]>>4 > 3 {
		return nil, false, fmt.Errorf("invalid path flag nibble: %x", compact[0]>>4)
	}
	isLeaf := compact[0]&compactLeafFlag != 0
	odd := compact[0]&compactOddFlag != 0
	if !odd && compact[0]&0xF != 0 {
		return nil, false, fmt.Errorf("non-canonical even path: padding nibble %x", compact[0]&0xF)
	}

	res := make([]Nibble, 0, 2*len(compact))
	if odd {
		res = append(res, Nibble(compact[0]&0xF))
	}
	for _, b := range compact[1:] {
		res = append(res, Nibble(b>>4), Nibble(b&0xF))
	}
	return res, isLeaf, nil
}
