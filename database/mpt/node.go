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
	"strings"

	"github.com/ethereum-optimism/kona-repro-pat/common"
)

// The nodes of a partial trie form a strictly-owned recursive structure: a
// trie owns its root node and, transitively, every opened descendant. A
// subtree that has not been fetched yet is represented by a blindedNode
// carrying only its commitment. Opening a blinded node replaces it in place
// with the node its encoding describes; the children of a freshly opened
// node start out blinded again, so the structure is materialized one level
// at a time.
//
// Each node is in one of two logical states:
//
//	blinded --(open)--> { empty | leaf | extension | branch }
//
// Mutating operations only act on opened nodes and leave them open until the
// next commit re-blinds them with a fresh hash.

// node is the tagged union of the trie node variants of this package.
type node interface {
	// isNode restricts trie nodes to the variants defined in this package.
	isNode()

	// String renders the node for diagnostics; subtrees are abbreviated.
	String() string
}

// emptyNode marks the absence of a subtree. It is the canonical state of an
// empty trie and of unused branch children.
type emptyNode struct{}

// blindedNode is a subtree known only by its commitment. For embedded nodes,
// whose encoding is shorter than a hash, the raw encoding is retained in
// inline instead and can be opened without an oracle round trip.
type blindedNode struct {
	hash   common.Hash
	inline []byte
}

// leafNode is a terminal key/value pair holding the part of the nibble path
// not consumed by the nodes above it, and an opaque value.
type leafNode struct {
	path  []Nibble
	value []byte
}

// extensionNode compresses a chain of single-child nodes into one node
// holding the shared nibble path and the single successor.
type extensionNode struct {
	path []Nibble
	next node
}

// branchNode fans out over the next nibble of the navigation path.
type branchNode struct {
	children [16]node
}

// newBranchNode creates a branch with all children empty.
func newBranchNode() *branchNode {
	res := &branchNode{}
	for i := range res.children {
		res.children[i] = emptyNode{}
	}
	return res
}

// isEmpty tests whether the given child slot holds no subtree.
func isEmpty(n node) bool {
	_, empty := n.(emptyNode)
	return empty
}

func (emptyNode) isNode()      {}
func (*blindedNode) isNode()   {}
func (*leafNode) isNode()      {}
func (*extensionNode) isNode() {}
func (*branchNode) isNode()    {}

func (emptyNode) String() string {
	return "-"
}

func (n *blindedNode) String() string {
	if n.inline != nil {
		return fmt.Sprintf("Blinded(inline,%d bytes)", len(n.inline))
	}
	return fmt.Sprintf("Blinded(%v)", n.hash)
}

func (n *leafNode) String() string {
	return fmt.Sprintf("Leaf(%v,%d bytes)", pathString(n.path), len(n.value))
}

func (n *extensionNode) String() string {
	return fmt.Sprintf("Extension(%v,%v)", pathString(n.path), n.next)
}

func (n *branchNode) String() string {
	used := make([]string, 0, 16)
	for i, child := range n.children {
		if !isEmpty(child) {
			used = append(used, Nibble(i).String())
		}
	}
	return fmt.Sprintf("Branch(%s)", strings.Join(used, ","))
}

func pathString(path []Nibble) string {
	var builder strings.Builder
	for _, n := range path {
		builder.WriteRune(n.Rune())
	}
	return builder.String()
}
