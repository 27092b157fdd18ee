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
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt/rlp"
)

// The wire format of trie nodes follows appendix D of Ethereum's yellow
// paper: a leaf or extension node is a 2-item RLP list of a compact-encoded
// partial path and a payload, a branch node is a 17-item list of child
// references and an (always empty) inline value. A child reference is the
// 32-byte hash of the child's encoding, or, for encodings shorter than a
// hash, the child's encoding itself, embedded in place.
//
// Exactness of this encoding is safety critical: a deviation produces a
// different root hash than the one a verifier recomputes, silently, without
// any local failure.

// ErrMalformedNode is the error kind reported for byte strings that are not
// a canonical node encoding.
const ErrMalformedNode = common.ConstError("malformed node encoding")

// errLiveChild is reported when encoding a node whose children have not been
// re-blinded yet; encoding is only defined one level at a time.
const errLiveChild = common.ConstError("node has unresolved live children")

var emptyStringRlp = rlp.Encode(rlp.String{})

// EmptyNodeHash is the commitment of the empty trie, the hash of the RLP
// encoding of an empty string.
var EmptyNodeHash = common.Keccak256(emptyStringRlp)

// decodeNode decodes a single level of a trie from its RLP encoding. The
// children of branch and extension nodes are not materialized; they decode
// to blinded nodes holding whatever reference was embedded. Byte strings
// that are not a canonical node encoding are rejected with ErrMalformedNode.
func decodeNode(data []byte) (node, error) {
	if bytes.Equal(data, emptyStringRlp) {
		return emptyNode{}, nil
	}

	item, err := rlp.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	list, ok := item.(rlp.List)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, wanted list", ErrMalformedNode, item)
	}

	switch len(list.Items) {
	case 2:
		return decodePathNode(list)
	case 17:
		return decodeBranchNode(list)
	}
	return nil, fmt.Errorf("%w: invalid list length %d, wanted 2 or 17", ErrMalformedNode, len(list.Items))
}

// decodePathNode decodes a 2-item list into a leaf or an extension node,
// depending on the flag nibble of the compact path.
func decodePathNode(list rlp.List) (node, error) {
	compact, ok := list.Items[0].(rlp.String)
	if !ok {
		return nil, fmt.Errorf("%w: invalid path type %T, wanted string", ErrMalformedNode, list.Items[0])
	}
	path, isLeaf, err := compactToNibbles(compact.Str)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	if len(path) > 2*common.HashSize {
		return nil, fmt.Errorf("%w: path length %d exceeds %d nibbles", ErrMalformedNode, len(path), 2*common.HashSize)
	}

	if isLeaf {
		value, ok := list.Items[1].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: invalid leaf value type %T, wanted string", ErrMalformedNode, list.Items[1])
		}
		return &leafNode{path: path, value: value.Str}, nil
	}

	if len(path) == 0 {
		return nil, fmt.Errorf("%w: extension node with empty path", ErrMalformedNode)
	}
	next, err := decodeChildReference(list.Items[1])
	if err != nil {
		return nil, err
	}
	if isEmpty(next) {
		return nil, fmt.Errorf("%w: extension node with empty child", ErrMalformedNode)
	}
	return &extensionNode{path: path, next: next}, nil
}

// decodeBranchNode decodes a 17-item list into a branch node. The 17th item
// holds an inline value in generic tries; with fixed-length hashed keys no
// value ever terminates at a branch, so it must be empty.
func decodeBranchNode(list rlp.List) (node, error) {
	res := &branchNode{}
	for i, item := range list.Items[:16] {
		child, err := decodeChildReference(item)
		if err != nil {
			return nil, err
		}
		res.children[i] = child
	}
	value, ok := list.Items[16].(rlp.String)
	if !ok || len(value.Str) != 0 {
		return nil, fmt.Errorf("%w: branch node with non-empty value slot", ErrMalformedNode)
	}
	return res, nil
}

// decodeChildReference decodes a child slot of a branch or extension node
// into an empty node, a blinded node referenced by hash, or a blinded node
// carrying an embedded encoding.
func decodeChildReference(item rlp.Item) (node, error) {
	switch ref := item.(type) {
	case rlp.String:
		if len(ref.Str) == 0 {
			return emptyNode{}, nil
		}
		hash, err := common.HashFromBytes(ref.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid child reference: %v", ErrMalformedNode, err)
		}
		return &blindedNode{hash: hash}, nil
	case rlp.List:
		// An embedded child; its encoding must be shorter than a hash,
		// otherwise it would have been referenced by hash.
		encoding := rlp.EncodeInto(make([]byte, 0, common.HashSize), ref)
		if len(encoding) >= common.HashSize {
			return nil, fmt.Errorf("%w: embedded node of %d bytes, wanted < %d", ErrMalformedNode, len(encoding), common.HashSize)
		}
		return &blindedNode{inline: encoding}, nil
	}
	return nil, fmt.Errorf("%w: invalid child reference type %T", ErrMalformedNode, item)
}

// encodeNode computes the canonical encoding of a single level of the trie.
// It is only defined for nodes whose children are all blinded or empty; a
// node with live children below it cannot be referenced by hash yet and must
// be re-blinded by a commit first.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case emptyNode:
		return emptyStringRlp, nil
	case *leafNode:
		items := []rlp.Item{
			rlp.String{Str: nibblesToCompact(n.path, true)},
			rlp.String{Str: n.value},
		}
		return rlp.Encode(rlp.List{Items: items}), nil
	case *extensionNode:
		next, err := encodeChildReference(n.next)
		if err != nil {
			return nil, err
		}
		items := []rlp.Item{
			rlp.String{Str: nibblesToCompact(n.path, false)},
			next,
		}
		return rlp.Encode(rlp.List{Items: items}), nil
	case *branchNode:
		items := make([]rlp.Item, 17)
		for i, child := range n.children {
			ref, err := encodeChildReference(child)
			if err != nil {
				return nil, err
			}
			items[i] = ref
		}
		items[16] = rlp.String{}
		return rlp.Encode(rlp.List{Items: items}), nil
	}
	return nil, fmt.Errorf("cannot encode node of type %T", n)
}

// encodeChildReference renders a child slot for inclusion in the parent's
// encoding: an empty string for no subtree, the raw encoding for an embedded
// child, or the child's 32-byte hash.
func encodeChildReference(child node) (rlp.Item, error) {
	switch child := child.(type) {
	case emptyNode:
		return rlp.String{}, nil
	case *blindedNode:
		if child.inline != nil {
			return rlp.Encoded{Data: child.inline}, nil
		}
		return rlp.Hash{Hash: &child.hash}, nil
	}
	return nil, fmt.Errorf("%w: %v", errLiveChild, child)
}
