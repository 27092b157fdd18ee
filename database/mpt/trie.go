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

// ErrPreimageUnavailable is the error kind reported when the node source
// cannot produce the bytes a commitment stands for.
const ErrPreimageUnavailable = common.ConstError("preimage unavailable")

// NodeSource resolves trie nodes by their commitment. It is the only channel
// through which a partial trie reaches the world outside its own memory; it
// is passed in explicitly so that several tries (for instance the per-account
// storage tries of one state) can share a single source and its cache.
type NodeSource interface {
	// ResolveNode returns the encoding of the node committed to by the
	// given hash. Implementations report ErrPreimageUnavailable if the
	// preimage cannot be produced; they never return unverified bytes.
	ResolveNode(hash common.Hash) ([]byte, error)

	// RetainNode offers a locally produced node encoding for caching, so
	// that re-opening a just-committed node needs no external round trip.
	RetainNode(hash common.Hash, encoding []byte)
}

// Trie is a partial, lazily-resolved Merkle-Patricia trie rooted at a single
// commitment. Only the nodes actually touched by operations are held in
// memory; everything else remains blinded and is fetched on demand through
// the NodeSource.
//
// All keys are 32-byte hashes, navigated nibble by nibble. A Trie instance
// assumes exclusive, sequential access; concurrent use requires external
// serialization.
type Trie struct {
	source NodeSource
	root   node
}

// NewTrie creates a trie rooted at the given commitment. No node is fetched
// until the first operation needs it.
func NewTrie(root common.Hash, source NodeSource) *Trie {
	if root == EmptyNodeHash {
		return NewEmptyTrie(source)
	}
	return &Trie{source: source, root: &blindedNode{hash: root}}
}

// NewEmptyTrie creates a trie containing no keys.
func NewEmptyTrie(source NodeSource) *Trie {
	return &Trie{source: source, root: emptyNode{}}
}

// Get looks up the value stored for the given key, opening blinded nodes
// along the navigation path as needed. The second result reports whether the
// key is present; an absent key is not an error.
func (t *Trie) Get(key common.Hash) ([]byte, bool, error) {
	value, root, found, err := t.get(t.root, HashToNibblePath(key))
	if err != nil {
		return nil, false, err
	}
	t.root = root
	return value, found, nil
}

// Insert stores the given value for the given key, splitting leaves and
// extensions as needed. Inserting an empty value removes the key, since
// empty values have no canonical representation in the trie.
func (t *Trie) Insert(key common.Hash, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	root, err := t.insert(t.root, HashToNibblePath(key), value)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// Delete removes the given key and restores the canonical shape of the
// remaining trie by collapsing single-child branches. Deleting an absent key
// is a no-op.
func (t *Trie) Delete(key common.Hash) error {
	root, err := t.delete(t.root, HashToNibblePath(key))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// Commit re-encodes every opened node bottom-up, re-blinds it under its
// fresh hash, and returns the new root commitment. The produced encodings
// are handed to the NodeSource for retention, so re-opening the trie at the
// returned root requires no external fetches.
func (t *Trie) Commit() (common.Hash, error) {
	committed, err := t.commit(t.root)
	if err != nil {
		return common.Hash{}, err
	}
	switch n := committed.(type) {
	case emptyNode:
		t.root = n
		return EmptyNodeHash, nil
	case *blindedNode:
		// The root is always referenced by hash, even if its encoding
		// is shorter than one.
		if n.inline != nil {
			hash := common.Keccak256(n.inline)
			t.source.RetainNode(hash, n.inline)
			n = &blindedNode{hash: hash}
		}
		t.root = n
		return n.hash, nil
	}
	return common.Hash{}, fmt.Errorf("unexpected node after commit: %v", committed)
}

// open materializes one more level of the trie: it resolves the encoding the
// given blinded node stands for and decodes it. The children of the result
// start out blinded again.
func (t *Trie) open(n *blindedNode) (node, error) {
	data := n.inline
	if data == nil {
		resolved, err := t.source.ResolveNode(n.hash)
		if err != nil {
			return nil, err
		}
		data = resolved
	}
	return decodeNode(data)
}

// get walks the remaining navigation path below the given node. It returns
// the node to store in the parent slot, which differs from the input when a
// blinded node was opened along the way.
func (t *Trie) get(n node, path []Nibble) ([]byte, node, bool, error) {
	switch n := n.(type) {
	case emptyNode:
		return nil, n, false, nil
	case *blindedNode:
		opened, err := t.open(n)
		if err != nil {
			return nil, n, false, err
		}
		return t.get(opened, path)
	case *leafNode:
		if len(path) == len(n.path) && IsPrefixOf(n.path, path) {
			return n.value, n, true, nil
		}
		return nil, n, false, nil
	case *extensionNode:
		if !IsPrefixOf(n.path, path) {
			return nil, n, false, nil
		}
		value, next, found, err := t.get(n.next, path[len(n.path):])
		n.next = next
		return value, n, found, err
	case *branchNode:
		if len(path) == 0 {
			return nil, n, false, nil
		}
		value, child, found, err := t.get(n.children[path[0]], path[1:])
		n.children[path[0]] = child
		return value, n, found, err
	}
	return nil, n, false, fmt.Errorf("unsupported node type %T", n)
}

// insert stores the value below the given node and returns the node taking
// its place. All nodes on the navigation path end up opened and stay opened
// until the next commit; their stale hashes are never reused.
func (t *Trie) insert(n node, path []Nibble, value []byte) (node, error) {
	switch n := n.(type) {
	case emptyNode:
		return &leafNode{path: path, value: value}, nil
	case *blindedNode:
		opened, err := t.open(n)
		if err != nil {
			return nil, err
		}
		return t.insert(opened, path, value)
	case *leafNode:
		prefix := GetCommonPrefixLength(n.path, path)
		if prefix == len(path) && prefix == len(n.path) {
			n.value = value
			return n, nil
		}
		// Keys have a uniform length, so a diverging leaf always has at
		// least one nibble left on both sides of the divergence point.
		branch := newBranchNode()
		branch.children[n.path[prefix]] = &leafNode{path: copyPath(n.path[prefix+1:]), value: n.value}
		branch.children[path[prefix]] = &leafNode{path: copyPath(path[prefix+1:]), value: value}
		if prefix == 0 {
			return branch, nil
		}
		return &extensionNode{path: copyPath(path[:prefix]), next: branch}, nil
	case *extensionNode:
		prefix := GetCommonPrefixLength(n.path, path)
		if prefix == len(n.path) {
			next, err := t.insert(n.next, path[prefix:], value)
			if err != nil {
				return nil, err
			}
			n.next = next
			return n, nil
		}
		branch := newBranchNode()
		if prefix+1 == len(n.path) {
			branch.children[n.path[prefix]] = n.next
		} else {
			branch.children[n.path[prefix]] = &extensionNode{path: copyPath(n.path[prefix+1:]), next: n.next}
		}
		branch.children[path[prefix]] = &leafNode{path: copyPath(path[prefix+1:]), value: value}
		if prefix == 0 {
			return branch, nil
		}
		return &extensionNode{path: copyPath(path[:prefix]), next: branch}, nil
	case *branchNode:
		if len(path) == 0 {
			return nil, fmt.Errorf("navigation path exhausted at a branch node")
		}
		child, err := t.insert(n.children[path[0]], path[1:], value)
		if err != nil {
			return nil, err
		}
		n.children[path[0]] = child
		return n, nil
	}
	return nil, fmt.Errorf("unsupported node type %T", n)
}

// delete removes the path below the given node and returns the node taking
// its place. Branches left with a single child are collapsed on the way back
// up; a resulting chain of two extensions is merged into one, since a
// truncated extension chain would encode a different, wrong trie.
func (t *Trie) delete(n node, path []Nibble) (node, error) {
	switch n := n.(type) {
	case emptyNode:
		return n, nil
	case *blindedNode:
		opened, err := t.open(n)
		if err != nil {
			return nil, err
		}
		return t.delete(opened, path)
	case *leafNode:
		if len(path) == len(n.path) && IsPrefixOf(n.path, path) {
			return emptyNode{}, nil
		}
		return n, nil
	case *extensionNode:
		if !IsPrefixOf(n.path, path) {
			return n, nil
		}
		next, err := t.delete(n.next, path[len(n.path):])
		if err != nil {
			return nil, err
		}
		switch next := next.(type) {
		case emptyNode:
			return emptyNode{}, nil
		case *leafNode:
			return &leafNode{path: concatPaths(n.path, next.path), value: next.value}, nil
		case *extensionNode:
			return &extensionNode{path: concatPaths(n.path, next.path), next: next.next}, nil
		}
		n.next = next
		return n, nil
	case *branchNode:
		if len(path) == 0 {
			return n, nil
		}
		child, err := t.delete(n.children[path[0]], path[1:])
		if err != nil {
			return nil, err
		}
		n.children[path[0]] = child
		return t.collapseBranch(n)
	}
	return nil, fmt.Errorf("unsupported node type %T", n)
}

// collapseBranch restores the canonical shape of a branch after a deletion
// below it. A branch with two or more children is canonical as it is; a
// branch with a single remaining child must not stay in place and is merged
// with that child. The child is opened if needed, since the kind of merge
// depends on its variant.
func (t *Trie) collapseBranch(n *branchNode) (node, error) {
	count := 0
	remaining := -1
	for i, child := range n.children {
		if !isEmpty(child) {
			count++
			remaining = i
		}
	}
	if count > 1 {
		return n, nil
	}
	if count == 0 {
		return emptyNode{}, nil
	}

	child := n.children[remaining]
	if blinded, ok := child.(*blindedNode); ok {
		opened, err := t.open(blinded)
		if err != nil {
			return nil, err
		}
		child = opened
	}
	switch child := child.(type) {
	case *leafNode:
		return &leafNode{path: prependPath(Nibble(remaining), child.path), value: child.value}, nil
	case *extensionNode:
		return &extensionNode{path: prependPath(Nibble(remaining), child.path), next: child.next}, nil
	case *branchNode:
		return &extensionNode{path: []Nibble{Nibble(remaining)}, next: child}, nil
	}
	return nil, fmt.Errorf("%w: unexpected child variant %T in single-child branch", ErrMalformedNode, child)
}

// commit re-encodes the subtree below the given node bottom-up and returns
// the blinded node taking its place. Nodes whose encoding is shorter than a
// hash are retained inline for embedding in their parent; all others are
// hashed and their encodings handed to the source for retention.
func (t *Trie) commit(n node) (node, error) {
	switch n := n.(type) {
	case emptyNode, *blindedNode:
		return n, nil
	case *leafNode:
		encoding, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		return t.blind(encoding), nil
	case *extensionNode:
		next, err := t.commit(n.next)
		if err != nil {
			return nil, err
		}
		n.next = next
		encoding, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		return t.blind(encoding), nil
	case *branchNode:
		for i, child := range n.children {
			committed, err := t.commit(child)
			if err != nil {
				return nil, err
			}
			n.children[i] = committed
		}
		encoding, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		return t.blind(encoding), nil
	}
	return nil, fmt.Errorf("unsupported node type %T", n)
}

// blind turns a fresh node encoding into the blinded reference its parent
// will embed: the encoding itself if it is shorter than a hash, or its hash.
func (t *Trie) blind(encoding []byte) node {
	if len(encoding) < common.HashSize {
		return &blindedNode{inline: encoding}
	}
	hash := common.Keccak256(encoding)
	t.source.RetainNode(hash, encoding)
	return &blindedNode{hash: hash}
}

func copyPath(path []Nibble) []Nibble {
	res := make([]Nibble, len(path))
	copy(res, path)
	return res
}

func concatPaths(a, b []Nibble) []Nibble {
	res := make([]Nibble, 0, len(a)+len(b))
	res = append(res, a...)
	return append(res, b...)
}

func prependPath(head Nibble, tail []Nibble) []Nibble {
	res := make([]Nibble, 0, len(tail)+1)
	res = append(res, head)
	return append(res, tail...)
}
