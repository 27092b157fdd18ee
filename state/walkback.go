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
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// MaxBlockHashDepth is the number of ancestors whose hashes are reachable
// from a given head, matching the lookback window of the BLOCKHASH
// instruction.
const MaxBlockHashDepth = 256

// ErrDepthOutOfRange is reported when a block hash is requested for an
// ancestor beyond the lookback window or before genesis.
const ErrDepthOutOfRange = common.ConstError("block depth out of range")

// HeaderSource resolves RLP-encoded block headers by their hash; it is the
// slice of the Provider's surface the header chain needs.
type HeaderSource interface {
	ResolveHeader(hash common.Hash) ([]byte, error)
}

// HeaderChain provides the hashes of the ancestors of a fixed head block by
// walking the parent-hash chain of fetched headers. Each header is fetched
// at most once; the hashes found on the way are memoized.
type HeaderChain struct {
	source   HeaderSource
	head     *types.Header
	headHash common.Hash

	// hashes maps block numbers to the hashes discovered so far, covering
	// a contiguous range down from the head.
	hashes map[uint64]common.Hash
	// lowest is the smallest block number present in hashes.
	lowest uint64
}

// NewHeaderChain creates a header chain anchored at the block with the given
// hash. The head header is fetched and verified immediately, since every
// depth computation depends on its block number.
func NewHeaderChain(source HeaderSource, head common.Hash) (*HeaderChain, error) {
	data, err := source.ResolveHeader(head)
	if err != nil {
		return nil, err
	}
	header := &types.Header{}
	if err := rlp.DecodeBytes(data, header); err != nil {
		return nil, fmt.Errorf("failed to decode head block header: %w", err)
	}
	number := header.Number.Uint64()
	return &HeaderChain{
		source:   source,
		head:     header,
		headHash: head,
		hashes:   map[uint64]common.Hash{number: head},
		lowest:   number,
	}, nil
}

// Head returns the header the chain is anchored at.
func (c *HeaderChain) Head() *types.Header {
	return c.head
}

// BlockHashAt returns the hash of the ancestor the given number of blocks
// below the head. Depth 0 is the head itself. Depths beyond the lookback
// window or beyond genesis report ErrDepthOutOfRange.
func (c *HeaderChain) BlockHashAt(depth uint64) (common.Hash, error) {
	headNumber := c.head.Number.Uint64()
	if depth > MaxBlockHashDepth || depth > headNumber {
		return common.Hash{}, fmt.Errorf("%w: depth %d below block %d", ErrDepthOutOfRange, depth, headNumber)
	}
	target := headNumber - depth
	for c.lowest > target {
		parent, err := c.fetchParentOf(c.hashes[c.lowest])
		if err != nil {
			return common.Hash{}, err
		}
		c.lowest--
		c.hashes[c.lowest] = parent
	}
	return c.hashes[target], nil
}

// fetchParentOf fetches the header with the given hash and extracts the hash
// of its parent.
func (c *HeaderChain) fetchParentOf(hash common.Hash) (common.Hash, error) {
	data, err := c.source.ResolveHeader(hash)
	if err != nil {
		return common.Hash{}, err
	}
	header := &types.Header{}
	if err := rlp.DecodeBytes(data, header); err != nil {
		return common.Hash{}, fmt.Errorf("failed to decode block header %v: %w", hash, err)
	}
	return common.Hash(header.ParentHash), nil
}
