// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package preimage

import (
	"fmt"

	"github.com/ethereum-optimism/kona-repro-pat/common"
	"github.com/ethereum-optimism/kona-repro-pat/database/mpt"
)

// Provider fetches typed preimages through an Oracle, verifies every result
// against the hash it was requested for, and caches verified preimages so
// that repeated resolutions of the same node or header do not hit the oracle
// again. It implements mpt.NodeSource and is the intended source for all
// tries of one state.
type Provider struct {
	oracle Oracle
	cache  *common.LruCache[common.Hash, []byte]
}

// DefaultCacheCapacity is the number of verified preimages a Provider
// retains when no explicit capacity is configured.
const DefaultCacheCapacity = 4096

// NewProvider creates a Provider on top of the given oracle. A non-positive
// cache capacity selects DefaultCacheCapacity.
func NewProvider(oracle Oracle, cacheCapacity int) *Provider {
	if cacheCapacity <= 0 {
		cacheCapacity = DefaultCacheCapacity
	}
	return &Provider{
		oracle: oracle,
		cache:  common.NewLruCache[common.Hash, []byte](cacheCapacity),
	}
}

// fetch implements the common fetch discipline: cache lookup, then hint,
// then the blocking get, then verification. Data that does not hash to the
// requested value is discarded, so a misbehaving oracle can stall progress
// but never corrupt it.
func (p *Provider) fetch(hash common.Hash, hint []byte) ([]byte, error) {
	if data, found := p.cache.Get(hash); found {
		return data, nil
	}
	p.oracle.Hint(hint)
	data, err := p.oracle.Get(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mpt.ErrPreimageUnavailable, err)
	}
	if common.Keccak256(data) != hash {
		return nil, fmt.Errorf("%w: preimage of %v failed verification", mpt.ErrPreimageUnavailable, hash)
	}
	p.cache.Set(hash, data)
	return data, nil
}

// ResolveNode returns the verified encoding of the trie node committed to by
// the given hash.
func (p *Provider) ResolveNode(hash common.Hash) ([]byte, error) {
	return p.fetch(hash, StateNodeHint(hash))
}

// RetainNode keeps a locally produced node encoding in the verification
// cache, making subsequent resolutions of the same hash local.
func (p *Provider) RetainNode(hash common.Hash, encoding []byte) {
	p.cache.Set(hash, encoding)
}

// ResolveHeader returns the verified RLP encoding of the block header with
// the given hash.
func (p *Provider) ResolveHeader(hash common.Hash) ([]byte, error) {
	return p.fetch(hash, BlockHeaderHint(hash))
}

// ResolveCode returns the verified contract code with the given hash.
func (p *Provider) ResolveCode(hash common.Hash) ([]byte, error) {
	return p.fetch(hash, ContractCodeHint(hash))
}
