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

//go:generate mockgen -source oracle.go -destination oracle_mocks.go -package preimage

import (
	"github.com/ethereum-optimism/kona-repro-pat/common"
)

// Oracle is a source of hash preimages. Get is the only way to obtain data;
// Hint lets the consumer announce what it is about to ask for, so that a
// remote implementation can prepare the preimage before the blocking Get
// arrives. Hints are best-effort and carry no reply.
type Oracle interface {
	// Get returns the preimage of the given hash. Implementations are not
	// required to verify the result; callers must check it themselves.
	Get(hash common.Hash) ([]byte, error)

	// Hint announces an upcoming request. The payload is a hint kind
	// followed by the identifying data, as produced by the hint
	// constructors in this package.
	Hint(data []byte)
}

// Hint kinds understood by the oracle's server side. Each names the domain
// the subsequent Get keys into.
const (
	hintStateNode    = "state-node"
	hintBlockHeader  = "block-header"
	hintContractCode = "contract-code"
)

func makeHint(kind string, hash common.Hash) []byte {
	res := make([]byte, 0, len(kind)+1+common.HashSize)
	res = append(res, kind...)
	res = append(res, ' ')
	return append(res, hash[:]...)
}

// StateNodeHint announces that the preimage of a trie node commitment is
// about to be requested.
func StateNodeHint(hash common.Hash) []byte {
	return makeHint(hintStateNode, hash)
}

// BlockHeaderHint announces that an RLP-encoded block header is about to be
// requested by its hash.
func BlockHeaderHint(hash common.Hash) []byte {
	return makeHint(hintBlockHeader, hash)
}

// ContractCodeHint announces that contract code is about to be requested by
// its hash.
func ContractCodeHint(hash common.Hash) []byte {
	return makeHint(hintContractCode, hash)
}
