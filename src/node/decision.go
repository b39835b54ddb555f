package node

import (
	"github.com/mosaicnetworks/naivechain/src/chain"
)

// responseAction is what a node does with a RESPONSE_BLOCKCHAIN.
type responseAction int

const (
	actionIgnore responseAction = iota
	actionAppend
	actionQueryAll
	actionReplace
)

// String ...
func (a responseAction) String() string {
	switch a {
	case actionIgnore:
		return "ignore"
	case actionAppend:
		return "append"
	case actionQueryAll:
		return "query-all"
	case actionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// responseKey indexes the decision table.
type responseKey struct {
	ahead  bool
	links  bool
	single bool
}

var responseTable = map[responseKey]responseAction{
	{ahead: false, links: false, single: false}: actionIgnore,
	{ahead: false, links: false, single: true}:  actionIgnore,
	{ahead: false, links: true, single: false}:  actionIgnore,
	{ahead: false, links: true, single: true}:   actionIgnore,
	{ahead: true, links: true, single: true}:    actionAppend,
	{ahead: true, links: true, single: false}:   actionAppend,
	{ahead: true, links: false, single: true}:   actionQueryAll,
	{ahead: true, links: false, single: false}:  actionReplace,
}

// decideResponse picks the action for received, which must be sorted by index
// and not empty, given the local tip.
func decideResponse(received []chain.Block, localTip chain.Block) responseAction {
	receivedTip := received[len(received)-1]

	key := responseKey{
		ahead:  receivedTip.Index > localTip.Index,
		links:  receivedTip.PreviousHash == localTip.Hash,
		single: len(received) == 1,
	}

	return responseTable[key]
}
