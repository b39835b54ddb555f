package node

import (
	"errors"
	"sort"
	"time"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/mosaicnetworks/naivechain/src/metrics"
	"github.com/mosaicnetworks/naivechain/src/net"
	"github.com/mosaicnetworks/naivechain/src/peers"
	"github.com/sirupsen/logrus"
)

// ErrEmptyResponse is returned when a RESPONSE_BLOCKCHAIN carries no blocks.
var ErrEmptyResponse = errors.New("empty blockchain response")

// Core is the gossip logic of a node, independent of the transport loop. It
// is not safe for concurrent use; Node serializes calls with its coreLock.
type Core struct {
	store        *chain.Store
	forkSelector *chain.ForkSelector
	registry     *peers.Registry

	// now returns the timestamp of locally mined blocks
	now func() float64

	logger *logrus.Entry
}

// NewCore ...
func NewCore(store *chain.Store, registry *peers.Registry, logger *logrus.Entry) *Core {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	core := &Core{
		store:        store,
		forkSelector: chain.NewForkSelector(store),
		registry:     registry,
		now:          unixSeconds,
		logger:       logger,
	}

	metrics.SetChainLength(store.Len())

	return core
}

// unixSeconds returns the current time in seconds, with millisecond
// precision.
func unixSeconds() float64 {
	return float64(time.Now().UnixNano()/int64(time.Millisecond)) / 1000
}

// Mine builds the block following the local tip with the given payload,
// appends it and broadcasts it.
func (c *Core) Mine(data string) (chain.Block, error) {
	block, err := c.store.AppendNext(data, c.now())
	metrics.ObserveMined(err)
	if err != nil {
		c.observeRejected(err)
		return chain.Block{}, err
	}

	c.logger.WithFields(logrus.Fields{
		"index": block.Index,
		"hash":  block.Hash,
	}).Info("Mined block")

	metrics.SetChainLength(c.store.Len())
	c.broadcastLatest()

	return block, nil
}

// ProcessResponse handles the blocks of a RESPONSE_BLOCKCHAIN and returns the
// action that was taken. The returned error is set when the action failed.
func (c *Core) ProcessResponse(blocks []chain.Block) (responseAction, error) {
	if len(blocks) == 0 {
		return actionIgnore, ErrEmptyResponse
	}

	sorted := make([]chain.Block, len(blocks))
	copy(sorted, blocks)
	sort.Stable(chain.SortedBlocks(sorted))

	localTip := c.store.Tip()
	receivedTip := sorted[len(sorted)-1]
	action := decideResponse(sorted, localTip)

	logger := c.logger.WithFields(logrus.Fields{
		"received_index": receivedTip.Index,
		"local_index":    localTip.Index,
		"blocks":         len(sorted),
		"action":         action.String(),
	})

	switch action {
	case actionIgnore:
		logger.Debug("Received chain is not ahead. Do nothing")
	case actionAppend:
		if _, err := c.store.TryAppend(receivedTip); err != nil {
			c.observeRejected(err)
			return action, err
		}
		logger.Debug("Appending received block to our chain")
		metrics.SetChainLength(c.store.Len())
		c.broadcastLatest()
	case actionQueryAll:
		logger.Debug("Querying chain from peers")
		c.registry.Broadcast(net.NewQueryAllMessage())
	case actionReplace:
		if _, err := c.forkSelector.Resolve(sorted); err != nil {
			c.observeRejected(err)
			return action, err
		}
		logger.Info("Replaced chain with received chain")
		metrics.ObserveReplaced()
		metrics.SetChainLength(c.store.Len())
		c.broadcastLatest()
	}

	return action, nil
}

// responseLatest builds a response carrying the local tip.
func (c *Core) responseLatest() (*net.Message, error) {
	return net.NewResponseMessage([]chain.Block{c.store.Tip()})
}

// responseAll builds a response carrying the whole local chain.
func (c *Core) responseAll() (*net.Message, error) {
	return net.NewResponseMessage(c.store.All())
}

func (c *Core) broadcastLatest() {
	msg, err := c.responseLatest()
	if err != nil {
		c.logger.WithError(err).Error("Encoding latest block")
		return
	}
	c.registry.Broadcast(msg)
}

func (c *Core) observeRejected(err error) {
	reason := "unknown"
	if chainErr, ok := err.(chain.ChainErr); ok {
		reason = chainErr.Type().String()
	}
	metrics.ObserveRejected(reason)
}
