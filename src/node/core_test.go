package node

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/mosaicnetworks/naivechain/src/common"
	"github.com/mosaicnetworks/naivechain/src/net"
	"github.com/mosaicnetworks/naivechain/src/peers"
)

type recordingConn struct {
	sync.Mutex
	addr string
	sent []*net.Message
}

func (c *recordingConn) RemoteAddr() string { return c.addr }

func (c *recordingConn) Send(msg *net.Message) error {
	c.Lock()
	defer c.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) messages() []*net.Message {
	c.Lock()
	defer c.Unlock()
	res := make([]*net.Message, len(c.sent))
	copy(res, c.sent)
	return res
}

// buildChain returns a valid chain of n blocks, genesis included. Chains
// built with different tags diverge right after genesis.
func buildChain(n int, tag string) []chain.Block {
	blocks := []chain.Block{chain.Genesis()}
	for i := 1; i < n; i++ {
		prev := blocks[i-1]
		blocks = append(blocks, chain.NextBlock(prev, float64(chain.GenesisTimestamp+i), fmt.Sprintf("%s%d", tag, i)))
	}
	return blocks
}

func initCore(t *testing.T, length int, tag string) (*Core, *recordingConn) {
	store := chain.NewStore()
	if length > 1 {
		if err := store.TryReplace(buildChain(length, tag)); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	logger := common.NewTestEntry(t, common.TestLogLevel)
	registry := peers.NewRegistry(logger)

	conn := &recordingConn{addr: "peer"}
	if !registry.Register(peers.NewPeer(conn)) {
		t.Fatal("registering peer should succeed")
	}

	return NewCore(store, registry, logger), conn
}

func TestDecisionTable(t *testing.T) {
	local := buildChain(3, "a")
	localTip := local[2]

	linking := chain.NextBlock(localTip, 10, "next")
	farAhead := buildChain(6, "b")

	cases := []struct {
		name     string
		received []chain.Block
		expected responseAction
	}{
		{"same tip", []chain.Block{localTip}, actionIgnore},
		{"behind", local[:2], actionIgnore},
		{"behind single", []chain.Block{local[1]}, actionIgnore},
		{"linking single", []chain.Block{linking}, actionAppend},
		{"linking several", []chain.Block{localTip, linking}, actionAppend},
		{"ahead single", []chain.Block{farAhead[5]}, actionQueryAll},
		{"ahead several", farAhead, actionReplace},
	}

	for _, c := range cases {
		if a := decideResponse(c.received, localTip); a != c.expected {
			t.Fatalf("%s: action should be %s, not %s", c.name, c.expected, a)
		}
	}
}

func TestProcessResponseEmpty(t *testing.T) {
	core, conn := initCore(t, 1, "")

	if _, err := core.ProcessResponse(nil); err != ErrEmptyResponse {
		t.Fatalf("empty response should return ErrEmptyResponse, not %v", err)
	}
	if l := core.store.Len(); l != 1 {
		t.Fatalf("chain length should be 1, not %d", l)
	}
	if n := len(conn.messages()); n != 0 {
		t.Fatalf("no message should be sent, got %d", n)
	}
}

func TestProcessResponseAppend(t *testing.T) {
	core, conn := initCore(t, 2, "a")

	next := chain.NextBlock(core.store.Tip(), 100, "from peer")

	action, err := core.ProcessResponse([]chain.Block{next})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if action != actionAppend {
		t.Fatalf("action should be append, not %s", action)
	}
	if l := core.store.Len(); l != 3 {
		t.Fatalf("chain length should be 3, not %d", l)
	}
	if tip := core.store.Tip(); !tip.Equal(next) {
		t.Fatalf("tip should be %#v, not %#v", next, tip)
	}

	msgs := conn.messages()
	if len(msgs) != 1 || msgs[0].Type != net.ResponseBlockchain {
		t.Fatalf("the new tip should be broadcast, got %v", msgs)
	}
	blocks, err := msgs[0].Blocks()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(blocks) != 1 || !blocks[0].Equal(next) {
		t.Fatalf("broadcast should carry the new tip, got %v", blocks)
	}
}

func TestProcessResponseAppendInvalid(t *testing.T) {
	core, conn := initCore(t, 2, "a")

	next := chain.NextBlock(core.store.Tip(), 100, "from peer")
	next.Data = "tampered"

	_, err := core.ProcessResponse([]chain.Block{next})
	if !chain.IsChainErr(err, chain.HashMismatch) {
		t.Fatalf("err should be HashMismatch, not %v", err)
	}
	if l := core.store.Len(); l != 2 {
		t.Fatalf("chain length should be 2, not %d", l)
	}
	if n := len(conn.messages()); n != 0 {
		t.Fatalf("nothing should be broadcast, got %d messages", n)
	}
}

func TestProcessResponseQueryAll(t *testing.T) {
	core, conn := initCore(t, 2, "a")

	other := buildChain(5, "b")

	action, err := core.ProcessResponse([]chain.Block{other[4]})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if action != actionQueryAll {
		t.Fatalf("action should be query-all, not %s", action)
	}
	if l := core.store.Len(); l != 2 {
		t.Fatalf("chain length should be 2, not %d", l)
	}

	msgs := conn.messages()
	if len(msgs) != 1 || msgs[0].Type != net.QueryAll {
		t.Fatalf("QUERY_ALL should be broadcast, got %v", msgs)
	}
}

func TestProcessResponseReplace(t *testing.T) {
	core, conn := initCore(t, 3, "a")

	longer := buildChain(5, "b")

	// Shuffled on purpose, the node sorts by index.
	shuffled := []chain.Block{longer[3], longer[0], longer[4], longer[2], longer[1]}

	action, err := core.ProcessResponse(shuffled)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if action != actionReplace {
		t.Fatalf("action should be replace, not %s", action)
	}

	all := core.store.All()
	if len(all) != 5 {
		t.Fatalf("chain length should be 5, not %d", len(all))
	}
	for i := range all {
		if !all[i].Equal(longer[i]) {
			t.Fatalf("block %d should be %#v, not %#v", i, longer[i], all[i])
		}
	}

	msgs := conn.messages()
	if len(msgs) != 1 || msgs[0].Type != net.ResponseBlockchain {
		t.Fatalf("the new tip should be broadcast, got %v", msgs)
	}
}

func TestProcessResponseShorter(t *testing.T) {
	core, conn := initCore(t, 3, "a")
	before := core.store.All()

	action, err := core.ProcessResponse(buildChain(2, "b"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if action != actionIgnore {
		t.Fatalf("action should be ignore, not %s", action)
	}

	after := core.store.All()
	if len(after) != len(before) || !after[2].Equal(before[2]) {
		t.Fatal("chain should be unchanged")
	}
	if n := len(conn.messages()); n != 0 {
		t.Fatalf("nothing should be sent, got %d messages", n)
	}
}

func TestProcessResponseReplaceInvalid(t *testing.T) {
	core, _ := initCore(t, 2, "a")

	bad := buildChain(5, "b")
	bad[2].Data = "tampered"

	_, err := core.ProcessResponse(bad)
	if !chain.IsChainErr(err, chain.HashMismatch) {
		t.Fatalf("err should be HashMismatch, not %v", err)
	}
	if l := core.store.Len(); l != 2 {
		t.Fatalf("chain length should be 2, not %d", l)
	}
}

func TestCoreMine(t *testing.T) {
	core, conn := initCore(t, 1, "")
	core.now = func() float64 { return 1465154706.5 }

	prev := core.store.Tip()

	block, err := core.Mine("hello")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !chain.IsValidNewBlock(block, prev) {
		t.Fatal("mined block should be valid against the previous tip")
	}
	if block.Timestamp != 1465154706.5 {
		t.Fatalf("timestamp should be 1465154706.5, not %v", block.Timestamp)
	}

	msgs := conn.messages()
	if len(msgs) != 1 || msgs[0].Type != net.ResponseBlockchain {
		t.Fatalf("the mined block should be broadcast, got %v", msgs)
	}
}
