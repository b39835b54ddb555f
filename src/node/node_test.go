package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/mosaicnetworks/naivechain/src/common"
	"github.com/mosaicnetworks/naivechain/src/config"
	"github.com/mosaicnetworks/naivechain/src/net"
)

func newTestNode(t *testing.T, blocks []chain.Block) (*Node, *net.InmemTransport) {
	store := chain.NewStore()
	if len(blocks) > 1 {
		if err := store.TryReplace(blocks); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	_, trans := net.NewInmemTransport("")

	conf := config.NewTestConfig(t, common.TestLogLevel)

	node := NewNode(conf, store, trans)
	node.RunAsync()

	return node, trans
}

// connectNodes links the transports of two nodes and opens a connection from
// the second to the first.
func connectNodes(from *Node, fromTrans *net.InmemTransport, to *Node, toTrans *net.InmemTransport) {
	fromTrans.Link(toTrans.LocalAddr(), toTrans)
	toTrans.Link(fromTrans.LocalAddr(), fromTrans)
	from.AddPeers(toTrans.LocalAddr())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func sameChain(a, b []chain.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func TestNodeMinedBlockReachesFreshNode(t *testing.T) {
	nodeA, transA := newTestNode(t, nil)
	defer nodeA.Shutdown()

	b1, err := nodeA.Mine("first block")
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	nodeB, transB := newTestNode(t, nil)
	defer nodeB.Shutdown()

	connectNodes(nodeB, transB, nodeA, transA)

	waitFor(t, "node B to sync", func() bool {
		return len(nodeB.GetBlocks()) == 2
	})

	blocks := nodeB.GetBlocks()
	if !chain.IsGenesis(blocks[0]) {
		t.Fatal("first block should be genesis")
	}
	if !blocks[1].Equal(b1) {
		t.Fatalf("second block should be %#v, not %#v", b1, blocks[1])
	}
}

func TestNodeMineBroadcasts(t *testing.T) {
	nodeA, transA := newTestNode(t, nil)
	defer nodeA.Shutdown()

	nodeB, transB := newTestNode(t, nil)
	defer nodeB.Shutdown()

	connectNodes(nodeA, transA, nodeB, transB)

	waitFor(t, "peers to register", func() bool {
		return len(nodeA.GetPeers()) == 1 && len(nodeB.GetPeers()) == 1
	})

	for i := 0; i < 3; i++ {
		if _, err := nodeA.Mine("data"); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	waitFor(t, "node B to receive mined blocks", func() bool {
		return len(nodeB.GetBlocks()) == 4
	})

	if !sameChain(nodeA.GetBlocks(), nodeB.GetBlocks()) {
		t.Fatal("nodes should hold the same chain")
	}
}

func TestNodeLongestChainWins(t *testing.T) {
	short := buildChain(3, "short")
	long := buildChain(5, "long")

	nodeA, transA := newTestNode(t, short)
	defer nodeA.Shutdown()

	nodeB, transB := newTestNode(t, long)
	defer nodeB.Shutdown()

	connectNodes(nodeA, transA, nodeB, transB)

	waitFor(t, "node A to adopt the longer chain", func() bool {
		return len(nodeA.GetBlocks()) == 5
	})

	if !sameChain(nodeA.GetBlocks(), long) {
		t.Fatal("node A should hold the longer chain")
	}
	if !sameChain(nodeB.GetBlocks(), long) {
		t.Fatal("node B should keep its chain")
	}
}

func TestNodeClosedPeerIsForgotten(t *testing.T) {
	nodeA, transA := newTestNode(t, nil)
	defer nodeA.Shutdown()

	nodeB, transB := newTestNode(t, nil)

	connectNodes(nodeA, transA, nodeB, transB)

	waitFor(t, "peers to register", func() bool {
		return len(nodeA.GetPeers()) == 1
	})

	peer := nodeA.registry.Peers()[0]
	peer.Conn.Close()

	waitFor(t, "peer to be deregistered", func() bool {
		return len(nodeA.GetPeers()) == 0
	})

	nodeB.Shutdown()

	if s := nodeB.GetState(); s != Shutdown {
		t.Fatalf("state should be Shutdown, not %s", s)
	}
}

func TestNodeUnlinkedPeerMissesBlocks(t *testing.T) {
	nodeA, transA := newTestNode(t, nil)
	defer nodeA.Shutdown()

	nodeB, transB := newTestNode(t, nil)
	defer nodeB.Shutdown()

	transA.Link(transB.LocalAddr(), transB)
	transB.Link(transA.LocalAddr(), transA)
	transA.Unlink(transB.LocalAddr())

	if err := transA.Connect(transB.LocalAddr()); err == nil {
		t.Fatal("connect to an unlinked peer should fail")
	}
	nodeA.AddPeers(transB.LocalAddr())

	if _, err := nodeA.Mine("partitioned"); err != nil {
		t.Fatalf("err: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if l := len(nodeB.GetBlocks()); l != 1 {
		t.Fatalf("node B should only hold genesis, not %d blocks", l)
	}
	if l := len(nodeA.GetPeers()); l != 0 {
		t.Fatalf("node A should have no peers, not %d", l)
	}

	// healing the partition lets node B catch up
	connectNodes(nodeA, transA, nodeB, transB)

	waitFor(t, "node B to sync after relinking", func() bool {
		return len(nodeB.GetBlocks()) == 2
	})

	if !sameChain(nodeA.GetBlocks(), nodeB.GetBlocks()) {
		t.Fatal("nodes should hold the same chain")
	}
}

func TestNodeStats(t *testing.T) {
	node, _ := newTestNode(t, buildChain(3, "a"))
	defer node.Shutdown()

	stats := node.GetStats()

	if stats["chain_length"] != "3" {
		t.Fatalf("chain_length should be 3, not %s", stats["chain_length"])
	}
	if stats["last_block_index"] != "2" {
		t.Fatalf("last_block_index should be 2, not %s", stats["last_block_index"])
	}
	if stats["num_peers"] != "0" {
		t.Fatalf("num_peers should be 0, not %s", stats["num_peers"])
	}
	if stats["state"] != "Running" {
		t.Fatalf("state should be Running, not %s", stats["state"])
	}
}
