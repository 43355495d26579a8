package chunk

import "testing"

// chain wires the blocks' Succs/Preds for a straight-line chain a -> b -> c...
func chain(blocks ...*Block) {
	for i := 0; i+1 < len(blocks); i++ {
		blocks[i].Succs = append(blocks[i].Succs, blocks[i+1])
		blocks[i+1].Preds = append(blocks[i+1].Preds, blocks[i])
	}
}

func newTestFunction(blocks ...*Block) *Function {
	fn := NewFunction("f", 0, 0)
	for i, b := range blocks {
		b.AddInstruction(NewInstruction(int64(i*4), 4, &RawInstruction{}))
		fn.AddBlock(b)
	}
	return fn
}

func idsOf(groups [][]NodeID) []NodeID {
	var out []NodeID
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestSCCOrderStraightLine(t *testing.T) {
	a, b, c := NewBlock(), NewBlock(), NewBlock()
	chain(a, b, c)
	fn := newTestFunction(a, b, c)

	cfg := NewControlFlowGraph(fn)
	order := cfg.SCCOrder()

	for _, g := range order {
		if len(g) != 1 {
			t.Fatalf("straight-line CFG should have only singleton SCCs, got %v", g)
		}
	}

	ids := idsOf(order)
	if len(ids) != 3 {
		t.Fatalf("expected 3 nodes total, got %d", len(ids))
	}
	pos := map[NodeID]int{}
	for i, id := range ids {
		pos[id] = i
	}
	if pos[0] > pos[1] || pos[1] > pos[2] {
		t.Errorf("expected forward topological order 0,1,2, got %v", ids)
	}
}

func TestSCCOrderLoop(t *testing.T) {
	// a -> b -> c -> b (loop between b and c), a is the sole entry.
	a, b, c := NewBlock(), NewBlock(), NewBlock()
	a.Succs = append(a.Succs, b)
	b.Preds = append(b.Preds, a, c)
	b.Succs = append(b.Succs, c)
	c.Preds = append(c.Preds, b)
	c.Succs = append(c.Succs, b)
	fn := newTestFunction(a, b, c)

	cfg := NewControlFlowGraph(fn)
	order := cfg.SCCOrder()

	var loopGroup []NodeID
	var aGroup []NodeID
	for _, g := range order {
		if len(g) == 2 {
			loopGroup = g
		} else if len(g) == 1 && g[0] == 0 {
			aGroup = g
		}
	}
	if loopGroup == nil {
		t.Fatalf("expected one 2-node SCC for the b/c loop, got groups %v", order)
	}
	if aGroup == nil {
		t.Fatalf("expected a singleton SCC for node 0, got groups %v", order)
	}

	aPos, loopPos := -1, -1
	for i, g := range order {
		for _, id := range g {
			if id == 0 {
				aPos = i
			}
		}
		if len(g) == 2 {
			loopPos = i
		}
	}
	if aPos > loopPos {
		t.Errorf("entry node's group should come before the loop's group, got order %v", order)
	}
}

func TestNodeBackwardLinks(t *testing.T) {
	a, b := NewBlock(), NewBlock()
	chain(a, b)
	fn := newTestFunction(a, b)

	cfg := NewControlFlowGraph(fn)
	nodeB := cfg.Get(1)
	links := nodeB.BackwardLinks()
	if len(links) != 1 || links[0] != 0 {
		t.Errorf("node b's backward links = %v, want [0]", links)
	}

	nodeA := cfg.Get(0)
	if len(nodeA.BackwardLinks()) != 0 {
		t.Errorf("node a should have no predecessors, got %v", nodeA.BackwardLinks())
	}
}

func TestControlFlowGraphLen(t *testing.T) {
	a, b, c := NewBlock(), NewBlock(), NewBlock()
	chain(a, b, c)
	fn := newTestFunction(a, b, c)

	cfg := NewControlFlowGraph(fn)
	if cfg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cfg.Len())
	}
}
