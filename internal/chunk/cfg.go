package chunk

// NodeID identifies a node (basic block) within a ControlFlowGraph.
type NodeID int

// Node is the consumed CFG interface of §6: a block plus its backward
// (predecessor) edges.
type Node struct {
	ID    NodeID
	block *Block
	preds []NodeID
}

func (n *Node) GetBlock() []*Instruction { return n.block.GetBlock() }
func (n *Node) BackwardLinks() []NodeID  { return n.preds }

// ControlFlowGraph is built once per function from its Blocks and their
// Preds/Succs edges, and handed to the usedef engine's driver together
// with a node order.
type ControlFlowGraph struct {
	nodes []*Node
	index map[*Block]NodeID
}

// NewControlFlowGraph builds a graph over fn's blocks in the order given,
// deriving NodeIDs positionally and backward links from each block's Preds.
func NewControlFlowGraph(fn *Function) *ControlFlowGraph {
	g := &ControlFlowGraph{index: make(map[*Block]NodeID, len(fn.Blocks))}
	for i, b := range fn.Blocks {
		g.index[b] = NodeID(i)
	}
	for i, b := range fn.Blocks {
		n := &Node{ID: NodeID(i), block: b}
		for _, p := range b.Preds {
			if id, ok := g.index[p]; ok {
				n.preds = append(n.preds, id)
			}
		}
		g.nodes = append(g.nodes, n)
	}
	return g
}

// Get returns the node for id, satisfying the consumed CFG interface's
// get(NodeId) -> Node.
func (g *ControlFlowGraph) Get(id NodeID) *Node { return g.nodes[id] }

// Len reports the number of nodes, used by drivers to build a default
// (identity) node order when the caller doesn't supply one.
func (g *ControlFlowGraph) Len() int { return len(g.nodes) }

// SCCOrder computes the graph's strongly connected components via
// Tarjan's algorithm and returns them in reverse topological order (the
// order a forward dataflow driver should visit them in), each inner slice
// being one group to hand to Engine.Analyze — singleton groups for
// ordinary nodes, multi-node groups for loops, which Analyze re-visits
// once more per §4.3's two-pass rule.
func (g *ControlFlowGraph) SCCOrder() [][]NodeID {
	succs := make(map[NodeID][]NodeID, len(g.nodes))
	for _, n := range g.nodes {
		for _, p := range n.preds {
			succs[p] = append(succs[p], n.ID)
		}
	}

	s := &sccState{
		succs:   succs,
		index:   make(map[NodeID]int),
		lowlink: make(map[NodeID]int),
		onStack: make(map[NodeID]bool),
	}
	for _, n := range g.nodes {
		if _, visited := s.index[n.ID]; !visited {
			s.strongConnect(n.ID)
		}
	}

	out := make([][]NodeID, len(s.components))
	for i, c := range s.components {
		out[len(s.components)-1-i] = c
	}
	return out
}

type sccState struct {
	succs      map[NodeID][]NodeID
	index      map[NodeID]int
	lowlink    map[NodeID]int
	onStack    map[NodeID]bool
	stack      []NodeID
	counter    int
	components [][]NodeID
}

func (s *sccState) strongConnect(v NodeID) {
	s.index[v] = s.counter
	s.lowlink[v] = s.counter
	s.counter++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, w := range s.succs[v] {
		if _, visited := s.index[w]; !visited {
			s.strongConnect(w)
			if s.lowlink[w] < s.lowlink[v] {
				s.lowlink[v] = s.lowlink[w]
			}
		} else if s.onStack[w] {
			if s.index[w] < s.lowlink[v] {
				s.lowlink[v] = s.index[w]
			}
		}
	}

	if s.lowlink[v] == s.index[v] {
		var component []NodeID
		for {
			n := len(s.stack) - 1
			w := s.stack[n]
			s.stack = s.stack[:n]
			s.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		s.components = append(s.components, component)
	}
}
