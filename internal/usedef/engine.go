package usedef

import (
	"fmt"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/logging"
	"github.com/zenhumany/egalito/internal/tree"
)

// Engine runs the use-def analysis over a ControlFlowGraph and retains
// both the final exposed sets per node and the per-instruction State for
// every analyzed instruction.
type Engine struct {
	Factory *tree.Factory
	Config  *Configuration
	Logger  *logging.LoggerCloser

	final  map[chunk.NodeID]*WorkSet
	states map[*chunk.Instruction]*State
}

// NewEngine returns a ready-to-use Engine. A nil Logger falls back to the
// process-wide default logger on first use that needs one.
func NewEngine(f *tree.Factory, cfg *Configuration) *Engine {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	return &Engine{
		Factory: f,
		Config:  cfg,
		final:   make(map[chunk.NodeID]*WorkSet),
		states:  make(map[*chunk.Instruction]*State),
	}
}

func (e *Engine) log() *logging.LoggerCloser {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Default()
}

// StateFor returns the recorded use-def state for instr, or nil if instr
// was never analyzed (skipped as a literal, or not visited).
func (e *Engine) StateFor(instr *chunk.Instruction) *State { return e.states[instr] }

// RegExposed returns node id's final register-exposed set after Analyze.
func (e *Engine) RegExposed(id chunk.NodeID) map[int][]*State {
	if ws := e.final[id]; ws != nil {
		return ws.RegExposed
	}
	return nil
}

// MemExposed returns node id's final memory-exposed set after Analyze.
func (e *Engine) MemExposed(id chunk.NodeID) *MemOriginList {
	if ws := e.final[id]; ws != nil {
		return ws.MemExposed
	}
	return nil
}

// Analyze runs the driver over cfg using the caller-supplied node order:
// a partition into groups (typically the loops-first SCC decomposition of
// the CFG). Each group is analyzed once, and — if it has more than one
// node — a second time, per §4.3's two-pass fixed-point approximation.
// This is a deliberate, documented non-exact approximation; do not
// "improve" it to a real fixed point without also updating every pass
// that depends on this behavior. A non-nil error is always
// tree.ErrUnsupportedForm (§10.3), wrapped with the address of the
// instruction that produced it, and analysis of the
// remaining groups is abandoned rather than continued over stale state.
func (e *Engine) Analyze(cfg *chunk.ControlFlowGraph, order [][]chunk.NodeID) error {
	for _, group := range order {
		e.log().Debug("analyzing group", "nodes", len(group))
		if err := e.analyzeGraph(cfg, group); err != nil {
			return err
		}
		if len(group) > 1 {
			if err := e.analyzeGraph(cfg, group); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) analyzeGraph(cfg *chunk.ControlFlowGraph, group []chunk.NodeID) error {
	for _, id := range group {
		node := cfg.Get(id)
		preds := make([]*WorkSet, 0, len(node.BackwardLinks()))
		for _, p := range node.BackwardLinks() {
			preds = append(preds, e.final[p])
		}
		ws := NewWorkSet()
		ws.TransitionTo(preds)
		if err := e.analyzeNode(node, ws); err != nil {
			return err
		}
		e.final[id] = ws
	}
	return nil
}

// analyzeNode is the single forward pass over one node's instructions
// (§4.3): each is skipped if its semantic is a literal, otherwise routed
// through the opcode dispatch table.
func (e *Engine) analyzeNode(node *chunk.Node, ws *WorkSet) error {
	for _, instr := range node.GetBlock() {
		sem := instr.GetSemantic()
		if sem == nil || sem.IsLiteral() {
			continue
		}
		assembled, ok := sem.(chunk.Assembled)
		if !ok {
			continue
		}
		asm := assembled.GetAssembly()
		if asm == nil {
			continue
		}
		st := NewState(instr)
		e.states[instr] = st

		handler, ok := handlers[asm.GetID()]
		if !ok {
			continue
		}
		if !e.Config.Enabled(asm.GetID()) {
			continue
		}
		if err := handler(e, ws, st, asm); err != nil {
			return fmt.Errorf("instruction at 0x%x: %w", instr.GetAddress(), err)
		}
	}
	return nil
}
