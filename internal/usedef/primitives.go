package usedef

import "github.com/zenhumany/egalito/internal/tree"

// UseReg implements the use_reg operand-class helper: for every origin
// currently exposed for reg, record it as an origin of st's read.
func UseReg(ws *WorkSet, st *State, reg int) {
	if reg < 0 {
		return
	}
	for _, origin := range ws.RegExposed[reg] {
		st.AddRegRef(reg, origin)
	}
}

// DefReg implements def_reg: if reg is a real register, record t as its
// definition in st and strong-kill the exposed set to {st}.
func DefReg(ws *WorkSet, st *State, reg int, t *tree.Tree) {
	if reg < 0 {
		return
	}
	st.AddRegDef(reg, t)
	ws.RegExposed[reg] = []*State{st}
}

// DefMem implements def_mem: record the write in st and apply the Set
// (strong-write) policy to the node's mem_exposed.
func DefMem(ws *WorkSet, st *State, place *tree.Tree, reg int) {
	st.AddMemDef(place, reg)
	ws.MemExposed.Set(place, st)
}

// UseMem implements use_mem: every currently exposed entry whose
// MemLocation equals place's becomes a recorded origin of st's read.
func UseMem(ws *WorkSet, st *State, place *tree.Tree, reg int) {
	for _, origin := range ws.MemExposed.MatchingOrigins(place) {
		st.AddMemRef(reg, origin)
	}
}
