package usedef

// WorkSet holds one CFG node's exposed sets while it is being analyzed.
// After analysis it becomes that node's final reg_exposed/mem_exposed
// (§3, §4.3).
type WorkSet struct {
	RegExposed map[int][]*State
	MemExposed *MemOriginList
}

// NewWorkSet returns an empty work set.
func NewWorkSet() *WorkSet {
	return &WorkSet{RegExposed: make(map[int][]*State), MemExposed: NewMemOriginList()}
}

// addRegExposed appends origin to RegExposed[reg], deduplicated by
// pointer identity, per §4.3's register-seeding rule.
func (ws *WorkSet) addRegExposed(reg int, origin *State) {
	for _, o := range ws.RegExposed[reg] {
		if o == origin {
			return
		}
	}
	ws.RegExposed[reg] = append(ws.RegExposed[reg], origin)
}

// TransitionTo resets ws and seeds it by union over every predecessor's
// exposed sets: register origins are deduplicated by pointer, and memory
// origin lists are concatenated via the Add policy.
func (ws *WorkSet) TransitionTo(preds []*WorkSet) {
	ws.RegExposed = make(map[int][]*State)
	ws.MemExposed = NewMemOriginList()
	for _, p := range preds {
		if p == nil {
			continue
		}
		for reg, origins := range p.RegExposed {
			for _, o := range origins {
				ws.addRegExposed(reg, o)
			}
		}
		ws.MemExposed.AddList(p.MemExposed)
	}
}

// Clone returns an independent copy of ws, used when a node has no
// predecessors yet the caller wants a non-nil starting point.
func (ws *WorkSet) Clone() *WorkSet {
	c := NewWorkSet()
	for reg, origins := range ws.RegExposed {
		c.RegExposed[reg] = append([]*State(nil), origins...)
	}
	c.MemExposed = ws.MemExposed.Clone()
	return c
}
