// Package serialize implements the archive byte format of §4.6/§6: one
// instruction-semantic tag per instruction, a nested link tag table, and
// two injected oracles (Assign/Lookup) that let the archive reference
// chunks by a small stable ID instead of embedding the whole containment
// tree.
package serialize

import "github.com/zenhumany/egalito/internal/chunk"

// ChunkID is the archive's IDWidth — fixed at 4 bytes for both write and
// read, matching the archive container's fixed-width requirement in §6.
type ChunkID uint32

// NoneID is the sentinel written for a null chunk reference (an absent
// link target), mirroring the original's NoneID.
const NoneID ChunkID = 0

// AssignFunc returns a stable ID for a chunk, assigning a fresh one on
// first use; passing a nil chunk must return NoneID.
type AssignFunc func(c chunk.Chunk) ChunkID

// LookupFunc resolves an ID back to a live chunk. ok is false for NoneID
// or for an ID the archive's writer never assigned (a dangling reference,
// or one the reader's caller chooses not to honor).
type LookupFunc func(id ChunkID) (target chunk.Chunk, ok bool)

// IDAssigner is a ready-to-use AssignFunc/LookupFunc pair backed by a
// simple incrementing counter, suitable for a single archive write/read
// session (it is not persisted across runs).
type IDAssigner struct {
	forward map[chunk.Chunk]ChunkID
	reverse map[ChunkID]chunk.Chunk
	next    ChunkID
}

// NewIDAssigner returns an IDAssigner ready to hand out IDs starting at 1
// (0 is reserved for NoneID).
func NewIDAssigner() *IDAssigner {
	return &IDAssigner{
		forward: make(map[chunk.Chunk]ChunkID),
		reverse: make(map[ChunkID]chunk.Chunk),
		next:    1,
	}
}

// Assign implements AssignFunc.
func (a *IDAssigner) Assign(c chunk.Chunk) ChunkID {
	if c == nil {
		return NoneID
	}
	if id, ok := a.forward[c]; ok {
		return id
	}
	id := a.next
	a.next++
	a.forward[c] = id
	a.reverse[id] = c
	return id
}

// Lookup implements LookupFunc.
func (a *IDAssigner) Lookup(id ChunkID) (chunk.Chunk, bool) {
	if id == NoneID {
		return nil, false
	}
	c, ok := a.reverse[id]
	return c, ok
}

// Register pre-assigns id to c, for loading an archive whose IDs were
// produced by a previous writer session (e.g. re-opening a saved archive
// rather than round-tripping within one process).
func (a *IDAssigner) Register(id ChunkID, c chunk.Chunk) {
	a.forward[c] = id
	a.reverse[id] = c
	if id >= a.next {
		a.next = id + 1
	}
}
