package serialize

import (
	"fmt"
	"io"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/link"
	"github.com/zenhumany/egalito/internal/logging"
)

// WriteInstruction writes sem's tag byte, its raw bytes (length-prefixed),
// and any tag-specific extra payload, per §4.6. Only the eight variants in
// internal/chunk/semantic.go are recognized; anything else is an error
// from the caller, not a recoverable archive condition.
func WriteInstruction(w io.Writer, sem chunk.Semantic, assign AssignFunc) error {
	tagged, ok := sem.(chunk.Tagged)
	if !ok {
		return fmt.Errorf("serialize: %T does not implement chunk.Tagged", sem)
	}
	tag := tagged.Tag()

	if err := writeU8(w, uint8(tag)); err != nil {
		return err
	}
	if err := writeBytesU8(w, semanticBytes(sem)); err != nil {
		return err
	}

	switch v := sem.(type) {
	case *chunk.LinkedInstruction:
		lnk, ok := v.Link.(link.Link)
		if !ok {
			return fmt.Errorf("serialize: LinkedInstruction.Link is not a link.Link (%T)", v.Link)
		}
		if err := WriteLink(w, lnk, assign); err != nil {
			return err
		}
		return writeU8(w, uint8(v.Index))
	case *chunk.ControlFlowInstruction:
		lnk, ok := v.Link.(link.Link)
		if !ok {
			return fmt.Errorf("serialize: ControlFlowInstruction.Link is not a link.Link (%T)", v.Link)
		}
		return WriteLink(w, lnk, assign)
	default:
		// RawInstruction, IsolatedInstruction, ReturnInstruction,
		// IndirectJumpInstruction, IndirectCallInstruction, and
		// LinkedLiteralInstruction carry no extra payload — for
		// LinkedLiteralInstruction this mirrors the original visitor,
		// which never serializes its Link either.
		return nil
	}
}

func semanticBytes(sem chunk.Semantic) []byte {
	switch v := sem.(type) {
	case *chunk.RawInstruction:
		return v.Bytes
	case chunk.Assembled:
		if asm := v.GetAssembly(); asm != nil {
			return asm.GetBytes()
		}
	}
	return nil
}

// ReadInstruction reads one instruction record back, re-disassembling the
// raw bytes to recover an Assembly. A disassembly failure degrades to a
// RawInstruction holding the original bytes (§4.6) — any trailing
// tag-specific payload is still consumed first so the stream stays
// aligned for whatever follows.
func ReadInstruction(r io.Reader, lookup LookupFunc) (chunk.Semantic, error) {
	tagByte, err := readU8(r)
	if err != nil {
		return nil, err
	}
	tag := chunk.SemanticTag(tagByte)

	raw, err := readBytesU8(r)
	if err != nil {
		return nil, err
	}

	asm, decodeErr := disasm.Decode(raw)
	if decodeErr != nil {
		logging.Default().Warn("disassembly error during deserialize", "err", decodeErr)
	}

	switch tag {
	case chunk.TagLinkedInstruction:
		lnk, err := ReadLink(r, lookup)
		if err != nil {
			return nil, err
		}
		index, err := readU8(r)
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.LinkedInstruction{Assembly: asm, Link: lnk, Index: int(index)}, nil

	case chunk.TagControlFlowInstruction:
		lnk, err := ReadLink(r, lookup)
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.ControlFlowInstruction{Assembly: asm, Link: lnk}, nil

	case chunk.TagRawInstruction, chunk.TagIsolatedInstruction:
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.IsolatedInstruction{Assembly: asm}, nil

	case chunk.TagReturnInstruction:
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.ReturnInstruction{Assembly: asm}, nil

	case chunk.TagIndirectJumpInstruction:
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.IndirectJumpInstruction{Assembly: asm}, nil

	case chunk.TagIndirectCallInstruction:
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.IndirectCallInstruction{Assembly: asm}, nil

	case chunk.TagLinkedLiteralInstruction:
		// No link payload on the wire for this variant (see
		// WriteInstruction) — Link is always nil on read.
		if decodeErr != nil {
			return &chunk.RawInstruction{Bytes: raw}, nil
		}
		return &chunk.LinkedLiteralInstruction{Assembly: asm}, nil

	default:
		logging.Default().Warn("unknown instruction tag during deserialize, degrading to raw bytes", "tag", tagByte)
		return &chunk.RawInstruction{Bytes: raw}, nil
	}
}
