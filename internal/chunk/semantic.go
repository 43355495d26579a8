package chunk

import "github.com/zenhumany/egalito/internal/disasm"

// SemanticTag is the archive format's per-variant instruction-semantic tag
// byte (§4.6/§6), one per concrete Semantic implementation below.
type SemanticTag uint8

const (
	TagUnknown SemanticTag = iota
	TagRawInstruction
	TagIsolatedInstruction
	TagLinkedInstruction
	TagControlFlowInstruction
	TagReturnInstruction
	TagIndirectJumpInstruction
	TagIndirectCallInstruction
	TagLinkedLiteralInstruction
)

// Assembled is satisfied by every Semantic that carries a decoded
// disasm.Assembly, giving the use-def engine and the serializer a single
// way to reach opcode/operand data regardless of which variant wraps it.
type Assembled interface {
	GetAssembly() *disasm.Assembly
}

// Tagged is satisfied by every Semantic the serializer knows how to write;
// a Semantic with no Tag() method (there is none in this package) would be
// a programming error, not a runtime case to handle.
type Tagged interface {
	Tag() SemanticTag
}

// RawInstruction holds bytes the disassembler could not decode, or that
// were never decoded in the first place (deserialization of an unknown
// archive tag degrades to this).
type RawInstruction struct {
	Bytes []byte
}

func (r *RawInstruction) IsLiteral() bool    { return false }
func (r *RawInstruction) Tag() SemanticTag   { return TagRawInstruction }
func (r *RawInstruction) GetBytes() []byte   { return r.Bytes }

// IsolatedInstruction is a decoded instruction with no modeled link, e.g.
// ALU ops the resolver never needs to touch.
type IsolatedInstruction struct {
	Assembly *disasm.Assembly
}

func (i *IsolatedInstruction) IsLiteral() bool                { return false }
func (i *IsolatedInstruction) Tag() SemanticTag               { return TagIsolatedInstruction }
func (i *IsolatedInstruction) GetAssembly() *disasm.Assembly  { return i.Assembly }

// LinkedInstruction is a decoded instruction where one operand (at Index)
// was resolved to a Link — typically an ADRP/ADD pair or a load referencing
// data.
type LinkedInstruction struct {
	Assembly *disasm.Assembly
	Link     any
	Index    int
}

func (l *LinkedInstruction) IsLiteral() bool               { return false }
func (l *LinkedInstruction) Tag() SemanticTag              { return TagLinkedInstruction }
func (l *LinkedInstruction) GetAssembly() *disasm.Assembly { return l.Assembly }
func (l *LinkedInstruction) GetLink() any                  { return l.Link }
func (l *LinkedInstruction) SetLink(link any)               { l.Link = link }
func (l *LinkedInstruction) GetIndex() int                  { return l.Index }
func (l *LinkedInstruction) SetIndex(index int)             { l.Index = index }

// ControlFlowInstruction is a branch/call whose target was resolved to a
// Link rather than left as a bare immediate.
type ControlFlowInstruction struct {
	Assembly *disasm.Assembly
	Link     any
}

func (c *ControlFlowInstruction) IsLiteral() bool               { return false }
func (c *ControlFlowInstruction) Tag() SemanticTag              { return TagControlFlowInstruction }
func (c *ControlFlowInstruction) GetAssembly() *disasm.Assembly { return c.Assembly }
func (c *ControlFlowInstruction) GetLink() any                  { return c.Link }
func (c *ControlFlowInstruction) SetLink(link any)               { c.Link = link }

// ReturnInstruction models RET with no further payload.
type ReturnInstruction struct {
	Assembly *disasm.Assembly
}

func (r *ReturnInstruction) IsLiteral() bool               { return false }
func (r *ReturnInstruction) Tag() SemanticTag              { return TagReturnInstruction }
func (r *ReturnInstruction) GetAssembly() *disasm.Assembly { return r.Assembly }

// IndirectJumpInstruction models BR (register-target branch).
type IndirectJumpInstruction struct {
	Assembly *disasm.Assembly
}

func (i *IndirectJumpInstruction) IsLiteral() bool               { return false }
func (i *IndirectJumpInstruction) Tag() SemanticTag              { return TagIndirectJumpInstruction }
func (i *IndirectJumpInstruction) GetAssembly() *disasm.Assembly { return i.Assembly }

// IndirectCallInstruction models BLR (register-target call).
type IndirectCallInstruction struct {
	Assembly *disasm.Assembly
}

func (i *IndirectCallInstruction) IsLiteral() bool               { return false }
func (i *IndirectCallInstruction) Tag() SemanticTag              { return TagIndirectCallInstruction }
func (i *IndirectCallInstruction) GetAssembly() *disasm.Assembly { return i.Assembly }

// LinkedLiteralInstruction is a literal pool entry (data embedded among
// code, e.g. a jump table base) that also resolved to a Link; usedef skips
// it via IsLiteral the same way it skips a bare data literal.
type LinkedLiteralInstruction struct {
	Assembly *disasm.Assembly
	Link     any
}

func (l *LinkedLiteralInstruction) IsLiteral() bool               { return true }
func (l *LinkedLiteralInstruction) Tag() SemanticTag              { return TagLinkedLiteralInstruction }
func (l *LinkedLiteralInstruction) GetAssembly() *disasm.Assembly { return l.Assembly }
func (l *LinkedLiteralInstruction) GetLink() any                  { return l.Link }
