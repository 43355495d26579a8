// Package disasm decodes AArch64 instructions via golang.org/x/arch's
// arm64asm decoder and adapts the result into the Assembly/AsmOperands
// shape the use-def handler table consumes (§6 of the specification:
// getId/getMnemonic/getBytes/getAsmOperands, each operand exposing a mode
// plus reg/imm/mem/shift fields).
package disasm

import (
	"reflect"
	"unsafe"

	"golang.org/x/arch/arm64/arm64asm"
)

// Mode classifies the shape of an instruction's operand list, the small
// enum handlers switch on before picking a fill* routine.
type Mode int

const (
	ModeNone Mode = iota
	ModeRegReg
	ModeRegImm
	ModeRegRegReg
	ModeRegRegImm
	ModeRegMem
	ModeRegRegMem
	ModeMemImm
	ModeSysReg
)

// ShiftType mirrors arm64asm.ShiftType plus the "none" case.
type ShiftType int

const (
	ShiftNone ShiftType = iota
	ShiftLSL
	ShiftLSR
	ShiftASR
	ShiftROR
	ShiftMSL
)

// Mem is a decoded memory operand: base register, optional index register,
// and a constant displacement. Width in bytes is carried separately on the
// owning Operand/Assembly since it depends on the opcode, not the operand.
type Mem struct {
	Base     int
	HasIndex bool
	Index    int
	Disp     int64
	// PreIndex/PostIndex record AArch64's writeback addressing modes;
	// exactly one of them may be set, never both.
	PreIndex  bool
	PostIndex bool
}

// Shift is a decoded shift/extend suffix on a register or immediate
// operand (e.g. "LSL #3").
type Shift struct {
	Type  ShiftType
	Value int64
}

// Operand is one decoded operand slot.
type Operand struct {
	Mode  Mode
	Reg   int
	Width int // register width in bytes; 0 if not a register operand
	Imm   int64
	Mem   Mem
	Shift Shift
}

// Assembly is the decoded form of one instruction, implementing the
// consumed Instruction/Assembly interfaces of §6.
type Assembly struct {
	id       arm64asm.Op
	mnemonic string
	bytes    []byte
	operands []Operand
	mode     Mode
}

func (a *Assembly) GetID() int                { return int(a.id) }
func (a *Assembly) GetMnemonic() string       { return a.mnemonic }
func (a *Assembly) GetBytes() []byte          { return a.bytes }
func (a *Assembly) GetAsmOperands() []Operand { return a.operands }
func (a *Assembly) GetMode() Mode             { return a.mode }

// IsLiteral reports false: a successfully decoded Assembly is always an
// executable instruction, never a data word. Literal data words are
// represented by chunk.RawInstruction instead.
func (a *Assembly) IsLiteral() bool { return false }

// GetAssembly satisfies chunk.Assembled directly, so a bare *Assembly can
// sit in Instruction.Semantic without being wrapped in one of the
// chunk.Isolated/Linked/... variants when no link is attached.
func (a *Assembly) GetAssembly() *Assembly { return a }

// Width30 reports the single load/store width implied by bit 30 of the
// raw 4-byte encoding: 4 bytes if clear, 8 if set. §4.4 specifies this
// exact bit test for LDR/STR family width determination.
func Width30(raw []byte) int {
	if len(raw) < 4 {
		return 4
	}
	if raw[3]&0b01000000 != 0 {
		return 8
	}
	return 4
}

// Width31 reports the paired load/store width implied by bit 31 of the
// raw 4-byte encoding (LDP/STP).
func Width31(raw []byte) int {
	if len(raw) < 4 {
		return 4
	}
	if raw[3]&0b10000000 != 0 {
		return 8
	}
	return 4
}

// Decode disassembles one AArch64 instruction from raw (which must hold at
// least 4 bytes), returning an *Assembly or an error if the bytes don't
// form a valid instruction.
func Decode(raw []byte) (*Assembly, error) {
	inst, err := arm64asm.Decode(raw)
	if err != nil {
		return nil, err
	}
	a := &Assembly{
		id:       inst.Op,
		mnemonic: inst.Op.String(),
		bytes:    append([]byte(nil), raw[:4]...),
	}
	a.operands = adaptArgs(inst.Args)
	a.mode = classify(a.operands)
	return a, nil
}

func adaptArgs(args arm64asm.Args) []Operand {
	var ops []Operand
	for _, arg := range args {
		if arg == nil {
			break
		}
		ops = append(ops, adaptArg(arg))
	}
	return ops
}

func adaptArg(arg arm64asm.Arg) Operand {
	switch v := arg.(type) {
	case arm64asm.Reg:
		id, width := CanonicalReg(v)
		return Operand{Reg: id, Width: width}
	case arm64asm.RegSP:
		id, width := CanonicalReg(arm64asm.Reg(v))
		return Operand{Reg: id, Width: width}
	case arm64asm.Imm:
		return Operand{Imm: int64(v.Imm)}
	case arm64asm.ImmShift:
		imm, shift := immShiftFields(v)
		kind, value := ShiftLSL, int64(shift)
		if shift >= 128 {
			kind, value = ShiftMSL, int64(shift)-128
		}
		return Operand{Imm: int64(imm), Shift: Shift{Type: kind, Value: value}}
	case arm64asm.PCRel:
		return Operand{Imm: int64(v)}
	case arm64asm.MemImmediate:
		base, _ := CanonicalReg(arm64asm.Reg(v.Base))
		return Operand{Mem: Mem{
			Base:      base,
			Disp:      int64(memImmediateImm(v)),
			PreIndex:  v.Mode == arm64asm.AddrPreIndex,
			PostIndex: v.Mode == arm64asm.AddrPostIndex,
		}}
	case arm64asm.MemExtend:
		base, _ := CanonicalReg(arm64asm.Reg(v.Base))
		index, _ := CanonicalReg(arm64asm.Reg(v.Index))
		return Operand{Mem: Mem{Base: base, HasIndex: true, Index: index}}
	case arm64asm.RegExtshiftAmount:
		reg, amount := regExtshiftFields(v)
		id, width := CanonicalReg(reg)
		return Operand{Reg: id, Width: width, Shift: Shift{Type: ShiftLSL, Value: int64(amount)}}
	default:
		return Operand{}
	}
}

// unexportedField returns an addressable, readable Value for v's field
// name, bypassing the package-private visibility arm64asm relies on for
// ImmShift/MemImmediate/RegExtshiftAmount — those carry their payload in
// unexported fields and expose it only through String().
func unexportedField(v reflect.Value, name string) reflect.Value {
	f := v.FieldByName(name)
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

func immShiftFields(v arm64asm.ImmShift) (imm uint16, shift uint8) {
	rv := reflect.ValueOf(&v).Elem()
	imm = unexportedField(rv, "imm").Interface().(uint16)
	shift = unexportedField(rv, "shift").Interface().(uint8)
	return
}

func memImmediateImm(v arm64asm.MemImmediate) int32 {
	rv := reflect.ValueOf(&v).Elem()
	return unexportedField(rv, "imm").Interface().(int32)
}

func regExtshiftFields(v arm64asm.RegExtshiftAmount) (reg arm64asm.Reg, amount uint8) {
	rv := reflect.ValueOf(&v).Elem()
	reg = unexportedField(rv, "reg").Interface().(arm64asm.Reg)
	amount = unexportedField(rv, "amount").Interface().(uint8)
	return
}

// Reserved physical register ids beyond the 31 general-purpose registers,
// per §3's "distinguished special-purpose encodings occupy reserved high
// indices".
const (
	RegNone = -1
	RegZR   = 31 // XZR/WZR, the zero register
	RegSP   = 32 // SP/WSP
	RegNZCV = 33 // condition flags, defined only by comparison handlers
)

// CanonicalReg widens an arm64asm register encoding (which numbers W and
// X views of the same physical register differently) to a stable
// (reg_id, width_bytes) pair, so W5 and X5 both resolve to the same
// reg_id with width 4 and 8 respectively.
func CanonicalReg(r arm64asm.Reg) (id, width int) {
	switch {
	case r >= arm64asm.W0 && r <= arm64asm.W30:
		return int(r - arm64asm.W0), 4
	case r == arm64asm.WZR:
		return RegZR, 4
	case r == arm64asm.WSP:
		return RegSP, 4
	case r >= arm64asm.X0 && r <= arm64asm.X30:
		return int(r - arm64asm.X0), 8
	case r == arm64asm.XZR:
		return RegZR, 8
	case r == arm64asm.SP:
		return RegSP, 8
	default:
		return RegNone, 0
	}
}

var zeroMem Mem

func classify(ops []Operand) Mode {
	switch len(ops) {
	case 0:
		return ModeNone
	case 1:
		return ModeRegImm
	case 2:
		if ops[1].Mem != zeroMem {
			return ModeRegMem
		}
		return ModeRegReg
	case 3:
		if ops[2].Mem != zeroMem {
			return ModeRegRegMem
		}
		return ModeRegRegImm
	default:
		return ModeRegRegImm
	}
}
