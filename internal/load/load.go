// Package load builds a chunk.Module from an opened ELF image: it walks
// the symbol table for function boundaries, disassembles each function's
// byte range linearly, and splits the result into basic blocks at branch
// instructions and their targets, grounded on the teacher's section/PLT
// walking idiom in internal/elfx.
package load

import (
	"debug/elf"
	"sort"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/link"
)

// funcSym is one STT_FUNC symbol's address range, used to carve the text
// section into functions before disassembly.
type funcSym struct {
	Name string
	Addr uint64
	Size uint64
}

// textFunctions returns every function-typed symbol that falls inside
// img's .text section, sorted by address, deduplicated by address (a
// stripped binary's dynamic and static symbol tables can overlap).
func textFunctions(img *elfx.Image) []funcSym {
	var syms []elf.Symbol
	if all, err := img.File.Symbols(); err == nil {
		syms = append(syms, all...)
	}
	if dyn, err := img.File.DynamicSymbols(); err == nil {
		syms = append(syms, dyn...)
	}

	seen := make(map[uint64]bool)
	var out []funcSym
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if s.Value == 0 || s.Size == 0 || s.Name == "" {
			continue
		}
		if s.Value < img.Text.VA || s.Value >= img.Text.VA+img.Text.Size {
			continue
		}
		if seen[s.Value] {
			continue
		}
		seen[s.Value] = true
		out = append(out, funcSym{Name: s.Name, Addr: s.Value, Size: s.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Module builds a chunk.Module over img's text functions and data
// sections. Relocations are left for the caller to resolve via
// internal/link.Resolver against the returned module and its dependency
// list, rather than attached here, since resolution needs the caller's
// choice of candidate sibling modules for external symbols; what this
// builds for itself is purely intra-function control flow (branches to
// addresses inside the same function), needed just to assemble the CFG
// the use-def engine walks.
func Module(img *elfx.Image, name string) *chunk.Module {
	mod := chunk.NewModule(name)
	mod.Elf = &chunk.ElfSpace{Module: mod, Image: img}

	if libs, err := img.File.ImportedLibraries(); err == nil {
		mod.Dependencies = libs
	}

	for _, sec := range []elfx.Section{img.Rodata, img.Data, img.DataRelRo} {
		if sec.Size == 0 {
			continue
		}
		mod.GetDataRegionList().Add(chunk.NewDataSection(sec.Name, int64(sec.VA), int64(sec.Size)))
	}

	for _, stub := range img.PLTStubs {
		name := pltStubSymbolName(img, stub)
		mod.GetPLTTrampolineList().Add(chunk.NewPLTTrampoline(int64(stub.Addr), name, int64(stub.GOTAddr)))
	}

	for _, fs := range textFunctions(img) {
		mod.AddFunction(buildFunction(img, fs))
	}

	return mod
}

// pltStubSymbolName finds the relocation targeting stub's GOT slot and
// returns the external symbol it names, or "" if the stub has no matching
// relocation (an IRELATIVE stub, or a stripped relocation section).
func pltStubSymbolName(img *elfx.Image, stub elfx.PLTStub) string {
	for _, rel := range img.PLTRels {
		if rel.Offset == stub.GOTAddr {
			return rel.SymName
		}
	}
	return ""
}

type decodedInstr struct {
	addr   int64
	sem    chunk.Semantic
	target int64 // 0 if this instruction has no direct branch target
}

// buildFunction disassembles one function's byte range linearly and
// splits it into basic blocks: a new block starts at the function head,
// right after any control-transfer instruction, and at any address that
// some instruction in this function branches to.
func buildFunction(img *elfx.Image, fs funcSym) *chunk.Function {
	fn := chunk.NewFunction(fs.Name, int64(fs.Addr), int64(fs.Size))

	code, ok := img.ReadBytesVA(fs.Addr, int(fs.Size))
	if !ok {
		fn.AddBlock(chunk.NewBlock())
		return fn
	}

	var decs []decodedInstr
	targets := map[int64]bool{int64(fs.Addr): true}

	for off := 0; off+4 <= len(code); off += 4 {
		addr := int64(fs.Addr) + int64(off)
		asm, err := disasm.Decode(code[off : off+4])
		if err != nil {
			decs = append(decs, decodedInstr{addr: addr, sem: &chunk.RawInstruction{Bytes: code[off : off+4]}})
			continue
		}

		sem, isCF, target := classify(asm, addr)
		decs = append(decs, decodedInstr{addr: addr, sem: sem, target: target})
		if isCF {
			targets[addr+4] = true
			if target != 0 {
				targets[target] = true
			}
		}
		switch sem.(type) {
		case *chunk.ReturnInstruction, *chunk.IndirectJumpInstruction:
			targets[addr+4] = true
		}
	}

	byAddr := make(map[int64]*chunk.Instruction, len(decs))
	var blk *chunk.Block
	for _, d := range decs {
		if blk == nil || targets[d.addr] {
			blk = chunk.NewBlock()
			fn.AddBlock(blk)
		}
		in := chunk.NewInstruction(d.addr, 4, d.sem)
		blk.AddInstruction(in)
		byAddr[d.addr] = in
	}

	for _, d := range decs {
		cfi, ok := d.sem.(*chunk.ControlFlowInstruction)
		if !ok || d.target == 0 {
			continue
		}
		if tgt, ok := byAddr[d.target]; ok {
			cfi.Link = link.NewNormalLink(tgt, link.ScopeInternalJump)
		}
	}

	wireBlockEdges(fn)
	return fn
}

// classify maps a decoded instruction to its chunk.Semantic variant. Only
// RET, BR and BLR get their own variant; every other branch with a direct
// (PC-relative) target becomes a ControlFlowInstruction, and everything
// else is an IsolatedInstruction — mirroring the opcode families the
// use-def handler table already distinguishes.
func classify(asm *disasm.Assembly, addr int64) (sem chunk.Semantic, isCF bool, target int64) {
	switch asm.GetMnemonic() {
	case "RET":
		return &chunk.ReturnInstruction{Assembly: asm}, false, 0
	case "BR":
		return &chunk.IndirectJumpInstruction{Assembly: asm}, false, 0
	case "BLR":
		return &chunk.IndirectCallInstruction{Assembly: asm}, false, 0
	case "B", "BL", "CBZ", "CBNZ", "TBZ", "TBNZ":
		ops := asm.GetAsmOperands()
		var off int64
		if n := len(ops); n > 0 && ops[n-1].Width == 0 {
			off = ops[n-1].Imm
		}
		return &chunk.ControlFlowInstruction{Assembly: asm}, true, addr + off
	default:
		return &chunk.IsolatedInstruction{Assembly: asm}, false, 0
	}
}

// wireBlockEdges links blocks by fallthrough and by resolved
// ControlFlowInstruction targets. A block whose last instruction is a
// Return, an indirect jump, or an unconditional B (resolved or not) has no
// fallthrough edge; every other block falls through to the next one in
// program order.
func wireBlockEdges(fn *chunk.Function) {
	byAddr := make(map[int64]*chunk.Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		byAddr[b.Address()] = b
	}

	for i, b := range fn.Blocks {
		last := b.Instructions[len(b.Instructions)-1]
		sem := last.GetSemantic()

		if cfi, ok := sem.(*chunk.ControlFlowInstruction); ok {
			if nl, ok := cfi.Link.(*link.NormalLink); ok {
				if tb := byAddr[nl.TargetAddress()]; tb != nil {
					b.Succs = append(b.Succs, tb)
					tb.Preds = append(tb.Preds, b)
				}
			}
			mnemonic := cfi.Assembly.GetMnemonic()
			if mnemonic == "B" {
				continue // unconditional, no fallthrough
			}
		}

		switch sem.(type) {
		case *chunk.ReturnInstruction, *chunk.IndirectJumpInstruction:
			continue
		}

		if i+1 < len(fn.Blocks) {
			next := fn.Blocks[i+1]
			b.Succs = append(b.Succs, next)
			next.Preds = append(next.Preds, b)
		}
	}
}
