package link

import (
	"debug/elf"
	"strconv"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/logging"
)

// Resolver turns ELF relocations and bare addresses into Link values,
// grounded on link.cpp's PerfectLinkResolver. It operates over a set of
// candidate modules (the C++ Conductor/Program's module list) rather than
// a single module, since resolveExternally must search sibling modules.
type Resolver struct {
	Factory LinkFactory
	Logger  *logging.LoggerCloser
}

func NewResolver() *Resolver { return &Resolver{} }

func (r *Resolver) log() *logging.LoggerCloser {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.Default()
}

// ResolveInternally implements resolveInternally: reloc's own (symbol,
// type, addend) is authoritative; weak symbols are deferred unless weak is
// true. Address computation follows §4.5 step 4's architecture default
// (S + A) rather than the x86-64 branch's PC32/GLOB_DAT special cases,
// which don't apply on AArch64 (see DESIGN.md).
func (r *Resolver) ResolveInternally(reloc elfx.Relocation, module *chunk.Module, weak bool) Link {
	addr := reloc.Addend
	if reloc.Symbol != "" {
		r.log().Debug("resolveInternally search", "symbol", reloc.Symbol)
		if !weak && reloc.Weak {
			r.log().Debug("weak symbol deferred", "symbol", reloc.Symbol)
			return nil
		}
		sym, ok := lookupSymbol(module, reloc.Symbol)
		if !ok {
			r.log().Debug("relocation points to an external module", "symbol", reloc.Symbol)
			return nil
		}
		if sym.IsMarker {
			r.log().Debug("relocation symbol is a marker", "symbol", reloc.Symbol)
			return r.Factory.MakeMarkerLinkWithAddend(module, int64(sym.Addr), reloc.Addend, reloc.Symbol)
		}
		addr += int64(sym.Addr)
	}

	if fn := module.FunctionAt(addr); fn != nil {
		return r.Factory.MakeNormalLink(fn, true, false)
	}
	if instr := module.InstructionContaining(addr); instr != nil {
		return r.Factory.MakeNormalLink(instr, true, false)
	}
	if plink := r.Factory.MakePLTLink(module, addr); plink != nil {
		return plink
	}
	if dlink := r.Factory.MakeDataLink(module, addr, true); dlink != nil {
		return dlink
	}
	return r.Factory.MakeMarkerLink(module, addr, "")
}

func lookupSymbol(module *chunk.Module, name string) (elfx.DynSym, bool) {
	space := module.GetElfSpace()
	if space == nil || space.Image == nil {
		return elfx.DynSym{}, false
	}
	return space.Image.SymbolByName(name)
}

// ResolveExternally implements resolveExternally/resolveExternally2:
// search each candidate module the source module depends on, then the
// source module itself (for a weak self-reference), then every candidate
// again ignoring the dependency filter (weak-reference fallback).
func (r *Resolver) ResolveExternally(name, version string, source *chunk.Module, candidates []*chunk.Module, weak bool) Link {
	r.log().Debug("resolveExternally search", "name", name, "weak", weak)

	deps := make(map[string]bool, len(source.Dependencies))
	for _, d := range source.Dependencies {
		deps[d] = true
	}

	for _, m := range candidates {
		if m == source || !deps[m.GetLibrary()] {
			continue
		}
		if l := r.resolveNameAsLinkHelper(name, version, m, weak); l != nil {
			return l
		}
	}

	if l := r.resolveNameAsLinkHelper(name, version, source, weak); l != nil {
		r.log().Debug("resolved to weak definition", "module", source.GetLibrary())
		return l
	}

	for _, m := range candidates {
		if l := r.resolveNameAsLinkHelper(name, version, m, weak); l != nil {
			r.log().Debug("resolved to weak reference", "module", m.GetLibrary())
			return l
		}
	}

	r.log().Debug("not found", "name", name)
	return nil
}

// resolveNameAsLinkHelper implements resolveNameAsLinkHelper: try the bare
// name, then "name@version", then the corrected "name@@version" form (see
// DESIGN.md's Open Question decision on the original's versionedName2 bug).
func (r *Resolver) resolveNameAsLinkHelper(name, version string, space *chunk.Module, weak bool) Link {
	if l := r.resolveNameAsLinkHelper2(name, space, weak); l != nil {
		return l
	}
	if version == "" {
		return nil
	}
	for _, candidate := range r.versionedCandidates(name, version) {
		if l := r.resolveNameAsLinkHelper2(candidate, space, weak); l != nil {
			return l
		}
	}
	return nil
}

// versionedCandidates returns the "name@version" and "name@@version" forms
// in that order. The original built the second form by appending version
// to versionedName1 (already holding "name@version"), producing
// "name@versionversion" instead of "name@@version" — a bug. This
// implementation constructs the correct "name@@version" directly.
func (r *Resolver) versionedCandidates(name, version string) []string {
	return []string{name + "@" + version, name + "@@" + version}
}

func (r *Resolver) resolveNameAsLinkHelper2(name string, module *chunk.Module, weak bool) Link {
	sym, ok := lookupSymbol(module, name)
	if !ok {
		return nil
	}
	space := module.GetElfSpace()
	if !weak && space != nil && space.Image != nil {
		if bind, ok := symbolBind(space.Image, name); ok && bind == elf.STB_WEAK {
			return nil
		}
	}

	for _, fn := range module.GetFunctionList() {
		if fn.Name == name {
			r.log().Debug("found as function", "name", name, "addr", strconv.FormatInt(fn.Address(), 16))
			return r.Factory.MakeNormalLink(fn, true, true)
		}
	}

	if sym.Addr != 0 && !sym.IsPLT {
		r.log().Debug("found as data ref", "name", name, "module", module.GetLibrary())
		return r.Factory.MakeDataLink(module, int64(sym.Addr), true)
	}
	return nil
}

func symbolBind(img *elfx.Image, name string) (elf.SymBind, bool) {
	syms, err := img.File.DynamicSymbols()
	if err != nil {
		return 0, false
	}
	for _, s := range syms {
		if s.Name == name {
			return elf.ST_BIND(s.Info), true
		}
	}
	return 0, false
}

// ResolveInferred implements resolveInferred: try progressively wider
// containment queries — the instruction's own function, then any function
// in the module, then any instruction, then data, then finally a bare
// marker.
func (r *Resolver) ResolveInferred(address int64, instr *chunk.Instruction, fn *chunk.Function, module *chunk.Module) Link {
	if fn != nil {
		for _, b := range fn.Blocks {
			for _, in := range b.GetBlock() {
				if in.GetAddress() == address {
					r.log().Debug("resolved inside the same function")
					return r.Factory.MakeNormalLink(in, true, false)
				}
			}
		}
	}
	if target := module.FunctionAt(address); target != nil {
		r.log().Debug("resolved to a function", "name", target.Name)
		return r.Factory.MakeNormalLink(target, true, false)
	}
	if target := module.InstructionContaining(address); target != nil {
		r.log().Debug("resolved to an instruction (literal?)")
		return r.Factory.MakeNormalLink(target, true, false)
	}
	if plink := r.Factory.MakePLTLink(module, address); plink != nil {
		r.log().Debug("resolved to a PLT trampoline")
		return plink
	}
	if dlink := r.Factory.MakeDataLink(module, address, true); dlink != nil {
		r.log().Debug("resolved to a data link")
		return dlink
	}
	r.log().Debug("resolved to a marker link")
	return r.Factory.MakeMarkerLink(module, address, "")
}
