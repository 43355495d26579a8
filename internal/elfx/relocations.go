package elfx

import "debug/elf"

// Relocation is one ELF relocation entry, generalized across every RELA
// section (not just .rela.plt, which PLTRels already covers): the
// (symbol, type, addend) triple internal/link.Resolver consumes as its
// source of truth for resolveInternally.
type Relocation struct {
	Offset  uint64
	Type    elf.R_AARCH64
	Addend  int64
	Symbol  string
	Bind    elf.SymBind
	Version string
	Weak    bool
}

// Relocations parses every SHT_RELA section in the image into Relocation
// entries, resolving each entry's symbol index against the dynamic symbol
// table.
func (im *Image) Relocations() []Relocation {
	dynsyms, err := im.File.DynamicSymbols()
	if err != nil {
		return nil
	}

	var out []Relocation
	for _, sec := range im.File.Sections {
		if sec.Type != elf.SHT_RELA {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			continue
		}
		const entrySize = 24
		for off := 0; off+entrySize <= len(data); off += entrySize {
			rOffset := leUint64(data[off:])
			rInfo := leUint64(data[off+8:])
			rAddend := int64(leUint64(data[off+16:]))

			symIndex := uint32(rInfo >> 32)
			relType := elf.R_AARCH64(uint32(rInfo))

			var name, version string
			var bind elf.SymBind
			if symIndex > 0 && int(symIndex) <= len(dynsyms) {
				sym := dynsyms[symIndex-1]
				name = sym.Name
				version = sym.Version
				bind = elf.ST_BIND(sym.Info)
			}

			out = append(out, Relocation{
				Offset:  rOffset,
				Type:    relType,
				Addend:  rAddend,
				Symbol:  name,
				Bind:    bind,
				Version: version,
				Weak:    bind == elf.STB_WEAK,
			})
		}
	}
	return out
}

func leUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

// SymbolByName looks up a dynamic symbol's address by exact name, the
// lookup internal/link.Resolver's resolveNameAsLinkHelper2 performs
// against a candidate module's dynamic symbol table.
func (im *Image) SymbolByName(name string) (DynSym, bool) {
	for _, s := range im.Dynsyms {
		if s.Name == name {
			return s, true
		}
	}
	return DynSym{}, false
}

// DynamicSymbolVersion reports the version suffix a dynamic symbol table
// entry carries, if any, mirroring the C++ SymbolVersion the resolver's
// versioned-name fallback consults.
func (im *Image) DynamicSymbolVersion(name string) (version string, ok bool) {
	syms, err := im.File.DynamicSymbols()
	if err != nil {
		return "", false
	}
	for _, s := range syms {
		if s.Name == name && s.Version != "" {
			return s.Version, true
		}
	}
	return "", false
}
