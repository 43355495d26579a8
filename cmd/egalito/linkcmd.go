package main

import (
	"fmt"

	"github.com/ianlancetaylor/demangle"
	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/link"
	"github.com/zenhumany/egalito/internal/load"
)

var linkCmd = &cobra.Command{
	Use:   "link <elf-file>",
	Short: "Resolve a module's relocations into the link graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	img, err := elfx.Open(args[0])
	if err != nil {
		return fmt.Errorf("open elf: %w", err)
	}
	defer img.Close()

	mod := load.Module(img, args[0])
	resolver := link.NewResolver()

	relocs := img.Relocations()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d relocations, %d dependencies\n", args[0], len(relocs), len(mod.Dependencies))

	for _, reloc := range relocs {
		resolved := resolver.ResolveInternally(reloc, mod, true)
		name := reloc.Symbol
		if name == "" {
			name = "(addend only)"
		} else {
			name = demangle.Filter(name)
		}

		if resolved == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  0x%x  %-40s unresolved\n", reloc.Offset, name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  0x%x  %-40s -> 0x%x (scope %d)\n",
			reloc.Offset, name, resolved.TargetAddress(), resolved.Scope())
	}
	return nil
}
