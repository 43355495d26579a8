package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/load"
	"github.com/zenhumany/egalito/internal/serialize"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <elf-file>",
	Short: "Round-trip a function's instructions through the archive codec",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringP("function", "F", "", "Function symbol to archive (default: the first one found)")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	img, err := elfx.Open(args[0])
	if err != nil {
		return fmt.Errorf("open elf: %w", err)
	}
	defer img.Close()

	mod := load.Module(img, args[0])
	want, _ := cmd.Flags().GetString("function")
	fn := selectFunction(mod, want)
	if fn == nil {
		return fmt.Errorf("no function found (binary may be stripped; try --function)")
	}

	assigner := serialize.NewIDAssigner()
	var buf bytes.Buffer
	var instrs []*chunk.Instruction
	for _, blk := range fn.Blocks {
		instrs = append(instrs, blk.GetBlock()...)
	}
	for _, in := range instrs {
		assigner.Assign(in) // pre-assign so link targets within fn resolve to stable IDs
		if err := serialize.WriteInstruction(&buf, in.GetSemantic(), assigner.Assign); err != nil {
			return fmt.Errorf("write instruction at 0x%x: %w", in.GetAddress(), err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d instructions, %d bytes\n", fn.Name, len(instrs), buf.Len())

	reader := bytes.NewReader(buf.Bytes())
	count := 0
	for reader.Len() > 0 {
		if _, err := serialize.ReadInstruction(reader, assigner.Lookup); err != nil {
			return fmt.Errorf("read instruction %d: %w", count, err)
		}
		count++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: read back %d instructions\n", fn.Name, count)
	return nil
}
