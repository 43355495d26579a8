package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/load"
	"github.com/zenhumany/egalito/internal/tree"
	"github.com/zenhumany/egalito/internal/ui/colorize"
	"github.com/zenhumany/egalito/internal/usedef"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <elf-file>",
	Short: "Run the use-def dataflow engine over a function and print its def/use chains",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("function", "F", "", "Function symbol to analyze (default: the first one found)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	cfg := chunk.NewControlFlowGraph(fn)
	factory := tree.NewFactory()
	engine := usedef.NewEngine(factory, nil)
	if err := engine.Analyze(cfg, cfg.SCCOrder()); err != nil {
		return fmt.Errorf("analyze %s: %w", fn.Name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "function %s @ 0x%x (%d blocks)\n\n", fn.Name, fn.Address(), len(fn.Blocks))
	for bi, blk := range fn.Blocks {
		fmt.Fprintf(cmd.OutOrStdout(), "block %d:\n", bi)
		for _, instr := range blk.GetBlock() {
			printInstruction(cmd, engine, instr)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

// selectFunction returns the function named want, or the first function
// in address order if want is empty, or nil if the module has none.
func selectFunction(mod *chunk.Module, want string) *chunk.Function {
	fns := mod.GetFunctionList()
	if len(fns) == 0 {
		return nil
	}
	if want == "" {
		return fns[0]
	}
	for _, fn := range fns {
		if fn.Name == want {
			return fn
		}
	}
	return nil
}

func printInstruction(cmd *cobra.Command, e *usedef.Engine, instr *chunk.Instruction) {
	assembled, ok := instr.GetSemantic().(chunk.Assembled)
	if !ok || assembled.GetAssembly() == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  %08x  <raw>\n", instr.GetAddress())
		return
	}
	asm := assembled.GetAssembly()
	line := fmt.Sprintf("%08x  %s", instr.GetAddress(), formatAssembly(asm))
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", colorize.ColorizeInstructionLine(line))

	st := e.StateFor(instr)
	if st == nil {
		return
	}
	for reg, def := range st.RegDefs() {
		fmt.Fprintf(cmd.OutOrStdout(), "      def r%d := %s\n", reg, def)
	}
	for reg := 0; reg <= disasm.RegNZCV; reg++ {
		for _, origin := range st.RegRefs(reg) {
			fmt.Fprintf(cmd.OutOrStdout(), "      use r%d <- %08x\n", reg, origin.Instr.GetAddress())
		}
	}
}

// formatAssembly renders a decoded instruction as "MNEM op1, op2, ...",
// good enough for a diagnostic listing — not a full disassembler's
// operand syntax.
func formatAssembly(asm *disasm.Assembly) string {
	out := asm.GetMnemonic()
	ops := asm.GetAsmOperands()
	for i, op := range ops {
		if i == 0 {
			out += " "
		} else {
			out += ", "
		}
		out += formatOperand(op)
	}
	return out
}

func formatOperand(op disasm.Operand) string {
	switch {
	case op.Mem.Base != 0 || op.Mem.HasIndex || op.Mem.Disp != 0:
		if op.Mem.HasIndex {
			return fmt.Sprintf("[r%d, r%d]", op.Mem.Base, op.Mem.Index)
		}
		return fmt.Sprintf("[r%d, #%d]", op.Mem.Base, op.Mem.Disp)
	case op.Width > 0:
		return fmt.Sprintf("r%d", op.Reg)
	default:
		return fmt.Sprintf("#%d", op.Imm)
	}
}
