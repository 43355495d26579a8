package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/elfx"
	"github.com/zenhumany/egalito/internal/load"
	"github.com/zenhumany/egalito/internal/tree"
	"github.com/zenhumany/egalito/internal/ui/colorize"
	"github.com/zenhumany/egalito/internal/usedef"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <elf-file>",
	Short: "Browse a function's instructions interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	img, err := elfx.Open(args[0])
	if err != nil {
		return fmt.Errorf("open elf: %w", err)
	}

	mod := load.Module(img, args[0])
	fns := mod.GetFunctionList()
	if len(fns) == 0 {
		img.Close()
		return fmt.Errorf("no functions found (binary may be stripped)")
	}

	program := tea.NewProgram(
		newInspectModel(img, fns),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	_, err = program.Run()
	return err
}

type inspectMode int

const (
	modeFunctions inspectMode = iota
	modeInstructions
)

type funcItem struct {
	fn *chunk.Function
}

func (i funcItem) Title() string       { return fmt.Sprintf("%08x  %s", i.fn.Address(), i.fn.Name) }
func (i funcItem) FilterValue() string { return i.fn.Name }
func (i funcItem) Description() string { return "" }

type funcDelegate struct{}

func (d funcDelegate) Height() int                             { return 1 }
func (d funcDelegate) Spacing() int                             { return 0 }
func (d funcDelegate) Update(tea.Msg, *list.Model) tea.Cmd      { return nil }
func (d funcDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	item, ok := li.(funcItem)
	if !ok {
		return
	}
	indicator := " "
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if index == m.Index() {
		indicator = ">"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}
	fmt.Fprintf(w, " %s %s", indicator, style.Render(item.Title()))
}

// inspectModel browses functions in a module and, on selection, renders one
// function's decoded instructions with its use-def chains in a viewport —
// the same two-pane list/viewport shape the teacher's reverse view uses for
// symbols and assembly, generalized from ELF symbols to decoded functions.
type inspectModel struct {
	image     *elfx.Image
	functions []*chunk.Function
	list      list.Model
	viewport  viewport.Model
	mode      inspectMode
	width     int
	height    int
}

func newInspectModel(img *elfx.Image, fns []*chunk.Function) inspectModel {
	items := make([]list.Item, len(fns))
	for i, fn := range fns {
		items[i] = funcItem{fn: fn}
	}

	l := list.New(items, funcDelegate{}, 80, 24)
	l.Title = "Functions"
	l.Styles.Title = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).MarginLeft(2)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	return inspectModel{
		image:     img,
		functions: fns,
		list:      l,
		viewport:  vp,
		mode:      modeFunctions,
	}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(msg.Height - 2)

	case tea.KeyMsg:
		if m.mode == modeFunctions && m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				m.image.Close()
				return m, tea.Quit
			case "enter":
				if item, ok := m.list.SelectedItem().(funcItem); ok {
					m.viewport.SetContent(renderFunction(item.fn))
					m.viewport.GotoTop()
					m.mode = modeInstructions
				}
				return m, nil
			}
		} else if m.mode == modeInstructions {
			switch msg.String() {
			case "q", "ctrl+c":
				m.image.Close()
				return m, tea.Quit
			case "esc", "backspace":
				m.mode = modeFunctions
				return m, nil
			}
		}
	}

	switch m.mode {
	case modeInstructions:
		m.viewport, cmd = m.viewport.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m inspectModel) View() string {
	var content, help string
	switch m.mode {
	case modeInstructions:
		content = m.viewport.View()
		help = "esc back · q quit"
	default:
		content = m.list.View()
		help = "enter inspect · q quit"
	}
	menu := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Width(m.width).
		Render(help)
	return lipgloss.JoinVertical(lipgloss.Left, content, menu)
}

// renderFunction decodes one function's def/use chains the same way the
// analyze command does, into a plain string suitable for a viewport.
func renderFunction(fn *chunk.Function) string {
	cfg := chunk.NewControlFlowGraph(fn)
	factory := tree.NewFactory()
	engine := usedef.NewEngine(factory, nil)
	if err := engine.Analyze(cfg, cfg.SCCOrder()); err != nil {
		return fmt.Sprintf("function %s: analyze: %v\n", fn.Name, err)
	}

	var out string
	out += fmt.Sprintf("function %s @ 0x%x (%d blocks)\n\n", fn.Name, fn.Address(), len(fn.Blocks))
	for bi, blk := range fn.Blocks {
		out += fmt.Sprintf("block %d:\n", bi)
		for _, instr := range blk.GetBlock() {
			out += renderInstructionLine(engine, instr)
		}
		out += "\n"
	}
	return out
}

func renderInstructionLine(e *usedef.Engine, instr *chunk.Instruction) string {
	assembled, ok := instr.GetSemantic().(chunk.Assembled)
	if !ok || assembled.GetAssembly() == nil {
		return fmt.Sprintf("  %08x  <raw>\n", instr.GetAddress())
	}
	asm := assembled.GetAssembly()
	line := fmt.Sprintf("%08x  %s", instr.GetAddress(), formatAssembly(asm))
	out := fmt.Sprintf("  %s\n", colorize.ColorizeInstructionLine(line))

	st := e.StateFor(instr)
	if st == nil {
		return out
	}
	for reg, def := range st.RegDefs() {
		out += fmt.Sprintf("      def r%d := %s\n", reg, def)
	}
	for reg := 0; reg <= disasm.RegNZCV; reg++ {
		for _, origin := range st.RegRefs(reg) {
			out += fmt.Sprintf("      use r%d <- %08x\n", reg, origin.Instr.GetAddress())
		}
	}
	return out
}
