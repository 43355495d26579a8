package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/ui/styles"
)

const aboutMarkdown = `# egalito

A use-def dataflow engine, symbolic expression builder, and link resolver
for AArch64 ELF binaries.

## Commands

- **analyze** — decode a function and print its def/use chains
- **link** — resolve a module's relocations into the link graph
- **archive** — round-trip a function's instructions through the archive codec
- **inspect** — browse a function's instructions interactively
- **logs** — follow an ` + "`EGALITO_LOG_TO_FILE`" + ` log
- **schema** — print this CLI's configuration JSON schema
`

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show a summary of what this tool does",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer := styles.GetMarkdownRenderer(80)
		out, err := renderer.Render(aboutMarkdown)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), aboutMarkdown)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}
