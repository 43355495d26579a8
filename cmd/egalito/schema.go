package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

// Config documents the environment-driven knobs this CLI reads (logging,
// coloring); the schema command exists so other tooling can validate a
// config file against the same shape rather than hand-parsing env vars.
type Config struct {
	Debug     bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	LogPrefix string `json:"logPrefix" jsonschema:"title=Log Prefix,description=Prefix applied to every log line"`
	LogToFile bool   `json:"logToFile" jsonschema:"title=Log To File,description=Write logs to a timestamped file instead of stderr"`
	NoColor   bool   `json:"noColor" jsonschema:"title=No Color,description=Disable ANSI highlighting of disassembly output"`
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Print the JSON schema for this CLI's configuration",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
