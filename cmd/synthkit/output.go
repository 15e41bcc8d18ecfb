package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func (c *commandContext) validateOutput() error {
	if c.outputFlag == nil {
		return nil
	}
	switch outputFormat(strings.ToLower(strings.TrimSpace(*c.outputFlag))) {
	case "", formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use table, json or yaml)", *c.outputFlag)
	}
}

// format resolves --output; without it, terminals get tables and pipes get JSON.
func (c *commandContext) format(cmd *cobra.Command) outputFormat {
	if c.outputFlag != nil {
		if f := outputFormat(strings.ToLower(strings.TrimSpace(*c.outputFlag))); f != "" {
			return f
		}
	}
	if isTerminal(cmd.OutOrStdout()) {
		return formatTable
	}
	return formatJSON
}

// emit writes v in the selected format. table renders the human view.
func (c *commandContext) emit(cmd *cobra.Command, v any, table func() string) error {
	switch c.format(cmd) {
	case formatYAML:
		return writeYAML(cmd, v)
	case formatTable:
		fmt.Fprintln(cmd.OutOrStdout(), table())
		return nil
	default:
		return writeJSON(cmd, v)
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through JSON first so json tags decide the field names.
func writeYAML(cmd *cobra.Command, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var titleCaser = cases.Title(language.Und)

// stateLabel turns NOT_INITIALIZED into "Not Initialized" for tables.
func stateLabel(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return "-"
	}
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(state), "_", " "))
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
