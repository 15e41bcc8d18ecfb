package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"synthkit/pkg/connector"
)

func newConnectorCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector",
		Short: "Inspect and create connectors",
	}
	cmd.AddCommand(newConnectorGetCommand(ctx))
	cmd.AddCommand(newConnectorListCommand(ctx))
	cmd.AddCommand(newConnectorCreateCommand(ctx))
	return cmd
}

func connectorRows(items []connector.Connector) [][]string {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{c.UID, valueOrDash(c.Name), string(c.Type)})
	}
	return rows
}

func newConnectorGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uid>",
		Short: "Show a connector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connectors(cmd)
			if err != nil {
				return err
			}
			conn, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return ctx.emit(cmd, conn, func() string {
				return renderTable([]string{"UID", "Name", "Type"}, connectorRows([]connector.Connector{*conn}), nil)
			})
		},
	}
}

func newConnectorListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connectors(cmd)
			if err != nil {
				return err
			}
			items, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.emit(cmd, items, func() string {
				if len(items) == 0 {
					return "No connectors found"
				}
				return renderTable([]string{"UID", "Name", "Type"}, connectorRows(items), nil)
			})
		},
	}
}

func newConnectorCreateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var connType string
	var credentialsFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a connector from a credentials file (YAML or JSON)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := connector.ParseType(connType)
			if err != nil {
				types := make([]string, 0)
				for _, t := range connector.Types() {
					types = append(types, string(t))
				}
				return fmt.Errorf("%w (supported: %s)", err, strings.Join(types, ", "))
			}
			creds, err := readMapFile(credentialsFile)
			if err != nil {
				return fmt.Errorf("read credentials: %w", err)
			}
			client, err := ctx.connectors(cmd)
			if err != nil {
				return err
			}
			conn, err := client.Create(cmd.Context(), connector.CreateRequest{
				Type:        parsedType,
				Name:        name,
				Credentials: creds,
			})
			if err != nil {
				return err
			}
			return ctx.emit(cmd, conn, func() string {
				return renderTable([]string{"UID", "Name", "Type"}, connectorRows([]connector.Connector{*conn}), nil)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Connector name")
	cmd.Flags().StringVar(&connType, "type", "", "Connector type (aws-s3, gcs, mysql, ...)")
	cmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "YAML or JSON file holding the credentials")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("credentials-file")
	return cmd
}

// readMapFile decodes a YAML (or JSON, a YAML subset) object from path.
func readMapFile(path string) (map[string]any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}
