package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"synthkit/pkg/datasource"
)

func newDatasourceCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasource",
		Aliases: []string{"ds"},
		Short:   "Inspect, create and wait on datasources",
	}
	cmd.AddCommand(newDatasourceGetCommand(ctx))
	cmd.AddCommand(newDatasourceListCommand(ctx))
	cmd.AddCommand(newDatasourceCreateCommand(ctx))
	cmd.AddCommand(newDatasourceWaitCommand(ctx))
	return cmd
}

func datasourceRows(items []datasource.DataSource) [][]string {
	rows := make([][]string, 0, len(items))
	for _, ds := range items {
		connectorUID := "-"
		if ds.Connector != nil && ds.Connector.UID != "" {
			connectorUID = ds.Connector.UID
		}
		rows = append(rows, []string{ds.UID, valueOrDash(ds.Name), string(ds.DataType), stateLabel(string(ds.Status)), connectorUID})
	}
	return rows
}

var datasourceHeaders = []string{"UID", "Name", "Type", "Status", "Connector"}

func renderDatasource(ds *datasource.DataSource) string {
	var b strings.Builder
	b.WriteString(renderTable(datasourceHeaders, datasourceRows([]datasource.DataSource{*ds}), nil))
	if len(ds.Columns) > 0 {
		rows := make([][]string, 0, len(ds.Columns))
		for i, c := range ds.Columns {
			rows = append(rows, []string{strconv.Itoa(i + 1), c.Name, string(c.DataType), string(c.VarType)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"#", "Column", "Data type", "Var type"}, rows, []columnAlignment{alignRight}))
	}
	return b.String()
}

func newDatasourceGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uid>",
		Short: "Show a datasource and its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.datasources(cmd)
			if err != nil {
				return err
			}
			ds, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return ctx.emit(cmd, ds, func() string { return renderDatasource(ds) })
		},
	}
}

func newDatasourceListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.datasources(cmd)
			if err != nil {
				return err
			}
			items, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.emit(cmd, items, func() string {
				if len(items) == 0 {
					return "No datasources found"
				}
				return renderTable(datasourceHeaders, datasourceRows(items), nil)
			})
		},
	}
}

func newDatasourceCreateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var dataType string
	var connectorUID string
	var query string
	var tablesFile string
	var wait bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a datasource over a connector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := datasource.ParseType(dataType)
			if err != nil {
				return err
			}
			tables, err := readMapFile(tablesFile)
			if err != nil {
				return err
			}
			client, err := ctx.datasources(cmd)
			if err != nil {
				return err
			}
			ds, err := client.Create(cmd.Context(), datasource.CreateRequest{
				Name:         name,
				DataType:     parsedType,
				ConnectorUID: connectorUID,
				Config:       datasource.MySQL(query, tables),
			})
			if err != nil {
				return err
			}
			if wait {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				ds, err = client.WaitAvailable(cmd.Context(), ds.UID, cfg.PollInterval())
				if err != nil {
					return err
				}
			}
			return ctx.emit(cmd, ds, func() string { return renderDatasource(ds) })
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Datasource name")
	cmd.Flags().StringVar(&dataType, "type", "tabular", "Data type: tabular, timeseries or multitable")
	cmd.Flags().StringVar(&connectorUID, "connector", "", "Connector uid")
	cmd.Flags().StringVar(&query, "query", "", "SQL query selecting the data (database connectors)")
	cmd.Flags().StringVar(&tablesFile, "tables-file", "", "YAML or JSON table selection (database connectors)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the datasource is available")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("connector")
	return cmd
}

func newDatasourceWaitCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "wait <uid>",
		Short: "Block until a datasource is available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.datasources(cmd)
			if err != nil {
				return err
			}
			if interval <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				interval = cfg.PollInterval()
			}
			ds, err := client.WaitAvailable(cmd.Context(), args[0], interval)
			if err != nil {
				return err
			}
			return ctx.emit(cmd, ds, func() string { return renderDatasource(ds) })
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default workflow.poll_interval_seconds)")
	return cmd
}
