package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"synthkit/internal/export"
	"synthkit/internal/samplecsv"
	"synthkit/pkg/datasource"
	"synthkit/pkg/synthesizer"
)

func newSynthesizerCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "synthesizer",
		Aliases: []string{"synth"},
		Short:   "Train synthesizers and sample from them",
	}
	cmd.AddCommand(newSynthesizerFitCommand(ctx))
	cmd.AddCommand(newSynthesizerStatusCommand(ctx))
	cmd.AddCommand(newSynthesizerGetCommand(ctx))
	cmd.AddCommand(newSynthesizerListCommand(ctx))
	cmd.AddCommand(newSynthesizerSampleCommand(ctx))
	return cmd
}

// synthesizerView is the printable form of a bound handle.
type synthesizerView struct {
	UID    string             `json:"uid"`
	Name   string             `json:"name"`
	Kind   synthesizer.Kind   `json:"kind"`
	Status synthesizer.Status `json:"status"`
}

func viewOf(s *synthesizer.Synthesizer) synthesizerView {
	return synthesizerView{UID: s.UID(), Name: s.Name(), Kind: s.Kind(), Status: s.LastStatus()}
}

func renderSynthesizer(v synthesizerView) string {
	return renderKeyValues([][2]string{
		{"UID", v.UID},
		{"Name", valueOrDash(v.Name)},
		{"Kind", valueOrDash(string(v.Kind))},
		{"State", stateLabel(string(v.Status.State))},
		{"Prepare", stateLabel(v.Status.Prepare.State)},
		{"Training", stateLabel(v.Status.Training.State)},
		{"Report", stateLabel(v.Status.Report.State)},
	})
}

// parseDataTypes reads repeated col=type flags.
func parseDataTypes(values []string) (map[string]datasource.DataType, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]datasource.DataType, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --dtype %q (expected column=type)", raw)
		}
		dt, err := datasource.ParseDataType(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --dtype %q: %w", raw, err)
		}
		out[name] = dt
	}
	return out, nil
}

func newSynthesizerFitCommand(ctx *commandContext) *cobra.Command {
	var (
		name          string
		privacy       string
		sortBy        []string
		entities      []string
		generate      []string
		exclude       []string
		dtypes        []string
		target        string
		condition     []string
		anonymizeFile string
		noWait        bool
	)

	cmd := &cobra.Command{
		Use:   "fit <datasource-uid>",
		Short: "Train a synthesizer on a datasource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, ok := synthesizer.ParsePrivacyLevel(privacy)
			if !ok {
				return fmt.Errorf("unsupported privacy level %q", privacy)
			}
			dataTypes, err := parseDataTypes(dtypes)
			if err != nil {
				return err
			}
			anonymize, err := readMapFile(anonymizeFile)
			if err != nil {
				return fmt.Errorf("read anonymize file: %w", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dsClient, err := ctx.datasources(cmd)
			if err != nil {
				return err
			}
			synthClient, err := ctx.synthesizers(cmd)
			if err != nil {
				return err
			}

			ds, err := dsClient.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			kind, err := synthesizer.ParseKind(string(ds.DataType))
			if err != nil {
				return err
			}
			synth := synthClient.New(kind)
			spec := synthesizer.Spec{
				Name:         name,
				DataSource:   ds,
				PrivacyLevel: level,
				Attributes: synthesizer.Attributes{
					SortBy:        sortBy,
					EntityColumns: entities,
					Generate:      generate,
					Exclude:       exclude,
					DataTypes:     dataTypes,
				},
				Target:    target,
				Anonymize: anonymize,
				Condition: condition,
			}
			if err := synth.Submit(cmd.Context(), spec); err != nil {
				return err
			}
			if !noWait {
				if _, err := synth.AwaitCompletion(cmd.Context(), cfg.PollInterval()); err != nil {
					var fitErr *synthesizer.FittingError
					if errors.As(err, &fitErr) {
						_ = ctx.emit(cmd, viewOf(synth), func() string { return renderSynthesizer(viewOf(synth)) })
					}
					return err
				}
			}
			view := viewOf(synth)
			return ctx.emit(cmd, view, func() string { return renderSynthesizer(view) })
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "Synthesizer name (defaults to a random UUID)")
	flags.StringVar(&privacy, "privacy", string(synthesizer.HighFidelity), "Privacy level: HIGH_FIDELITY, HIGH_PRIVACY or BALANCED_PRIVACY_FIDELITY")
	flags.StringSliceVar(&sortBy, "sort-by", nil, "Columns ordering timeseries rows")
	flags.StringSliceVar(&entities, "entity", nil, "Entity columns of a timeseries")
	flags.StringSliceVar(&generate, "generate", nil, "Columns to synthesize (default all)")
	flags.StringSliceVar(&exclude, "exclude", nil, "Columns to leave out of the synthesis")
	flags.StringArrayVar(&dtypes, "dtype", nil, "Override a column data type, column=type (repeatable)")
	flags.StringVar(&target, "target", "", "Column the synthesizer should predict well")
	flags.StringSliceVar(&condition, "condition", nil, "Columns samples may later be conditioned on")
	flags.StringVar(&anonymizeFile, "anonymize-file", "", "YAML or JSON file mapping columns to anonymization strategies")
	flags.BoolVar(&noWait, "no-wait", false, "Return once the job is submitted")
	return cmd
}

func newSynthesizerStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <uid>",
		Short: "Show the training status of a synthesizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.synthesizers(cmd)
			if err != nil {
				return err
			}
			synth, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			status := synth.Status(cmd.Context())
			return ctx.emit(cmd, status, func() string { return stateLabel(string(status.State)) })
		},
	}
}

func newSynthesizerGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uid>",
		Short: "Show a synthesizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.synthesizers(cmd)
			if err != nil {
				return err
			}
			synth, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := viewOf(synth)
			return ctx.emit(cmd, view, func() string { return renderSynthesizer(view) })
		},
	}
}

func newSynthesizerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List synthesizers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.synthesizers(cmd)
			if err != nil {
				return err
			}
			items, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.emit(cmd, items, func() string {
				if len(items) == 0 {
					return "No synthesizers found"
				}
				rows := make([][]string, 0, len(items))
				for _, s := range items {
					rows = append(rows, []string{s.UID, valueOrDash(s.Name), valueOrDash(string(s.Kind)), stateLabel(string(s.Status.State)), valueOrDash(s.DataSourceUID)})
				}
				return renderTable([]string{"UID", "Name", "Kind", "State", "Datasource"}, rows, nil)
			})
		},
	}
}

// sampleParams maps the mutually exclusive size flags onto the request.
func sampleParams(cmd *cobra.Command, records, entities int, fraction float64) (synthesizer.SampleParams, error) {
	flags := cmd.Flags()
	set := 0
	var params synthesizer.SampleParams
	if flags.Changed("records") {
		set++
		params = synthesizer.Records(records)
	}
	if flags.Changed("entities") {
		set++
		params = synthesizer.Entities(entities)
	}
	if flags.Changed("fraction") {
		set++
		params = synthesizer.Fraction(fraction)
	}
	if set > 1 {
		return synthesizer.SampleParams{}, errors.New("use only one of --records, --entities and --fraction")
	}
	return params, nil
}

func renderPreview(p samplecsv.Preview) string {
	var b strings.Builder
	if len(p.Rows) > 0 {
		b.WriteString(renderTable(p.Header, p.Rows, nil))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Showing %d of %d rows", len(p.Rows), p.Total)
	return b.String()
}

func newSynthesizerSampleCommand(ctx *commandContext) *cobra.Command {
	var (
		records  int
		entities int
		fraction float64
		out      string
		preview  int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sample <uid>",
		Short: "Draw a sample from a trained synthesizer",
		Long: "Draw a sample from a trained synthesizer.\n\n" +
			"Without --out the CSV is written to stdout. --out accepts a file path or s3://bucket/key.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := sampleParams(cmd, records, entities, fraction)
			if err != nil {
				return err
			}
			if interval <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				interval = cfg.SamplePollInterval()
			}
			client, err := ctx.synthesizers(cmd)
			if err != nil {
				return err
			}

			var sink export.Sink
			if strings.TrimSpace(out) != "" {
				sink, err = export.Open(out, ctx.exportSettings())
				if err != nil {
					return err
				}
			}

			synth, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := synth.Sample(cmd.Context(), params, interval)
			if err != nil {
				return err
			}

			if sink == nil && preview <= 0 {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			stdout := cmd.OutOrStdout()
			if sink != nil {
				location, err := sink.Write(cmd.Context(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Sample written to %s\n", location)
			}
			if preview > 0 {
				p, err := samplecsv.Parse(data, preview)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, renderPreview(p))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&records, "records", 1, "Number of records (tabular)")
	flags.IntVar(&entities, "entities", 0, "Number of entities (timeseries)")
	flags.Float64Var(&fraction, "fraction", 1.0, "Fraction of the original size (multitable)")
	flags.StringVar(&out, "out", "", "Write the sample to a file or s3://bucket/key")
	flags.IntVar(&preview, "preview", 0, "Print the first N rows as a table")
	flags.DurationVar(&interval, "interval", 0, "Poll interval (default workflow.sample_poll_interval_seconds)")
	return cmd
}

