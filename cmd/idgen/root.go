package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gourl/idforge/internal/idgen"
)

type rootOptions struct {
	jsonOutput     bool
	nanoIDSize     int
	nanoIDAlphabet string
}

func (o *rootOptions) dispatcher() (*idgen.Dispatcher, error) {
	return idgen.NewDispatcher(idgen.Options{
		NanoIDSize:     o.nanoIDSize,
		NanoIDAlphabet: o.nanoIDAlphabet,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "idgen",
		Short:         "Generate and inspect UUIDv4, UUIDv7, ULID, NanoID and CUID identifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Write JSON output")
	cmd.PersistentFlags().IntVar(&opts.nanoIDSize, "nanoid-size", idgen.DefaultNanoIDSize, "NanoID length")
	cmd.PersistentFlags().StringVar(&opts.nanoIDAlphabet, "nanoid-alphabet", "", "NanoID alphabet (default URL-safe)")

	cmd.AddCommand(
		newGenCmd(opts),
		newFormatsCmd(opts),
		newInspectCmd(opts),
	)
	return cmd
}

func newGenCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "gen <format>",
		Short: "Generate identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := idgen.ParseFormat(args[0])
			if err != nil {
				return err
			}
			d, err := opts.dispatcher()
			if err != nil {
				return err
			}
			ids, err := d.GenerateBatch(format, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, map[string]any{
					"format": format,
					"count":  len(ids),
					"ids":    ids,
				})
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("Number of identifiers (%d-%d)", idgen.MinBatchSize, idgen.MaxBatchSize))
	return cmd
}

func newFormatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := idgen.Formats()
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				type formatOutput struct {
					Name        idgen.Format `json:"name"`
					DisplayName string       `json:"display_name"`
					Description string       `json:"description"`
				}
				list := make([]formatOutput, 0, len(formats))
				for _, f := range formats {
					list = append(list, formatOutput(f))
				}
				return writeJSON(out, list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tDESCRIPTION")
			for _, f := range formats {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.DisplayName, f.Description)
			}
			return tw.Flush()
		},
	}
}

type inspectOutput struct {
	Format      idgen.Format `json:"format"`
	ID          string       `json:"id"`
	Length      int          `json:"length"`
	TimestampMs *int64       `json:"timestamp_ms,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	UUIDVersion int          `json:"uuid_version,omitempty"`
	UUIDVariant string       `json:"uuid_variant,omitempty"`
	Counter     *uint32      `json:"counter,omitempty"`
	Alphabet    string       `json:"alphabet,omitempty"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <format> <id>",
		Short: "Validate an identifier and decode its fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := idgen.ParseFormat(args[0])
			if err != nil {
				return err
			}
			d, err := opts.dispatcher()
			if err != nil {
				return err
			}
			res, err := d.Inspect(format, args[1])
			if err != nil {
				return err
			}

			o := inspectOutput{
				Format:      res.Format,
				ID:          args[1],
				Length:      res.Length,
				UUIDVersion: res.UUIDVersion,
				UUIDVariant: res.UUIDVariant,
				Alphabet:    res.Alphabet,
			}
			if res.HasTimestamp {
				ms := res.TimestampMs
				o.TimestampMs = &ms
				o.Timestamp = time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
			}
			if res.HasCounter {
				c := res.Counter
				o.Counter = &c
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, o)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "format:\t%s\n", o.Format)
			fmt.Fprintf(tw, "length:\t%d\n", o.Length)
			if o.TimestampMs != nil {
				fmt.Fprintf(tw, "timestamp:\t%s (%d)\n", o.Timestamp, *o.TimestampMs)
			}
			if o.UUIDVersion != 0 {
				fmt.Fprintf(tw, "version:\t%d\n", o.UUIDVersion)
				fmt.Fprintf(tw, "variant:\t%s\n", o.UUIDVariant)
			}
			if o.Counter != nil {
				fmt.Fprintf(tw, "counter:\t%d\n", *o.Counter)
			}
			if o.Alphabet != "" {
				fmt.Fprintf(tw, "alphabet:\t%s\n", o.Alphabet)
			}
			return tw.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
