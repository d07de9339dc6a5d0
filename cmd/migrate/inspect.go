package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/report"
)

// detectResult is the JSON written by the detect command.
type detectResult struct {
	Headers []string            `json:"headers"`
	Matches []core.AdapterMatch `json:"matches"`
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered adapters by group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return report.WritePayload(a.stdout, adapterList(), false)
			}
			return a.printAdapters()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the list as JSON")
	return cmd
}

type adapterEntry struct {
	Key         string   `json:"key"`
	Group       string   `json:"group"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Modes       []string `json:"modes"`
}

func adapterList() []adapterEntry {
	defs := core.All()
	out := make([]adapterEntry, 0, len(defs))
	for _, def := range defs {
		out = append(out, adapterEntry{
			Key:         def.Info.Key,
			Group:       def.Info.Group,
			Label:       def.Info.Label,
			Description: def.Info.Description,
			Modes:       def.ModeNames(),
		})
	}
	return out
}

func (a *app) printAdapters() error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, group := range core.Groups() {
		fmt.Fprintf(tw, "%s\n", group)
		for _, def := range core.ByGroup(group) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", def.Info.Key, def.Info.Label, strings.Join(def.ModeNames(), ","))
		}
	}
	return tw.Flush()
}

func newTemplateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "template <adapter>",
		Short: "Print the CSV header an adapter expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := core.Lookup(args[0])
			if err != nil {
				return err
			}
			w := csv.NewWriter(a.stdout)
			if err := w.Write(core.HeaderTemplate(def)); err != nil {
				return err
			}
			w.Flush()
			return w.Error()
		},
	}
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Rank the adapters whose template matches a file's header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return a.fatal(core.Fatal("FILE001", "unreadable input", err), false)
			}
			defer f.Close()

			headers, err := core.ReadHeader(f, core.MaxFileSize)
			if err != nil {
				return a.fatal(err, false)
			}

			matches := core.DetectAdapter(headers)
			if matches == nil {
				matches = []core.AdapterMatch{}
			}
			return report.WritePayload(a.stdout, detectResult{Headers: headers, Matches: matches}, false)
		},
	}
}
