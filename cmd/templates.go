package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/registry"
)

type templatesOptions struct {
	xlsxPath  string
	checkPath string
	codelists bool
}

// codelistPreview is how many codes a codelist row shows before eliding.
const codelistPreview = 6

func newTemplatesCmd(a *app) *cobra.Command {
	opts := &templatesOptions{}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List, export or check the template registry",
		Long: `Without flags, list the templates with their columns and weights.

--xlsx writes the registry as a data dictionary workbook. --check reads a
data dictionary workbook and reports every difference with the registry.
--codelists lists the ESA code lists enumerated columns are checked against.`,
		Example: `  roi templates
  roi templates --codelists
  roi templates --xlsx dictionary.xlsx
  roi templates --check dictionary.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTemplates(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Write the registry as an XLSX data dictionary")
	cmd.Flags().StringVar(&opts.checkPath, "check", "", "Compare an XLSX data dictionary with the registry")
	cmd.Flags().BoolVar(&opts.codelists, "codelists", false, "List the ESA code lists")
	return cmd
}

func (a *app) runTemplates(cmd *cobra.Command, opts *templatesOptions) error {
	out := cmd.OutOrStdout()

	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		f, err := os.Create(opts.xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.xlsxPath, err)
		}
		if err := registry.WriteDictionary(reg, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", opts.xlsxPath, err)
		}
		fmt.Fprintf(out, "Data dictionary written: %s\n", opts.xlsxPath)
		return nil
	}

	if opts.checkPath != "" {
		defs, err := registry.ReadDictionary(opts.checkPath)
		if err != nil {
			return err
		}
		diffs := registry.Diff(reg, defs)
		if len(diffs) == 0 {
			fmt.Fprintln(out, "Data dictionary matches the registry")
			return nil
		}
		for _, d := range diffs {
			fmt.Fprintln(out, d)
		}
		return fmt.Errorf("data dictionary differs from the registry in %d places", len(diffs))
	}

	if opts.codelists {
		renderCodelists(out)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Register of Information templates (taxonomy " + reg.Version() + ")")
	t.AppendHeader(table.Row{"Template", "Name", "Columns", "Required", "Key", "Weight", "Optional"})
	for _, def := range reg.Templates() {
		key := "-"
		if c, ok := def.KeyColumn(); ok {
			key = c.ESACode
		}
		t.AppendRow(table.Row{def.ID, def.Name, len(def.Columns), def.RequiredColumns(), key, def.Weight, yesNo(def.OptionalWhenEmpty)})
	}
	t.Render()

	var refs []string
	for _, def := range reg.Templates() {
		for _, c := range def.Columns {
			if c.References != nil {
				refs = append(refs, fmt.Sprintf("  %s.%s -> %s", def.ID, c.ESACode, c.References))
			}
		}
	}
	if len(refs) > 0 {
		fmt.Fprintf(out, "\nCross-template references:\n%s\n", strings.Join(refs, "\n"))
	}
	return nil
}

// renderCodelists prints every built-in code list with a preview of its
// sorted codes.
func renderCodelists(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code list", "Entries", "Codes"})
	for _, l := range registry.Codelists() {
		codes := l.Codes()
		preview := codes
		if len(codes) > codelistPreview {
			preview = append(codes[:codelistPreview:codelistPreview], fmt.Sprintf("... (+%d more)", len(codes)-codelistPreview))
		}
		t.AppendRow(table.Row{l.Name, len(codes), strings.Join(preview, " ")})
	}
	t.Render()
}
