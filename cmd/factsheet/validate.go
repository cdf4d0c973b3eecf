package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"factsheet/internal/service"
)

func newValidateCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load every configured sheet and check required properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			reports := a.service().ValidateAll()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				writeReports(cmd.OutOrStdout(), reports)
			}

			failed := 0
			for _, r := range reports {
				if !r.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sheets failed validation", failed, len(reports))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as JSON")
	return cmd
}

func writeReports(w io.Writer, reports []*service.ValidationReport) {
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintf(w, "%s %s\n  %s\n", ErrorStyle.Render("✗"), r.Sheet, r.Error)
			continue
		}
		if len(r.Problems) == 0 {
			fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), r.Sheet,
				SubtitleStyle.Render(fmt.Sprintf("(%d components, %d tenants)", r.Components, r.Tenants)))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("!"), r.Sheet)
		for _, p := range r.Problems {
			fmt.Fprintf(w, "  %s %s: missing %s\n", p.Tree, p.ID, strings.Join(p.Missing, ", "))
		}
	}
}
