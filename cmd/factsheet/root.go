package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags shared by every subcommand
type rootFlags struct {
	configPath string
	logLevel   string
	document   string
	page       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "factsheet",
		Short: "Resolve and render tenant and component factsheets",
		Long: TitleStyle.Render("factsheet") + SubtitleStyle.Render(" - tenant and component factsheets") + `

factsheet reads a document of url-sets, components and tenants, resolves
every "from" reference into the component and tenant hierarchies and shows
the properties each node accumulates from its ancestors.

` + SubtitleStyle.Render("Examples:") + `
  factsheet init                     Write a default factsheet.yaml
  factsheet tenant acme              Show a tenant and its components
  factsheet component web,db         Show components and their tenants
  factsheet validate                 Check every configured sheet
  factsheet serve                    Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: search ./factsheet.yaml, ~/.config/factsheet/config.yaml, ...)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.document, "document", "", "serve this document for every page instead of the configured sheets")
	pf.StringVar(&flags.page, "page", "/", "page URL selecting the sheet")

	root.AddCommand(
		newInitCmd(flags),
		newValidateCmd(flags),
		newTenantCmd(flags),
		newComponentCmd(flags),
		newOverviewCmd(flags),
		newMonitoringCmd(flags),
		newExportCmd(flags),
		newServeCmd(flags),
	)
	return root
}
