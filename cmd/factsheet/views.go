package main

import (
	"github.com/spf13/cobra"
)

// viewFlags control how Markdown views are written
type viewFlags struct {
	raw   bool
	width int
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&v.raw, "raw", false, "print Markdown instead of rendering it for the terminal")
	cmd.Flags().IntVar(&v.width, "width", 100, "word wrap width for terminal rendering (0 disables wrapping)")
}

func newTenantCmd(flags *rootFlags) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "tenant <id>",
		Short: "Show a tenant and every component it sees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			svc := a.service()
			v, err := svc.Tenant(flags.page, args[0])
			if err != nil {
				return err
			}
			return show(cmd.OutOrStdout(), a.renderer.Tenant(v), view.raw, view.width)
		},
	}
	view.register(cmd)
	return cmd
}

func newComponentCmd(flags *rootFlags) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "component <name>[,<name>...]",
		Short: "Show components and the tenants using them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			svc := a.service()
			views, err := svc.Components(flags.page, args[0])
			if err != nil {
				return err
			}
			return show(cmd.OutOrStdout(), a.renderer.Components(views), view.raw, view.width)
		},
	}
	view.register(cmd)
	return cmd
}

func newOverviewCmd(flags *rootFlags) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:     "overview",
		Aliases: []string{"all"},
		Short:   "List the top-level components and the tenant tree",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			svc := a.service()
			v, err := svc.Overview(flags.page)
			if err != nil {
				return err
			}
			return show(cmd.OutOrStdout(), a.renderer.Overview(v), view.raw, view.width)
		},
	}
	view.register(cmd)
	return cmd
}

func newMonitoringCmd(flags *rootFlags) *cobra.Command {
	view := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "monitoring",
		Short: "List the monitoring entries of every tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			svc := a.service()
			views, err := svc.Monitoring(flags.page)
			if err != nil {
				return err
			}
			return show(cmd.OutOrStdout(), a.renderer.Monitoring(views), view.raw, view.width)
		},
	}
	view.register(cmd)
	return cmd
}
