package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show daemon status and external tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, health)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s (schema %s)\n", health.Status, health.Version)
			if health.Records != nil {
				fmt.Fprintf(out, "Record cache: enabled, %d records\n", health.Records.Count)
			}

			rows := make([][]string, 0, len(health.Deps))
			for _, dep := range health.Deps {
				state := "available"
				if !dep.Available {
					state = "missing"
					if dep.Detail != "" {
						state = fmt.Sprintf("missing (%s)", dep.Detail)
					}
				}
				kind := "required"
				if dep.Optional {
					kind = "optional"
				}
				rows = append(rows, []string{dep.Name, kind, state})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Kind", "State"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw health JSON")
	return cmd
}
