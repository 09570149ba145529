package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect the daemon's record cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newRecordsListCommand(ctx))
	cmd.AddCommand(newRecordsShowCommand(ctx))
	cmd.AddCommand(newRecordsDeleteCommand(ctx))
	cmd.AddCommand(newRecordsClearCommand(ctx))
	return cmd
}

func newRecordsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ad-id>",
		Short: "Delete one cached record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteRecord(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted record %s\n", args[0])
			return nil
		},
	}
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached feature records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			records, err := client.Records(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "record cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.AdID,
					record.Media.Modality,
					fmt.Sprintf("%dx%d", record.Media.Width, record.Media.Height),
					fmt.Sprintf("%.2f", record.Features.Color.Colorfulness),
					record.Version,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Ad ID", "Modality", "Dimensions", "Colorfulness", "Schema"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw record list JSON")
	return cmd
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "show <ad-id>",
		Short: "Show one cached feature record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			record, err := client.Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonFlag || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, record)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecordTable(record))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw record JSON")
	return cmd
}

func newRecordsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.ClearRecords(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "record cache cleared")
			return nil
		},
	}
}
