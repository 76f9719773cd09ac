package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ebook_checkout/internal/config"
	"ebook_checkout/internal/domain"
	"ebook_checkout/internal/repository"
)

func transactionsCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List recorded transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			phone, _ := cmd.Flags().GetString("phone")
			status, _ := cmd.Flags().GetString("status")

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.uc.List(cmd.Context(), repository.TxFilter{
				Phone:  phone,
				Status: domain.TxStatus(status),
			}, limit, 0)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REFERENCE\tPHONE\tAMOUNT\tSTATUS\tCREATED")
			for _, t := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s TZS\t%s\t%s\n",
					t.Reference, t.Phone, humanize.Comma(t.Amount), t.Status, humanize.Time(t.CreatedAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum rows")
	cmd.Flags().String("phone", "", "Filter by phone")
	cmd.Flags().String("status", "", "Filter by status (PENDING, PAID, FAILED)")

	return cmd
}
