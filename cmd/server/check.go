package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ebook_checkout/internal/config"
	"ebook_checkout/internal/domain"
)

func checkCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [reference]",
		Short: "Reconcile one reference and print its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s, _ := cmd.Flags().GetString("strategy"); s != "" {
				cfg.StatusStrategy = s
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.uc.CheckStatus(cmd.Context(), args[0])
			fmt.Fprintln(cmd.OutOrStdout(), status)
			if status == domain.CheckError {
				return fmt.Errorf("status check for %s failed", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringP("strategy", "s", "", "gateway or local (overrides STATUS_STRATEGY)")

	return cmd
}
