package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wellcomeai/tgbotsaas/internal/logutil"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

func newRewriteCmd() *cobra.Command {
	var botID, text string
	var userID int64
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Run one rewrite and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			rt, err := runtimeFromViper(logger)
			if err != nil {
				return err
			}
			result, err := rt.Service.Rewrite(cmd.Context(), rewrite.Request{
				BotID:  botID,
				Text:   text,
				UserID: userID,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&botID, "bot-id", "", "Tenant bot id.")
	cmd.Flags().StringVar(&text, "text", "", "Text to rewrite.")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "User id for the quota pre-check (0 skips it).")
	_ = cmd.MarkFlagRequired("bot-id")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var botID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rewrite statistics for a bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			rt, err := runtimeFromViper(logger)
			if err != nil {
				return err
			}
			totals, err := rt.Store.Totals(cmd.Context(), botID)
			if err != nil {
				return err
			}
			fmt.Printf("requests: %d\ntotal tokens: %d\navg duration: %.0fms\n",
				totals.Requests, totals.TotalTokens, totals.AvgDurationMs)
			return nil
		},
	}
	cmd.Flags().StringVar(&botID, "bot-id", "", "Tenant bot id.")
	_ = cmd.MarkFlagRequired("bot-id")
	return cmd
}
