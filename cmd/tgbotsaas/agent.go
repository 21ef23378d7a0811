package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wellcomeai/tgbotsaas/internal/logutil"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the bot's rewrite agent",
	}
	cmd.AddCommand(newAgentSetCmd())
	cmd.AddCommand(newAgentDeleteCmd())
	return cmd
}

func newAgentSetCmd() *cobra.Command {
	var botID, name, instructions string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the active rewrite agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			rt, err := runtimeFromViper(logger)
			if err != nil {
				return err
			}
			agent, err := rt.Service.CreateOrUpdateAgent(cmd.Context(), botID, name, instructions)
			if err != nil {
				return err
			}
			fmt.Printf("agent %q active for bot %s (external id %s)\n", agent.Name, agent.BotID, agent.ExternalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&botID, "bot-id", "", "Tenant bot id.")
	cmd.Flags().StringVar(&name, "name", "", "Agent display name.")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Agent instructions (10-2000 chars).")
	_ = cmd.MarkFlagRequired("bot-id")
	_ = cmd.MarkFlagRequired("instructions")
	return cmd
}

func newAgentDeleteCmd() *cobra.Command {
	var botID string
	var hard bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the bot's rewrite agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			rt, err := runtimeFromViper(logger)
			if err != nil {
				return err
			}
			if err := rt.Service.DeleteAgent(cmd.Context(), botID, hard); err != nil {
				return err
			}
			fmt.Printf("agent removed for bot %s\n", botID)
			return nil
		},
	}
	cmd.Flags().StringVar(&botID, "bot-id", "", "Tenant bot id.")
	cmd.Flags().BoolVar(&hard, "hard", false, "Hard-delete instead of deactivating.")
	_ = cmd.MarkFlagRequired("bot-id")
	return cmd
}
