package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/acta-run/acta-core/pkg/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage a profile's trust rules",
}

var rulesProfileID string

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the trust rules for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := resolveRulesProfile()
		if err != nil {
			return err
		}
		list, err := profiles.RuleStore(prof).List(context.Background())
		if err != nil {
			return err
		}
		return printJSON(list)
	},
}

var (
	ruleTool     string
	ruleScope    string
	ruleDecision string
)

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a trust rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := resolveRulesProfile()
		if err != nil {
			return err
		}
		rule := types.TrustRule{
			Tool:        ruleTool,
			ScopePrefix: ruleScope,
			Decision:    types.Decision(ruleDecision),
		}
		added, err := profiles.RuleStore(prof).Add(context.Background(), rule)
		if err != nil {
			return err
		}
		return printJSON(added)
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <ruleId>",
	Short: "Remove a trust rule by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := resolveRulesProfile()
		if err != nil {
			return err
		}
		return profiles.RuleStore(prof).Remove(context.Background(), args[0])
	},
}

func resolveRulesProfile() (types.Profile, error) {
	if rulesProfileID != "" {
		return profiles.Get(rulesProfileID)
	}
	return profiles.Active()
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesProfileID, "profile", "", "Profile id (defaults to the active profile)")
	rulesAddCmd.Flags().StringVar(&ruleTool, "tool", "", "Tool id the rule applies to")
	rulesAddCmd.Flags().StringVar(&ruleScope, "scope", "", "Scope prefix the rule applies to")
	rulesAddCmd.Flags().StringVar(&ruleDecision, "decision", string(types.DecisionAllow), "allow or deny")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
}
