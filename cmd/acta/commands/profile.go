package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acta-run/acta-core/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and manage acta profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := profiles.List()
		if err != nil {
			return err
		}
		return printJSON(list)
	},
}

var profileActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := profiles.Active()
		if err != nil {
			return err
		}
		return printJSON(prof)
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Switch the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return profiles.Switch(args[0])
	},
}

var (
	profileCreateName    string
	profileCreateAdapter string
	profileCreateModel   string
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a new profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := profiles.Create(types.Profile{
			ID:   args[0],
			Name: profileCreateName,
			LLM: types.LLMConfig{
				AdapterID: types.AdapterID(profileCreateAdapter),
				Model:     profileCreateModel,
			},
		})
		if err != nil {
			return err
		}
		return printJSON(prof)
	},
}

var (
	profileDeleteArchive bool
)

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return profiles.Delete(args[0], profileDeleteArchive)
	},
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileCreateName, "name", "", "Display name")
	profileCreateCmd.Flags().StringVar(&profileCreateAdapter, "adapter", string(types.AdapterOllama), "Model adapter id")
	profileCreateCmd.Flags().StringVar(&profileCreateModel, "model", "", "Model name")
	profileDeleteCmd.Flags().BoolVar(&profileDeleteArchive, "archive", true, "Move the profile aside instead of deleting it outright")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileActiveCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
