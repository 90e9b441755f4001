package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write workspace and engine settings to .spacecheck/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()

		cfg, err := config.Load(cwd)
		if err != nil {
			return err
		}

		if v, _ := cmd.Flags().GetString("host"); v != "" {
			cfg.Host = v
		}
		if v, _ := cmd.Flags().GetString("token"); v != "" {
			cfg.Token = v
		}
		if v, _ := cmd.Flags().GetString("model"); v != "" {
			cfg.Model = v
		}
		if v, _ := cmd.Flags().GetString("checklist"); v != "" {
			cfg.ChecklistPath = v
		}
		if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
			cfg.Concurrency = v
		}

		if err := config.Save(cwd, cfg); err != nil {
			return err
		}
		fmt.Println("Configuration saved to .spacecheck/config.yaml")
		return nil
	},
}

func init() {
	configureCmd.Flags().String("host", "", "Databricks workspace URL")
	configureCmd.Flags().String("token", "", "Personal access token")
	configureCmd.Flags().String("model", "", "Judgment model serving endpoint name")
	configureCmd.Flags().String("checklist", "", "Path to the checklist document")
	configureCmd.Flags().Int("concurrency", 0, "Sections analyzed in parallel")
	RootCmd.AddCommand(configureCmd)
}
