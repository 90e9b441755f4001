package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/application"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/wiring"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <space-id>",
	Short: "Generate optimization suggestions from labeled benchmark feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedbackFile, _ := cmd.Flags().GetString("feedback")
		if feedbackFile == "" {
			return fmt.Errorf("--feedback is required")
		}

		data, err := os.ReadFile(feedbackFile)
		if err != nil {
			return fmt.Errorf("failed to read feedback file: %w", err)
		}
		var feedback []application.LabelingFeedback
		if err := json.Unmarshal(data, &feedback); err != nil {
			return fmt.Errorf("failed to parse feedback file: %w", err)
		}

		cwd, _ := os.Getwd()
		engine, err := wiring.BuildEngine(cwd)
		if err != nil {
			return err
		}

		doc, err := engine.Fetcher.FetchSpace(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		result, err := engine.Optimizer.GenerateOptimizations(cmd.Context(), doc, feedback)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	optimizeCmd.Flags().String("feedback", "", "Path to a JSON file of labeled benchmark questions")
	RootCmd.AddCommand(optimizeCmd)
}
