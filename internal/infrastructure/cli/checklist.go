package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist <path>",
	Short: "Parse and validate a checklist document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFormat, _ := cmd.Flags().GetString("output")

		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		spec, err := checklist.ParseFile(args[0], logger)
		if err != nil {
			return fmt.Errorf("checklist is invalid: %w", err)
		}

		if outputFormat == "json" {
			sections := make(map[string][]checklist.Item)
			for _, name := range spec.Sections() {
				sections[name] = spec.ItemsForSection(name)
			}
			data, err := json.MarshalIndent(sections, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Checklist OK: %d items across %d sections\n", spec.ItemCount(), len(spec.Sections()))
		for _, name := range spec.Sections() {
			items := spec.ItemsForSection(name)
			programmatic, judged := checklist.Partition(items)
			fmt.Printf("  %s: %d items (%d programmatic, %d judged)\n",
				name, len(items), len(programmatic), len(judged))
		}
		return nil
	},
}

func init() {
	checklistCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	RootCmd.AddCommand(checklistCmd)
}
