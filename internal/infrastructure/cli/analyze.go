package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/wiring"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <space-id>",
	Short: "Run a full checklist analysis of a Genie Space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFormat, _ := cmd.Flags().GetString("output")
		outputFile, _ := cmd.Flags().GetString("file")
		save, _ := cmd.Flags().GetBool("save")

		cwd, _ := os.Getwd()
		engine, err := wiring.BuildEngine(cwd)
		if err != nil {
			return err
		}

		out, err := engine.Orchestrator.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		if save {
			if err := engine.Repo.SaveReport(out); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
		}

		if outputFormat == "json" {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			if outputFile != "" {
				return os.WriteFile(outputFile, data, 0600)
			}
			fmt.Println(string(data))
			return nil
		}

		renderReport(out)
		return nil
	},
}

var scoreStyle = lipgloss.NewStyle().Bold(true)

func renderReport(out *analysis.AgentOutput) {
	columns := []table.Column{
		{Title: "Section", Width: 40},
		{Title: "Score", Width: 7},
		{Title: "Passed", Width: 8},
		{Title: "Findings", Width: 9},
	}

	var rows []table.Row
	for _, a := range out.Analyses {
		if a == nil {
			continue
		}
		passed, applicable := 0, 0
		for _, r := range a.Checklist {
			if !r.Applicable {
				continue
			}
			applicable++
			if r.Passed {
				passed++
			}
		}
		rows = append(rows, table.Row{
			a.SectionName,
			fmt.Sprintf("%.0f", a.Score),
			fmt.Sprintf("%d/%d", passed, applicable),
			fmt.Sprintf("%d", len(a.Findings)),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Bold(true)
	s.Selected = lipgloss.NewStyle() // Disable selection style for static view
	t.SetStyles(s)

	fmt.Printf("Space %s\n", out.GenieSpaceID)
	fmt.Println(t.View())
	fmt.Println(scoreStyle.Render(fmt.Sprintf("Overall score: %.1f", out.OverallScore)))

	for _, a := range out.Completed() {
		if len(a.Findings) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", a.SectionName)
		for _, f := range a.Findings {
			fmt.Printf("- [%s/%s] %s\n", f.Category, f.Severity, f.Description)
			if f.Recommendation != "" {
				fmt.Printf("  Recommendation: %s\n", f.Recommendation)
			}
		}
	}
}

func init() {
	analyzeCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	analyzeCmd.Flags().String("file", "", "Write JSON output to a file")
	analyzeCmd.Flags().Bool("save", false, "Persist the report under .spacecheck/")
	RootCmd.AddCommand(analyzeCmd)
}
