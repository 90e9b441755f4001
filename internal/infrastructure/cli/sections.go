package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the configuration sections the analysis covers",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range space.SectionNames {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(sectionsCmd)
}
