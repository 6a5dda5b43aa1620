package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mkarrett/codescope/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize codescope configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure codescope for your repository and generates a .codescope.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
