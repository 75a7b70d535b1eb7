package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-dev/tessera/internal/update"
	"github.com/tessera-dev/tessera/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Info())

		if versionCheck {
			info, err := update.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			if info.Outdated {
				fmt.Printf("A newer release is available: %s\n", info.Latest)
			} else {
				fmt.Println("tessera is up to date.")
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}
