package cli

import (
	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/status"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask a running loop to stop at its next iteration boundary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := status.NewStore(cfg.StateDir)
		if err := store.RequestStop(); err != nil {
			return err
		}
		cmd.Printf("stop requested: %s\n", store.StopPath())
		return nil
	},
}
