package cli

import (
	"github.com/spf13/cobra"

	"github.com/fitdeskhq/fitdesk/internal/chattui"
	"github.com/fitdeskhq/fitdesk/internal/support"
)

func newChatCmd() *cobra.Command {
	var tabFlag string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the staff chat widget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			tab, err := support.ParseStatus(tabFlag)
			if err != nil {
				return err
			}
			return chattui.Run(chattui.Config{Engine: eng, Tab: tab})
		},
	}
	cmd.Flags().StringVar(&tabFlag, "tab", string(support.StatusActive), "status tab to open on")
	return cmd
}
