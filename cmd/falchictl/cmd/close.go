package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var closeCmd = &cobra.Command{
	Use:   "close [slot-id]",
	Short: "Take a slot out of rotation",
	Long: `Mark a slot closed so no new orders can book it. Orders already
attached to the slot keep their pickup time.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewAdminClient(viper.GetString("url"))
		if err := client.CloseSlot(args[0]); err != nil {
			cmd.Printf("Failed to close slot: %v\n", err)
			return
		}
		cmd.Printf("Slot %s closed\n", args[0])
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen [slot-id]",
	Short: "Put a closed slot back in rotation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewAdminClient(viper.GetString("url"))
		if err := client.ReopenSlot(args[0]); err != nil {
			cmd.Printf("Failed to reopen slot: %v\n", err)
			return
		}
		cmd.Printf("Slot %s reopened\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(reopenCmd)
}
