package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	generateCapacity int
	generateRanges   []string
	generateClosed   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [date]",
	Short: "Generate a day's slot grid from opening hours",
	Long: `Expand a day's opening hours into fixed pickup windows. Windows that
already exist are left untouched, so the command is safe to re-run after
orders have been placed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date := args[0]

		req := generateRequest{
			Date:     date,
			Open:     !generateClosed,
			Capacity: generateCapacity,
		}
		for _, r := range generateRanges {
			parts := strings.SplitN(r, "-", 2)
			if len(parts) != 2 {
				cmd.Printf("Invalid range %q, want HH:MM-HH:MM\n", r)
				return
			}
			req.Ranges = append(req.Ranges, hourRangeInput{From: parts[0], To: parts[1]})
		}

		client := NewAdminClient(viper.GetString("url"))
		res, err := client.GenerateSlots(req)
		if err != nil {
			cmd.Printf("Failed to generate slots: %v\n", err)
			return
		}

		cmd.Printf("Slots generated for %s: %d new, %d already existed\n",
			res.Date, res.Created, res.Requested-res.Created)
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateCapacity, "capacity", 4, "units per window")
	generateCmd.Flags().StringArrayVar(&generateRanges, "range", nil, "operating range HH:MM-HH:MM (repeatable)")
	generateCmd.Flags().BoolVar(&generateClosed, "closed", false, "mark the day closed (generates nothing)")
	generateCmd.MarkFlagRequired("range")

	rootCmd.AddCommand(generateCmd)
}
