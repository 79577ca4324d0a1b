package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlford/clock/internal/clock"
	"github.com/dlford/clock/internal/face"
)

var digitsCmd = &cobra.Command{
	Use:   "digits [HH:MM:SS]",
	Short: "Print the digit string and lit LED ids for a time",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if len(args) == 1 {
			t, err := time.ParseInLocation(time.TimeOnly, args[0], time.Local)
			if err != nil {
				return err
			}
			now = t
		}
		h24, _ := cmd.Flags().GetBool("24h")
		if !cmd.Flags().Changed("24h") {
			h24 = loadConfig().TwentyFour()
		}

		s := clock.Format(now, h24)
		st := face.NewState()
		if err := st.SetDigits(s); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		fmt.Fprintln(cmd.OutOrStdout(), st.LitIDs())
		return nil
	},
}

func init() {
	digitsCmd.Flags().Bool("24h", false, "use 24-hour format")
}
