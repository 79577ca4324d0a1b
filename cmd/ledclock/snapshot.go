package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlford/clock/internal/app"
	"github.com/dlford/clock/internal/facesvg"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the current clock face as SVG",
	RunE: func(cmd *cobra.Command, args []string) error {
		animated, _ := cmd.Flags().GetBool("animated")
		steps, _ := cmd.Flags().GetInt("steps")
		out, _ := cmd.Flags().GetString("output")

		cfg := loadConfig()
		now := time.Now()
		eng, err := app.NewEngine(cfg, app.NewRegistry(), now)
		if err != nil {
			return err
		}
		if err := eng.RenderOnce(now); err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			fh, err := os.Create(out)
			if err != nil {
				return err
			}
			defer fh.Close()
			w = fh
		}
		if animated {
			return facesvg.WriteAnimated(w, facesvg.Animation{Scene: eng.Scene(now), Steps: steps}, facesvg.DefaultOptions())
		}
		return facesvg.Write(w, eng.Last(), facesvg.DefaultOptions())
	},
}

func init() {
	snapshotCmd.Flags().BoolP("animated", "a", false, "loop one wave period with SVG animation")
	snapshotCmd.Flags().Int("steps", facesvg.DefaultSteps, "keyframes per period when animated")
	snapshotCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")
}
