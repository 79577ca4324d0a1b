package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dlford/clock/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive the LEDs and serve the web preview",
	Long: `Renders the clock face at the configured frame rate, writes it to the LED
driver and serves /ws, /control, /clock.svg and /metrics. Edits to the config
file are applied while running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		f := cmd.Flags()
		if f.Changed("addr") {
			cfg.Addr, _ = f.GetString("addr")
		}
		if f.Changed("driver") {
			cfg.Driver, _ = f.GetString("driver")
		}
		if f.Changed("fps") {
			cfg.FPS, _ = f.GetInt("fps")
		}
		if f.Changed("brightness") {
			cfg.Brightness, _ = f.GetFloat64("brightness")
		}
		if f.Changed("hour-format") {
			cfg.HourFormat, _ = f.GetInt("hour-format")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		core, err := app.InitCore(cfg, configPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := core.Close(); err != nil {
				log.Warn().Err(err).Msg("close driver")
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().
			Str("driver", core.State.CurrentDriver).
			Str("renderer", cfg.Renderer).
			Int("fps", cfg.FPS).
			Float64("brightness", cfg.Brightness).
			Int("hour_format", cfg.HourFormat).
			Msg("clock starting")
		err = core.Run(ctx, cfg.Addr)
		log.Info().Msg("shutdown complete")
		return err
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "HTTP listen address")
	f.String("driver", "sim", "LED driver: sim | spi | nrz | none")
	f.Int("fps", 60, "target frames per second")
	f.Float64("brightness", 1, "global brightness 0..1")
	f.Int("hour-format", 12, "12 or 24")
}
