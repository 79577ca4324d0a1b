package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/schedule"
)

// NewConductor binds a time-of-day plan to the engine: dim levels scale
// the output and looks crossfade the renderer.
func NewConductor(eng *render.Engine, reg *render.Registry, plan schedule.Plan) (*schedule.Player, error) {
	hooks := schedule.Hooks{
		SetDim: eng.SetDim,
		FadeTo: func(name, preset string, d time.Duration) {
			if err := eng.FadeTo(name, preset, reg, d); err != nil {
				log.Warn().Err(err).Str("renderer", name).Str("preset", preset).Msg("scheduled look")
				return
			}
			log.Info().Str("renderer", name).Str("preset", preset).Dur("fade", d).Msg("scheduled look")
		},
	}
	return schedule.NewPlayer(plan, hooks)
}
