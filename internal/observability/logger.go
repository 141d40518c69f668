package observability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Step returns a logger scoped to one provisioning or launch step and a done
// func that logs its elapsed time.
func Step(component, id string) (zerolog.Logger, func(outcome string)) {
	logger := log.With().Str("component", component).Str("resource", id).Logger()
	start := time.Now()
	return logger, func(outcome string) {
		logger.Info().
			Str("outcome", outcome).
			Dur("duration", time.Since(start)).
			Msg("step finished")
	}
}
