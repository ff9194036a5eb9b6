package main

import (
	"context"
	"os"
	"time"

	"github.com/beam-cloud/pngme/pkg/commands"
	"github.com/beam-cloud/pngme/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := commands.NewRootCmd().ExecuteContext(context.Background())
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		metrics.LogMetricsSummary()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("pngme failed")
	}
}
