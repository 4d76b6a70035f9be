// Package main provides the bandit CLI: validate task configs, generate
// outcome schedules and simulate batches of sessions before participants play.
package main

import (
	"github.com/rs/zerolog/log"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
