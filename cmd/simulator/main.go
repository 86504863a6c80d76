// Command simulator feeds random power readings into the raw sensors of
// every configured person, for exercising the engine against a dev
// Home Assistant instance.
package main

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/config"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/store"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	ep := config.ResolveEndpoint()
	client := hass.New(ep.URL, ep.Token, config.HTTPTimeout())
	people, err := store.NewConfigStore(config.PeoplePath(), config.GroupsPath()).People()
	if err != nil {
		log.Fatal().Err(err).Msg("people load failed")
	}

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		for _, p := range people {
			for _, id := range p.Sensors {
				if !strings.HasPrefix(id, "sensor.") {
					continue
				}
				// around the threshold so statuses flip now and then
				w := p.ThresholdWatts() * (0.5 + rand.Float64())
				attrs := hass.Attributes{
					"unit_of_measurement": "W",
					"device_class":        "power",
					"friendly_name":       "Simulated " + id,
				}
				if err := client.SetState(ctx, id, strconv.FormatFloat(w, 'f', 1, 64), attrs); err != nil {
					log.Error().Err(err).Str("sensor", id).Msg("write failed")
				}
			}
		}
		time.Sleep(5 * time.Second)
	}
	log.Info().Msg("simulation done")
}
