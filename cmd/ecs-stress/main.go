package main

import (
	"context"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/plus3/krill/ecs"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := LoadConfig()
	duration := time.Duration(cfg.Seconds) * time.Second

	log.Info().Int("entities", cfg.Entities).Dur("duration", duration).Msg("starting ECS stress test")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	world := ecs.NewWorld(ecs.WithLogger(log.Level(zerolog.WarnLevel)))
	ecs.SetSingleton(world, SimClock{})
	scheduler := ecs.NewScheduler(world)
	registerSystems(scheduler, rng)

	log.Info().Msg("populating world")
	populate(world, cfg.Entities, rng)

	if cfg.DumpGraph {
		graph, err := scheduler.Graph("update")
		if err != nil {
			log.Fatal().Err(err).Msg("graph export failed")
		}
		if err := graph.WriteDOT(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("graph export failed")
		}
	}

	report := &Report{
		Duration:       duration,
		Entities:       cfg.Entities,
		GCPauseMetrics: cfg.GCMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	log.Info().Msg("running simulation")
	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			tickStart := time.Now()
			if err := scheduler.Execute("update", deltaTime.Seconds()); err != nil {
				log.Fatal().Err(err).Msg("tick failed")
			}
			report.TickTime.Samples = append(report.TickTime.Samples, time.Since(tickStart))
			report.TotalTicks++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TickTime.Finalize()
	report.FinalEntities = world.EntityCount()
	report.Stats = scheduler.Stats("update")
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info().Int64("ticks", report.TotalTicks).Msg("simulation finished")

	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("failed to generate report")
	}
}
