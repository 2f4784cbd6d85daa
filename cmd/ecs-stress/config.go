package main

import "github.com/JeremyLoy/config"

// Config is populated from the environment, e.g.
// STRESS_ENTITIES=50000 STRESS_SECONDS=30 ecs-stress
type Config struct {
	Entities  int  `config:"STRESS_ENTITIES"`
	Seconds   int  `config:"STRESS_SECONDS"`
	DumpGraph bool `config:"STRESS_DUMP_GRAPH"`
	GCMetrics bool `config:"STRESS_GC_METRICS"`
}

func LoadConfig() Config {
	cfg := Config{
		Entities: 10000,
		Seconds:  10,
	}
	if err := config.FromEnv().To(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
