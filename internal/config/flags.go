package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagEnv         = flag.String("env", "", "Environment to fly (space, moon, city, mountain)")
	flagTicks       = flag.Int("ticks", -1, "Stop after this many ticks (0 = until exit)")
	flagFPS         = flag.Int("fps", -1, "Tick rate in frames per second (0 = unthrottled)")
	flagRecord      = flag.String("record", "", "Record input to this file")
	flagReplay      = flag.String("replay", "", "Replay input from this file")
	flagLogFile     = flag.String("log-file", "", "Write logs to this file as well")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagEnv != "" {
		cfg.Simulation.Environment = *flagEnv
	}
	if *flagTicks >= 0 {
		cfg.Simulation.MaxTicks = *flagTicks
	}
	if *flagFPS >= 0 {
		cfg.Simulation.TickRate = *flagFPS
	}
	if *flagRecord != "" {
		cfg.Replay.Record = *flagRecord
	}
	if *flagReplay != "" {
		cfg.Replay.Play = *flagReplay
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
