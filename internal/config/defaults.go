package config

// Default returns a Config with the four stock environments.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Environment: "mountain",
			TickRate:    60,
			MaxTicks:    0,
		},
		Environments: map[string]Environment{
			"space":    SpaceEnvironment(),
			"moon":     MoonEnvironment(),
			"city":     CityEnvironment(),
			"mountain": MountainEnvironment(),
		},
		Streaming: StreamingConfig{
			CacheTiles:  49,
			Radius:      2,
			Workers:     4,
			Resolution:  16,
			EveryNTicks: 30,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// defaultCamera is shared by the terrain environments; space widens the tables.
func defaultCamera() Camera {
	return Camera{
		ThirdPerson: OffsetTable{
			Base:       [3]float64{0, 3, -12},
			Boost:      [3]float64{0, 4, -18},
			Slow:       [3]float64{0, 2.5, -9},
			Hyperspace: [3]float64{0, 5, -26},
			Collision:  [3]float64{0, 9, -30},
		},
		Cockpit: OffsetTable{
			Base:       [3]float64{0, 0.6, 1.2},
			Boost:      [3]float64{0, 0.6, 0.9},
			Slow:       [3]float64{0, 0.6, 1.3},
			Hyperspace: [3]float64{0, 0.6, 0.7},
			Collision:  [3]float64{0, 1.5, -2},
		},
		OffsetSmoothing: 0.05,
		LagSmoothing:    0.1,
		LocalSmoothing:  0.08,
		FOVSmoothing:    0.04,
		FollowSmoothing: 0.2,
		PitchLag:        0.12,
		YawLag:          0.12,
		LocalPitchLag:   0.04,
		LocalYawLag:     0.05,
	}
}

func defaultWings() Wings {
	return Wings{
		TransitionFrames: 30,
		Open:             [4]float64{0.35, -0.35, 0.35, -0.35},
		Closed:           [4]float64{0, 0, 0, 0},
	}
}

func defaultSensitivity() Sensitivity {
	return Sensitivity{Pitch: 1, Yaw: 1, Roll: 1}
}

// SpaceEnvironment is open space: no terrain, hyperspace allowed.
func SpaceEnvironment() Environment {
	cam := defaultCamera()
	cam.ThirdPerson.Hyperspace = [3]float64{0, 6, -40}
	return Environment{
		Name:            "space",
		LaunchPosition:  [3]float64{0, 0, 0},
		AllowHyperspace: true,
		Speeds: SpeedTable{
			Base:       ModeParams{Speed: 2, TurnRate: 0.02, ProbeRadius: 6, FOV: 75},
			Boost:      ModeParams{Speed: 8, TurnRate: 0.012, ProbeRadius: 12, FOV: 90},
			Slow:       ModeParams{Speed: 0.5, TurnRate: 0.03, ProbeRadius: 5, FOV: 65},
			Hyperspace: ModeParams{Speed: 60, TurnRate: 0.004, ProbeRadius: 12, FOV: 110},
		},
		RollRate:      0.03,
		Sensitivity:   defaultSensitivity(),
		Camera:        cam,
		Terrain:       Terrain{Generator: "none"},
		Wings:         defaultWings(),
		WarningFrames: 120,
	}
}

// MoonEnvironment is a cratered surface with low-altitude hover assist.
func MoonEnvironment() Environment {
	return Environment{
		Name:           "moon",
		LaunchPosition: [3]float64{0, 120, 0},
		Speeds: SpeedTable{
			Base:       ModeParams{Speed: 1.5, TurnRate: 0.02, ProbeRadius: 6, FOV: 75},
			Boost:      ModeParams{Speed: 6, TurnRate: 0.012, ProbeRadius: 12, FOV: 90},
			Slow:       ModeParams{Speed: 0.4, TurnRate: 0.03, ProbeRadius: 5, FOV: 65},
			Hyperspace: ModeParams{Speed: 6, TurnRate: 0.012, ProbeRadius: 12, FOV: 90},
		},
		RollRate:    0.03,
		Sensitivity: defaultSensitivity(),
		Camera:      defaultCamera(),
		Terrain: Terrain{
			Collision:       true,
			HoverAssist:     true,
			Generator:       "craters",
			TileSize:        400,
			BaseHeight:      0,
			Amplitude:       25,
			Wavelength:      160,
			HoverHeight:     30,
			HoverCeiling:    2,
			HoverLift:       0.1,
			HoverSink:       0.02,
			ProbeDistance:   200,
			MaxSlopeDeg:     45,
			SlopeBlend:      0.3,
			PushFactor:      1.2,
			BoostPushFactor: 2,
			Respawn:         true,
			ResetAltitude:   2000,
		},
		Wings:         defaultWings(),
		WarningFrames: 120,
	}
}

// CityEnvironment is the urban tile-set: block-shaped terrain, steep walls.
func CityEnvironment() Environment {
	return Environment{
		Name:           "city",
		LaunchPosition: [3]float64{0, 250, 0},
		Speeds: SpeedTable{
			Base:       ModeParams{Speed: 1, TurnRate: 0.025, ProbeRadius: 5, FOV: 75},
			Boost:      ModeParams{Speed: 4, TurnRate: 0.015, ProbeRadius: 10, FOV: 90},
			Slow:       ModeParams{Speed: 0.3, TurnRate: 0.035, ProbeRadius: 4, FOV: 65},
			Hyperspace: ModeParams{Speed: 4, TurnRate: 0.015, ProbeRadius: 10, FOV: 90},
		},
		RollRate:    0.03,
		Sensitivity: defaultSensitivity(),
		Camera:      defaultCamera(),
		Terrain: Terrain{
			Collision:       true,
			HoverAssist:     true,
			Generator:       "blocks",
			TileSize:        300,
			BaseHeight:      0,
			Amplitude:       120,
			Wavelength:      60,
			HoverHeight:     40,
			HoverCeiling:    1.5,
			HoverLift:       0.08,
			HoverSink:       0.02,
			ProbeDistance:   250,
			MaxSlopeDeg:     50,
			SlopeBlend:      0.25,
			PushFactor:      1.5,
			BoostPushFactor: 2.5,
			Respawn:         true,
			ResetAltitude:   1500,
		},
		Wings:         defaultWings(),
		WarningFrames: 120,
	}
}

// MountainEnvironment is the mountain tile-set: rolling ridges.
func MountainEnvironment() Environment {
	return Environment{
		Name:           "mountain",
		LaunchPosition: [3]float64{0, 600, 0},
		LaunchHeading:  0,
		Speeds: SpeedTable{
			Base:       ModeParams{Speed: 1.5, TurnRate: 0.02, ProbeRadius: 6, FOV: 75},
			Boost:      ModeParams{Speed: 6, TurnRate: 0.012, ProbeRadius: 12, FOV: 90},
			Slow:       ModeParams{Speed: 0.4, TurnRate: 0.03, ProbeRadius: 5, FOV: 65},
			Hyperspace: ModeParams{Speed: 6, TurnRate: 0.012, ProbeRadius: 12, FOV: 90},
		},
		RollRate:    0.03,
		Sensitivity: defaultSensitivity(),
		Camera:      defaultCamera(),
		Terrain: Terrain{
			Collision:       true,
			HoverAssist:     true,
			Generator:       "rolling",
			TileSize:        500,
			BaseHeight:      100,
			Amplitude:       220,
			Wavelength:      900,
			HoverHeight:     60,
			HoverCeiling:    1.75,
			HoverLift:       0.1,
			HoverSink:       0.015,
			ProbeDistance:   400,
			MaxSlopeDeg:     40,
			SlopeBlend:      0.3,
			PushFactor:      1.2,
			BoostPushFactor: 2,
			Respawn:         true,
			ResetAltitude:   3000,
		},
		Wings:         defaultWings(),
		WarningFrames: 120,
	}
}
