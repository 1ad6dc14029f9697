package config

import "ramanid/internal/pipeline"

const (
	defaultConfigPath       = "~/.config/ramanid/config.toml"
	defaultDatabasePath     = "~/.local/share/ramanid/minerals.db"
	defaultLogDir           = "~/.local/share/ramanid/logs"
	defaultOutputDir        = "~/ramanid"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultDiscreteStep     = 50
	defaultTolerance        = 2
	defaultMatchTimeout     = 120
	maxCombination          = 3

	// DatabaseEnv overrides paths.database_path when the file leaves it empty.
	DatabaseEnv = "RAMANID_DATABASE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	als := pipeline.DefaultALSOptions()
	smooth := pipeline.DefaultSmoothOptions()
	return Config{
		Paths: Paths{
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
			OutputDir:    defaultOutputDir,
		},
		Baseline: Baseline{
			Lambda:       als.Lambda,
			P:            als.P,
			Iterations:   als.Iterations,
			DiscreteStep: defaultDiscreteStep,
		},
		Smoothing: Smoothing{
			WindowLength: smooth.WindowLength,
			PolyOrder:    smooth.PolyOrder,
		},
		Fit: Fit{
			MaxEvaluations: pipeline.DefaultFitOptions().MaxEvaluations,
		},
		Matching: Matching{
			Tolerance:      defaultTolerance,
			TimeoutSeconds: defaultMatchTimeout,
			MaxCombination: maxCombination,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
