package production

// GrammarWeight names one grammar/rule pair and its mixing weight.
type GrammarWeight struct {
	Grammar string  `yaml:"grammar"`
	Rule    string  `yaml:"rule"`
	Weight  float64 `yaml:"weight"`
}

// Config configures an Orchestrator, mirroring the teacher's
// production/config.go-shaped YAML config (decoded via
// gopkg.in/yaml.v3 by the CLI layer) with named presets, per
// pyrqg/production/configs.py.
type Config struct {
	Grammars []GrammarWeight `yaml:"grammars"`

	BatchSize         int   `yaml:"batch_size"`
	CheckpointEvery   int64 `yaml:"checkpoint_interval"`
	MonitorInterval   int64 `yaml:"monitor_interval"`
	DrainTimeoutMS    int   `yaml:"drain_timeout_ms"`

	AlertOnDuplicateRate float64 `yaml:"alert_on_duplicate_rate"`
	AlertOnErrorRate     float64 `yaml:"alert_on_error_rate"`
	AlertOnQPSDrop       float64 `yaml:"alert_on_qps_drop"`

	CheckpointPath string `yaml:"checkpoint_path"`
	MetricsPath    string `yaml:"metrics_path"`
}

// DefaultConfig returns spec.md §4.9's stated defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:            1000,
		CheckpointEvery:      1_000_000,
		MonitorInterval:      100_000,
		DrainTimeoutMS:       30_000,
		AlertOnDuplicateRate: 0.01,
		AlertOnErrorRate:     0.001,
		AlertOnQPSDrop:       0.5,
	}
}

// Preset names a built-in production config, per
// pyrqg/production/configs.py's named presets.
type Preset string

const (
	PresetQuick    Preset = "quick"
	PresetStandard Preset = "standard"
	PresetStress   Preset = "stress"
)

// Presets returns the built-in named configs. "quick" favors fast
// feedback (small batches, frequent checkpoints); "standard" matches
// DefaultConfig; "stress" widens batches and backs off monitoring
// frequency to maximize sustained throughput.
func Presets() map[Preset]Config {
	standard := DefaultConfig()

	quick := standard
	quick.BatchSize = 100
	quick.CheckpointEvery = 10_000
	quick.MonitorInterval = 1_000

	stress := standard
	stress.BatchSize = 5000
	stress.CheckpointEvery = 5_000_000
	stress.MonitorInterval = 500_000

	return map[Preset]Config{
		PresetQuick:    quick,
		PresetStandard: standard,
		PresetStress:   stress,
	}
}

// normalizeWeights returns weights normalized to sum 1.0; uniform if
// every weight is zero/omitted, per spec.md §4.9.
func normalizeWeights(gs []GrammarWeight) []float64 {
	weights := make([]float64, len(gs))
	var sum float64
	for i, g := range gs {
		weights[i] = g.Weight
		sum += g.Weight
	}
	if sum <= 0 {
		uniform := 1.0 / float64(len(gs))
		for i := range weights {
			weights[i] = uniform
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
