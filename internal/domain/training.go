package domain

// TrainingFrequency is how often a model should be retrained.
type TrainingFrequency int

const (
	TrainNever TrainingFrequency = iota
	TrainWeekly
	TrainMonthly
	TrainYearly
)

// TrainingConfig describes one model training run for the training collaborator.
type TrainingConfig struct {
	CustomerID                    string            `yaml:"customer_id"`
	TargetMeasurementID           string            `yaml:"target_measurement_id"`
	FeatureMeasurementIDs         []string          `yaml:"feature_measurement_ids"`
	DeviationProbabilityThreshold float64           `yaml:"deviation_probability_threshold"`
	Frequency                     TrainingFrequency `yaml:"frequency"`
	SampleIntervalMinutes         int               `yaml:"sample_interval_minutes"`
	ModelVersion                  int               `yaml:"model_version"`
	Enabled                       bool              `yaml:"enabled"`
}

// TrainingResult is the typed outcome of a training run; collaborator failures
// surface here rather than as errors.
type TrainingResult struct {
	Success bool
	Message string
}
