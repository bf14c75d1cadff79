package training

import (
	"math"
)

// LRScheduler defines the interface for learning rate scheduling strategies
// Schedulers keep no state between calls, so LearningRate is a pure function
// of the step and may be called from any number of goroutines
type LRScheduler interface {
	// LearningRate returns the learning rate for the given training step
	LearningRate(step int) (float64, error)

	// Name returns the registered scheduler name used in serialized configs
	Name() string

	// Config returns the flat field-name to value mapping the scheduler
	// was built from
	Config() map[string]any
}

const (
	WarmupCosineName      = "WarmupCosine"
	StepLRName            = "StepLR"
	ExponentialLRName     = "ExponentialLR"
	CosineAnnealingLRName = "CosineAnnealingLR"
	ConstantName          = "ConstantLR"
)

// Configuration keys shared by Config and WarmupCosineFromConfig
const (
	KeyLearningRateBase   = "learning_rate_base"
	KeyTotalSteps         = "total_steps"
	KeyWarmupLearningRate = "warmup_learning_rate"
	KeyWarmupSteps        = "warmup_steps"
	KeyLearningRate       = "learning_rate"
	KeyStepSize           = "step_size"
	KeyGamma              = "gamma"
	KeyTMax               = "t_max"
	KeyEtaMin             = "eta_min"
)

// WarmupCosineScheduler ramps the learning rate linearly from
// WarmupLearningRate to LearningRateBase over WarmupSteps, then follows a
// half cosine from LearningRateBase down to zero at TotalSteps. Steps past
// TotalSteps get a rate of 0.
//
// The configuration is not validated at construction; LearningRate checks
// it on every call so intermediate configurations can be built freely.
// Call Validate to fail fast.
type WarmupCosineScheduler struct {
	LearningRateBase   float64 `json:"learning_rate_base" yaml:"learning_rate_base"`
	TotalSteps         int     `json:"total_steps" yaml:"total_steps"`
	WarmupLearningRate float64 `json:"warmup_learning_rate" yaml:"warmup_learning_rate"`
	WarmupSteps        int     `json:"warmup_steps" yaml:"warmup_steps"`
}

// NewWarmupCosineScheduler creates a warmup + cosine decay scheduler.
// Values are stored as given.
func NewWarmupCosineScheduler(learningRateBase float64, totalSteps int, warmupLearningRate float64, warmupSteps int) *WarmupCosineScheduler {
	return &WarmupCosineScheduler{
		LearningRateBase:   learningRateBase,
		TotalSteps:         totalSteps,
		WarmupLearningRate: warmupLearningRate,
		WarmupSteps:        warmupSteps,
	}
}

// Validate checks total_steps >= warmup_steps and, with warmup,
// learning_rate_base >= warmup_learning_rate. It does not reject
// total_steps == warmup_steps: warmup steps are still valid there, only the
// step at total_steps fails with ErrDegenerateDecay.
func (s *WarmupCosineScheduler) Validate() error {
	if s.TotalSteps < s.WarmupSteps {
		return configError(KeyTotalSteps, "total_steps must be >= warmup_steps")
	}
	if s.WarmupSteps > 0 && s.LearningRateBase < s.WarmupLearningRate {
		return configError(KeyLearningRateBase, "learning_rate_base must be >= warmup_learning_rate")
	}
	return nil
}

// LearningRate returns the learning rate for step.
//
// Negative steps are not rejected; they extrapolate the warmup line, or the
// cosine when there is no warmup.
func (s *WarmupCosineScheduler) LearningRate(step int) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	if step > s.TotalSteps {
		return 0.0, nil
	}

	if s.WarmupSteps > 0 && step < s.WarmupSteps {
		slope := (s.LearningRateBase - s.WarmupLearningRate) / float64(s.WarmupSteps)
		return slope*float64(step) + s.WarmupLearningRate, nil
	}

	// cos is undefined over an empty decay window
	decaySteps := s.TotalSteps - s.WarmupSteps
	if decaySteps == 0 {
		return 0, &ConfigurationError{
			Field:   KeyTotalSteps,
			Details: "total_steps equals warmup_steps, cosine decay is undefined",
			Err:     ErrDegenerateDecay,
		}
	}

	progress := float64(step-s.WarmupSteps) / float64(decaySteps)
	return 0.5 * s.LearningRateBase * (1 + math.Cos(math.Pi*progress)), nil
}

func (s *WarmupCosineScheduler) Name() string {
	return WarmupCosineName
}

// Config returns the four configuration values keyed by their field names.
func (s *WarmupCosineScheduler) Config() map[string]any {
	return map[string]any{
		KeyLearningRateBase:   s.LearningRateBase,
		KeyTotalSteps:         s.TotalSteps,
		KeyWarmupLearningRate: s.WarmupLearningRate,
		KeyWarmupSteps:        s.WarmupSteps,
	}
}

// WarmupCosineFromConfig rebuilds a scheduler from a mapping produced by
// Config, or decoded from JSON, YAML or a protobuf Struct.
func WarmupCosineFromConfig(config map[string]any) (*WarmupCosineScheduler, error) {
	base, err := floatField(config, KeyLearningRateBase)
	if err != nil {
		return nil, err
	}
	total, err := intField(config, KeyTotalSteps)
	if err != nil {
		return nil, err
	}
	warmupLR, err := floatField(config, KeyWarmupLearningRate)
	if err != nil {
		return nil, err
	}
	warmup, err := intField(config, KeyWarmupSteps)
	if err != nil {
		return nil, err
	}
	return NewWarmupCosineScheduler(base, total, warmupLR, warmup), nil
}

// StepLRScheduler reduces learning rate by a factor every StepSize steps
type StepLRScheduler struct {
	BaseLR   float64 // Initial learning rate
	StepSize int     // Steps between LR reductions
	Gamma    float64 // Multiplicative factor of LR decay
}

// NewStepLRScheduler creates a step learning rate scheduler
func NewStepLRScheduler(baseLR float64, stepSize int, gamma float64) *StepLRScheduler {
	if stepSize <= 0 {
		stepSize = 30 // Default: reduce every 30 steps
	}
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.1 // Default: reduce by 10x
	}
	return &StepLRScheduler{
		BaseLR:   baseLR,
		StepSize: stepSize,
		Gamma:    gamma,
	}
}

func (s *StepLRScheduler) LearningRate(step int) (float64, error) {
	// Calculate how many times to apply gamma
	times := step / s.StepSize
	return s.BaseLR * math.Pow(s.Gamma, float64(times)), nil
}

func (s *StepLRScheduler) Name() string {
	return StepLRName
}

func (s *StepLRScheduler) Config() map[string]any {
	return map[string]any{
		KeyLearningRate: s.BaseLR,
		KeyStepSize:     s.StepSize,
		KeyGamma:        s.Gamma,
	}
}

// StepLRFromConfig rebuilds a StepLRScheduler; out-of-range values fall back
// to the constructor defaults
func StepLRFromConfig(config map[string]any) (*StepLRScheduler, error) {
	base, err := floatField(config, KeyLearningRate)
	if err != nil {
		return nil, err
	}
	stepSize, err := intField(config, KeyStepSize)
	if err != nil {
		return nil, err
	}
	gamma, err := floatField(config, KeyGamma)
	if err != nil {
		return nil, err
	}
	return NewStepLRScheduler(base, stepSize, gamma), nil
}

// ExponentialLRScheduler decays learning rate exponentially
type ExponentialLRScheduler struct {
	BaseLR float64 // Initial learning rate
	Gamma  float64 // Multiplicative factor of LR decay per step
}

// NewExponentialLRScheduler creates an exponential learning rate scheduler
func NewExponentialLRScheduler(baseLR float64, gamma float64) *ExponentialLRScheduler {
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.95 // Default: 5% reduction per step
	}
	return &ExponentialLRScheduler{
		BaseLR: baseLR,
		Gamma:  gamma,
	}
}

func (s *ExponentialLRScheduler) LearningRate(step int) (float64, error) {
	return s.BaseLR * math.Pow(s.Gamma, float64(step)), nil
}

func (s *ExponentialLRScheduler) Name() string {
	return ExponentialLRName
}

func (s *ExponentialLRScheduler) Config() map[string]any {
	return map[string]any{
		KeyLearningRate: s.BaseLR,
		KeyGamma:        s.Gamma,
	}
}

// ExponentialLRFromConfig rebuilds an ExponentialLRScheduler
func ExponentialLRFromConfig(config map[string]any) (*ExponentialLRScheduler, error) {
	base, err := floatField(config, KeyLearningRate)
	if err != nil {
		return nil, err
	}
	gamma, err := floatField(config, KeyGamma)
	if err != nil {
		return nil, err
	}
	return NewExponentialLRScheduler(base, gamma), nil
}

// CosineAnnealingLRScheduler implements cosine annealing without warmup
type CosineAnnealingLRScheduler struct {
	BaseLR float64 // Initial learning rate
	TMax   int     // Number of steps to anneal over
	EtaMin float64 // Minimum learning rate
}

// NewCosineAnnealingLRScheduler creates a cosine annealing scheduler
func NewCosineAnnealingLRScheduler(baseLR float64, tMax int, etaMin float64) *CosineAnnealingLRScheduler {
	if tMax <= 0 {
		tMax = 100 // Default: 100 steps
	}
	if etaMin < 0 {
		etaMin = 0 // Default: anneal to 0
	}
	return &CosineAnnealingLRScheduler{
		BaseLR: baseLR,
		TMax:   tMax,
		EtaMin: etaMin,
	}
}

func (s *CosineAnnealingLRScheduler) LearningRate(step int) (float64, error) {
	if step >= s.TMax {
		return s.EtaMin, nil
	}

	// Cosine annealing formula
	return s.EtaMin + (s.BaseLR-s.EtaMin)*(1+math.Cos(math.Pi*float64(step)/float64(s.TMax)))/2, nil
}

func (s *CosineAnnealingLRScheduler) Name() string {
	return CosineAnnealingLRName
}

func (s *CosineAnnealingLRScheduler) Config() map[string]any {
	return map[string]any{
		KeyLearningRate: s.BaseLR,
		KeyTMax:         s.TMax,
		KeyEtaMin:       s.EtaMin,
	}
}

// CosineAnnealingLRFromConfig rebuilds a CosineAnnealingLRScheduler
func CosineAnnealingLRFromConfig(config map[string]any) (*CosineAnnealingLRScheduler, error) {
	base, err := floatField(config, KeyLearningRate)
	if err != nil {
		return nil, err
	}
	tMax, err := intField(config, KeyTMax)
	if err != nil {
		return nil, err
	}
	etaMin, err := floatField(config, KeyEtaMin)
	if err != nil {
		return nil, err
	}
	return NewCosineAnnealingLRScheduler(base, tMax, etaMin), nil
}

// ConstantScheduler maintains a constant learning rate
type ConstantScheduler struct {
	Rate float64
}

// NewConstantScheduler creates a scheduler that always returns rate
func NewConstantScheduler(rate float64) *ConstantScheduler {
	return &ConstantScheduler{Rate: rate}
}

func (s *ConstantScheduler) LearningRate(step int) (float64, error) {
	return s.Rate, nil
}

func (s *ConstantScheduler) Name() string {
	return ConstantName
}

func (s *ConstantScheduler) Config() map[string]any {
	return map[string]any{KeyLearningRate: s.Rate}
}

// ConstantFromConfig rebuilds a ConstantScheduler from its Config mapping
func ConstantFromConfig(config map[string]any) (*ConstantScheduler, error) {
	rate, err := floatField(config, KeyLearningRate)
	if err != nil {
		return nil, err
	}
	return NewConstantScheduler(rate), nil
}
