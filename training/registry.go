package training

import (
	"fmt"
	"sort"
	"sync"
)

// SchedulerFactory rebuilds a scheduler from its Config mapping
type SchedulerFactory func(config map[string]any) (LRScheduler, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]SchedulerFactory{
		WarmupCosineName: func(config map[string]any) (LRScheduler, error) {
			return WarmupCosineFromConfig(config)
		},
		StepLRName: func(config map[string]any) (LRScheduler, error) {
			return StepLRFromConfig(config)
		},
		ExponentialLRName: func(config map[string]any) (LRScheduler, error) {
			return ExponentialLRFromConfig(config)
		},
		CosineAnnealingLRName: func(config map[string]any) (LRScheduler, error) {
			return CosineAnnealingLRFromConfig(config)
		},
		ConstantName: func(config map[string]any) (LRScheduler, error) {
			return ConstantFromConfig(config)
		},
	}
)

// RegisterScheduler makes a scheduler type available to Deserialize.
// Registering an existing name replaces its factory.
func RegisterScheduler(name string, factory SchedulerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// RegisteredSchedulers returns the registered names in sorted order
func RegisteredSchedulers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serialize captures a scheduler's name and configuration
func Serialize(s LRScheduler) SchedulerConfig {
	return SchedulerConfig{
		ClassName: s.Name(),
		Config:    s.Config(),
	}
}

// Deserialize reconstructs a scheduler from its serialized form
func Deserialize(cfg SchedulerConfig) (LRScheduler, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.ClassName]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheduler, cfg.ClassName)
	}

	s, err := factory(cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s scheduler: %w", cfg.ClassName, err)
	}
	return s, nil
}
