package model

import "math"

const (
	DefaultNodeBudget        = 2_000_000
	DefaultImprovementRounds = 4
	DefaultLoadPenaltyWeight = 1.0
)

type Config struct {
	NodeBudget         int     `json:"nodeBudget" mapstructure:"nodeBudget"` // Maximum committed search nodes before the best partial assignment is returned
	PreferPairedLabs   bool    `json:"preferPairedLabs" mapstructure:"preferPairedLabs"`
	LoadPenaltyWeight  float64 `json:"loadPenaltyWeight" mapstructure:"loadPenaltyWeight"`
	SchedulesSelfStudy bool    `json:"schedulesSelfStudy" mapstructure:"schedulesSelfStudy"`
	PracticalBlock     int     `json:"practicalBlock" mapstructure:"practicalBlock"`
	ImprovementRounds  int     `json:"improvementRounds" mapstructure:"improvementRounds"`
}

func DefaultConfig() Config {
	return Config{
		NodeBudget:        DefaultNodeBudget,
		LoadPenaltyWeight: DefaultLoadPenaltyWeight,
		PracticalBlock:    1,
		ImprovementRounds: DefaultImprovementRounds,
	}
}

// Fills zero-valued budget and block with their defaults and rejects out-of-range values
func (config Config) normalize() (Config, error) {
	if config.NodeBudget == 0 {
		config.NodeBudget = DefaultNodeBudget
	}
	if config.PracticalBlock == 0 {
		config.PracticalBlock = 1
	}

	switch {
	case config.NodeBudget < 0:
		return Config{}, invalid(ErrInvalidConfig, "", "nodeBudget must be positive: %d", config.NodeBudget)
	case config.PracticalBlock < 0:
		return Config{}, invalid(ErrInvalidConfig, "", "practicalBlock must be positive: %d", config.PracticalBlock)
	case config.ImprovementRounds < 0:
		return Config{}, invalid(ErrInvalidConfig, "", "improvementRounds must not be negative: %d", config.ImprovementRounds)
	case config.LoadPenaltyWeight < 0 || math.IsNaN(config.LoadPenaltyWeight) || math.IsInf(config.LoadPenaltyWeight, 0):
		return Config{}, invalid(ErrInvalidConfig, "", "loadPenaltyWeight must be a finite non-negative number: %v", config.LoadPenaltyWeight)
	}
	return config, nil
}

func (config Config) derivation() DerivationOptions {
	return DerivationOptions{
		SchedulesSelfStudy: config.SchedulesSelfStudy,
		PracticalBlock:     config.PracticalBlock,
	}
}
