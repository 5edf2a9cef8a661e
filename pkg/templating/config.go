package templating

// TemplateConfig holds the safety limits of the expansion engine.
type TemplateConfig struct {
	// MaxPasses is the number of alternation groups a single template level may
	// resolve before the expansion is rejected as malformed.
	MaxPasses int `json:"max_passes" yaml:"max_passes" toml:"max_passes"`

	// MaxDepth bounds nested groups and recursive key references.
	// Cyclic store content fails once this depth is reached.
	MaxDepth int `json:"max_depth" yaml:"max_depth" toml:"max_depth"`

	// MaxCombinations caps the number of results Spread will materialize.
	MaxCombinations int `json:"max_combinations" yaml:"max_combinations" toml:"max_combinations"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		MaxPasses:       256,
		MaxDepth:        32,
		MaxCombinations: 10_000,
	}
}

// normalized fills zero or negative limits with their defaults.
func (c TemplateConfig) normalized() TemplateConfig {
	d := DefaultConfig()
	if c.MaxPasses <= 0 {
		c.MaxPasses = d.MaxPasses
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxCombinations <= 0 {
		c.MaxCombinations = d.MaxCombinations
	}
	return c
}
