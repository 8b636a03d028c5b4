package config

import "fmt"

// AI operation names. They double as the config keys under "ai".
const (
	OpGenerate     = "generate"
	OpRescore      = "rescore"
	OpIntegrate    = "integrate"
	OpExtract      = "extract"
	OpParseProfile = "parseProfile"
)

// Operations lists every AI operation in a stable order
var Operations = []string{OpGenerate, OpRescore, OpIntegrate, OpExtract, OpParseProfile}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		useSystem := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystem
	}
}

// operationSection returns a pointer to the raw section of an operation
func (c *Config) operationSection(operation string) (*OperationAIConfig, error) {
	switch operation {
	case OpGenerate:
		return &c.AI.Generate, nil
	case OpRescore:
		return &c.AI.Rescore, nil
	case OpIntegrate:
		return &c.AI.Integrate, nil
	case OpExtract:
		return &c.AI.Extract, nil
	case OpParseProfile:
		return &c.AI.ParseProfile, nil
	default:
		return nil, fmt.Errorf("unknown AI operation: %s", operation)
	}
}

// GetOperationConfig returns the AI configuration for an operation with
// fallback to the global config. Unknown operations get the global values.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	var config OperationAIConfig
	if section, err := c.operationSection(operation); err == nil {
		config = *section
	}
	c.applyOperationDefaults(&config)
	return config
}

// GetGenerateConfig returns the AI configuration for analysis generation
func (c *Config) GetGenerateConfig() OperationAIConfig {
	return c.GetOperationConfig(OpGenerate)
}

// GetRescoreConfig returns the AI configuration for score reconciliation
func (c *Config) GetRescoreConfig() OperationAIConfig {
	return c.GetOperationConfig(OpRescore)
}

// GetIntegrateConfig returns the AI configuration for keyword integration
func (c *Config) GetIntegrateConfig() OperationAIConfig {
	return c.GetOperationConfig(OpIntegrate)
}

// GetExtractConfig returns the AI configuration for image text extraction
func (c *Config) GetExtractConfig() OperationAIConfig {
	return c.GetOperationConfig(OpExtract)
}

// GetParseProfileConfig returns the AI configuration for profile parsing
func (c *Config) GetParseProfileConfig() OperationAIConfig {
	return c.GetOperationConfig(OpParseProfile)
}
