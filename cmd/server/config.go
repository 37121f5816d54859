package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/fitstack/coach-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

type generatorConfig interface {
	generator(systemPrompt string, logger *slog.Logger) (chat.Generator, error)
}

// BaseGeneratorConfig contains the common fields for all generator
// configurations.
type BaseGeneratorConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port         string          `yaml:"port"`
	Model        string          `yaml:"model"`
	SystemPrompt string          `yaml:"systemPrompt"`
	Generator    generatorConfig `yaml:"generator"`
}

type cannedConfig struct {
	BaseGeneratorConfig `yaml:",inline"`
	ChunkSize           int `yaml:"chunkSize"`
	DelayMs             int `yaml:"delayMs"`
}

type ollamaConfig struct {
	BaseGeneratorConfig `yaml:",inline"`
	Host                string `yaml:"host"`
}

type openAIConfig struct {
	BaseGeneratorConfig `yaml:",inline"`
	APIKey              string                 `yaml:"apiKey"`
	Parameters          services.LLMParameters `yaml:"parameters"`
}

type openRouterConfig struct {
	BaseGeneratorConfig `yaml:",inline"`
	APIKey              string `yaml:"apiKey"`
}

type anthropicConfig struct {
	BaseGeneratorConfig `yaml:",inline"`
	APIKey              string `yaml:"apiKey"`
	MaxTokens           int    `yaml:"maxTokens"`
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port         string         `yaml:"port"`
		Model        string         `yaml:"model"`
		SystemPrompt string         `yaml:"systemPrompt"`
		Generator    map[string]any `yaml:"generator"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.Model = rawConfig.Model
	c.SystemPrompt = rawConfig.SystemPrompt

	// The canned generator is the default so the server runs out of the box
	if rawConfig.Generator == nil {
		c.Generator = &cannedConfig{}
		return nil
	}

	provider, ok := rawConfig.Generator["provider"].(string)
	if !ok {
		return fmt.Errorf("generator provider is required")
	}

	generatorRawYAML, err := yaml.Marshal(rawConfig.Generator)
	if err != nil {
		return err
	}

	var gen generatorConfig
	switch provider {
	case "canned":
		gen = &cannedConfig{}
	case "ollama":
		gen = &ollamaConfig{}
	case "openai":
		gen = &openAIConfig{}
	case "openrouter":
		gen = &openRouterConfig{}
	case "anthropic":
		gen = &anthropicConfig{}
	default:
		return fmt.Errorf("unknown generator provider: %s", provider)
	}

	if err := yaml.Unmarshal(generatorRawYAML, gen); err != nil {
		return err
	}

	c.Generator = gen

	return nil
}

func (c cannedConfig) generator(string, *slog.Logger) (chat.Generator, error) {
	return services.NewCanned(c.ChunkSize, time.Duration(c.DelayMs)*time.Millisecond), nil
}

func (o ollamaConfig) generator(systemPrompt string, _ *slog.Logger) (chat.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return services.NewOllama(host, o.Model, systemPrompt), nil
}

func (o openAIConfig) generator(systemPrompt string, logger *slog.Logger) (chat.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return services.NewOpenAI(apiKey, o.Model, systemPrompt, o.Parameters, logger), nil
}

func (o openRouterConfig) generator(systemPrompt string, logger *slog.Logger) (chat.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	return services.NewOpenRouter(apiKey, o.Model, systemPrompt, logger), nil
}

func (a anthropicConfig) generator(systemPrompt string, _ *slog.Logger) (chat.Generator, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if a.MaxTokens == 0 {
		return nil, fmt.Errorf("maxTokens is required")
	}

	apiKey := a.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return services.NewAnthropic(apiKey, a.Model, systemPrompt, a.MaxTokens), nil
}
