package provider

import "sort"

// Provider describes a transcription and/or LLM service
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	IsLocal() bool
	Models() []Model
	DefaultModel(t ModelType) string
}

// ProviderConfig holds configuration for a single provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

var registry = make(map[string]Provider)

func init() {
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
	Register(&WhisperCppProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelsOfType filters a provider's models by type
func ModelsOfType(p Provider, t ModelType) []Model {
	var out []Model
	for _, m := range p.Models() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindModel looks up a model by ID within a provider
func FindModel(p Provider, id string) *Model {
	for _, m := range p.Models() {
		if m.ID == id {
			return &m
		}
	}
	return nil
}
