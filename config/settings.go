// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultArkBaseURL is the Volcengine Ark endpoint used when DOUBAO_BASE_URL is unset.
const DefaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// Settings holds all application configuration.
type Settings struct {
	Vision VisionConfig
	Agent  AgentConfig
	Batch  BatchConfig
	Thread ThreadConfig
}

// VisionConfig holds configuration for the vision model that extracts
// questions from images. It targets an OpenAI-compatible endpoint
// (Doubao on Volcengine Ark by default).
type VisionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// AgentConfig holds configuration for the LLM driving the agent loop.
type AgentConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float64
	MaxIterations int
}

// BatchConfig holds batch processing defaults. CLI flags override these.
type BatchConfig struct {
	OutputPath string
	BatchSize  int
	Recursive  bool
}

// ThreadConfig holds context eviction configuration for the agent thread.
type ThreadConfig struct {
	// KeepRecent bounds how many invocation pairs of each tool survive
	// in the thread before a reasoning step.
	KeepRecent int
	// CleanupRules maps a trigger tool to the tools whose earlier
	// invocations are evicted after the trigger completes.
	CleanupRules map[string][]string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"doubao": "openai",
	"ark":    "openai",
}

// defaultCleanupRules evicts old analysis output once a status check
// confirms it has been persisted to the ledger.
func defaultCleanupRules() map[string][]string {
	return map[string][]string{
		"batch_status": {"analyze_images"},
	}
}

// New loads settings from environment variables.
// Returns an error if any variable contains an invalid value.
func New() (Settings, error) {
	vision, err := loadVisionConfig()
	if err != nil {
		return Settings{}, err
	}

	agent, err := loadAgentConfig(vision)
	if err != nil {
		return Settings{}, err
	}

	batchSize, err := getEnvInt("BATCH_SIZE", 5)
	if err != nil {
		return Settings{}, err
	}

	keepRecent, err := getEnvInt("THREAD_KEEP_RECENT", 3)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Vision: vision,
		Agent:  agent,
		Batch: BatchConfig{
			OutputPath: getEnvDefault("OUTPUT_PATH", "output/questions.json"),
			BatchSize:  batchSize,
			Recursive:  false,
		},
		Thread: ThreadConfig{
			KeepRecent:   keepRecent,
			CleanupRules: defaultCleanupRules(),
		},
	}, nil
}

func loadVisionConfig() (VisionConfig, error) {
	maxTokens, err := getEnvUint32("DOUBAO_MAX_TOKENS", 4096)
	if err != nil {
		return VisionConfig{}, err
	}

	temperature, err := getEnvFloat64("DOUBAO_TEMPERATURE", 0.1)
	if err != nil {
		return VisionConfig{}, err
	}

	return VisionConfig{
		APIKey:      os.Getenv("DOUBAO_API_KEY"),
		BaseURL:     getEnvDefault("DOUBAO_BASE_URL", DefaultArkBaseURL),
		Model:       getEnvDefault("DOUBAO_MODEL", "doubao-seed-1-6-251015"),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

func loadAgentConfig(vision VisionConfig) (AgentConfig, error) {
	provider := normalizeProvider(getEnvDefault("AGENT_PROVIDER", "openai"))
	info, err := getProviderInfo(provider)
	if err != nil {
		return AgentConfig{}, err
	}

	temperature, err := getEnvFloat64("AGENT_TEMPERATURE", 0.0)
	if err != nil {
		return AgentConfig{}, err
	}

	maxIterations, err := getEnvInt("AGENT_MAX_ITERATIONS", 10)
	if err != nil {
		return AgentConfig{}, err
	}

	// The agent defaults to the same Ark endpoint and credentials as the
	// vision model, so a single DOUBAO_API_KEY configures both.
	apiKey := os.Getenv("AGENT_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(info.apiKeyEnv)
	}
	if apiKey == "" {
		apiKey = vision.APIKey
	}

	baseURL := os.Getenv("AGENT_BASE_URL")
	if baseURL == "" && provider == "openai" && os.Getenv(info.apiKeyEnv) == "" {
		baseURL = vision.BaseURL
	}

	model := os.Getenv("AGENT_MODEL")
	if model == "" {
		if baseURL == vision.BaseURL && baseURL != "" {
			model = "doubao-seed-1-6-lite-251015"
		} else {
			model = info.defaultModel
		}
	}

	return AgentConfig{
		Provider:      provider,
		APIKey:        apiKey,
		BaseURL:       baseURL,
		Model:         model,
		Temperature:   temperature,
		MaxIterations: maxIterations,
	}, nil
}

// MustNew loads settings from environment variables.
// Panics if any variable is invalid.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Validate checks that the settings are sufficient for extraction work.
func (s Settings) Validate() error {
	if s.Vision.APIKey == "" {
		return fmt.Errorf("DOUBAO_API_KEY environment variable not set")
	}
	if s.Agent.APIKey == "" {
		return fmt.Errorf("no API key configured for agent provider %q", s.Agent.Provider)
	}
	if s.Batch.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", s.Batch.BatchSize)
	}
	if s.Thread.KeepRecent < 1 {
		return fmt.Errorf("THREAD_KEEP_RECENT must be at least 1, got %d", s.Thread.KeepRecent)
	}
	return nil
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
