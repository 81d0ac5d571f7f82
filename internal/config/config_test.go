package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Confluence: ConfluenceConfig{
			BaseURL:  "https://acme.atlassian.net",
			Username: "bot@acme.com",
			APIToken: "token",
		},
		LLM:    LLMConfig{APIKey: "sk-test"},
		Search: SearchConfig{DefaultLimit: 5, MaxLimit: 50},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"base_url", func(c *Config) { c.Confluence.BaseURL = "" }},
		{"username", func(c *Config) { c.Confluence.Username = "" }},
		{"api_token", func(c *Config) { c.Confluence.APIToken = "" }},
		{"llm_api_key", func(c *Config) { c.LLM.APIKey = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for missing %s", tc.name)
			}
		})
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `llm.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.LLM.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search = SearchConfig{DefaultLimit: 100, MaxLimit: 10}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_limit above max_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Confluence.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.Confluence.TimeoutSec)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxRounds != 8 {
		t.Errorf("expected MaxRounds=8, got %d", cfg.LLM.MaxRounds)
	}
	if cfg.Cache.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Cache.ReadinessTimeout)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.MaxLimit != 50 {
		t.Errorf("expected search limits 5/50, got %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 9090, ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Confluence: ConfluenceConfig{TimeoutSec: 15},
		LLM:        LLMConfig{Model: "gpt-4o", MaxRounds: 3},
		Search:     SearchConfig{DefaultLimit: 10, MaxLimit: 20},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Confluence.TimeoutSec != 15 {
		t.Errorf("expected TimeoutSec=15, got %d", cfg.Confluence.TimeoutSec)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("expected Model=gpt-4o, got %q", cfg.LLM.Model)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("expected DefaultLimit=10, got %d", cfg.Search.DefaultLimit)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("WIKIDEX_TEST_TOKEN", "secret-token")

	in := []byte("api_token: ${WIKIDEX_TEST_TOKEN}\nmodel: ${WIKIDEX_TEST_MODEL:-gpt-4o-mini}\n")
	out := string(expandEnvVars(in))

	if out != "api_token: secret-token\nmodel: gpt-4o-mini\n" {
		t.Errorf("expanded: %q", out)
	}
}
