package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConfigEnv blanks every configuration variable for the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_AD_APP_REGISTERATION_CLIENT_ID", "abc")
	t.Setenv("AZURE_AD_APP_REGISTRATION_SECRET", "secret")
	t.Setenv("AZURE_AD_APP_REGISTRATION_TENANT_ID", "tenant1")
}

func loadConfigArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	return loadConfig(cmd)
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)

	cfg, err := loadConfigArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.Equal(t, "tenant1", cfg.TenantID)
	assert.Equal(t, StrategyInteractive, cfg.Strategy)
	assert.Equal(t, defaultAuthorityHost, cfg.AuthorityHost)
	assert.Equal(t, defaultGraphBaseURL, cfg.GraphBaseURL)
	assert.Equal(t, 5000, cfg.CallbackPort)
	assert.Equal(t, 5*time.Minute, cfg.CallbackTimeout)
	assert.Equal(t, FormatDump, cfg.Format)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_Priority(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("CALLBACK_PORT", "6000")
	t.Setenv("GRAPH_AUTH_FLOW", "service")
	t.Setenv("USER_EMAIL_ADDRESS", "env@example.com")

	// Env wins over default when flag is empty.
	cfg, err := loadConfigArgs(t)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.CallbackPort)
	assert.Equal(t, StrategyService, cfg.Strategy)
	assert.Equal(t, "env@example.com", cfg.UserEmail)

	// Flag value wins over env.
	cfg, err = loadConfigArgs(t, "--port", "7000", "--user", "flag@example.com", "--flow", "interactive")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.CallbackPort)
	assert.Equal(t, StrategyInteractive, cfg.Strategy)
	assert.Equal(t, "flag@example.com", cfg.UserEmail)
}

func TestLoadConfig_DurationAndFormat(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("CALLBACK_TIMEOUT", "90s")

	cfg, err := loadConfigArgs(t, "-o", "table", "-v")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.CallbackTimeout)
	assert.Equal(t, FormatTable, cfg.Format)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Missing(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		args    []string
		wantMsg string
	}{
		{"client id", "AZURE_AD_APP_REGISTERATION_CLIENT_ID", nil, "AZURE_AD_APP_REGISTERATION_CLIENT_ID not set"},
		{"secret", "AZURE_AD_APP_REGISTRATION_SECRET", nil, "AZURE_AD_APP_REGISTRATION_SECRET not set"},
		{"tenant", "AZURE_AD_APP_REGISTRATION_TENANT_ID", nil, "AZURE_AD_APP_REGISTRATION_TENANT_ID not set"},
		{"user for service flow", "", []string{"--flow", "service"}, "USER_EMAIL_ADDRESS not set"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			setRequiredEnv(t)
			if tc.unset != "" {
				t.Setenv(tc.unset, "")
			}
			_, err := loadConfigArgs(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flow", []string{"--flow", "device"}},
		{"unknown format", []string{"--format", "xml"}},
		{"port out of range", []string{"--port", "70000"}},
		{"zero timeout", []string{"--callback-timeout", "0s"}},
		{"authority without scheme", []string{"--authority-host", "login.microsoftonline.com"}},
		{"graph with bad scheme", []string{"--graph-url", "ftp://graph.microsoft.com"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			setRequiredEnv(t)
			_, err := loadConfigArgs(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", false},
		{"valid https", "https://login.microsoftonline.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"bad scheme", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateBaseURL(tc.input)
			assert.Equal(t, tc.wantErr, err != nil, "validateBaseURL(%q) error = %v", tc.input, err)
		})
	}
}

func TestConfig_Warnings(t *testing.T) {
	cfg := &Config{
		ClientID:      "0a9bfd9c-9baf-41ec-a135-ac9dfe0a6d7a",
		TenantID:      "06b1722b-c9c0-4bfd-a011-0ce9ece4a630",
		AuthorityHost: defaultAuthorityHost,
		GraphBaseURL:  defaultGraphBaseURL,
	}
	assert.Empty(t, cfg.warnings())

	cfg.TenantID = "contoso.onmicrosoft.com"
	assert.Empty(t, cfg.warnings())

	cfg.ClientID = "abc"
	cfg.TenantID = "tenant1"
	cfg.AuthorityHost = "http://127.0.0.1:9000"
	assert.Len(t, cfg.warnings(), 3)

	cfg = &Config{
		ClientID:      "0a9bfd9c-9baf-41ec-a135-ac9dfe0a6d7a",
		TenantID:      "common",
		Strategy:      StrategyService,
		AuthorityHost: defaultAuthorityHost,
		GraphBaseURL:  defaultGraphBaseURL,
	}
	w := cfg.warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "specific tenant")
}

func TestConfig_Endpoints(t *testing.T) {
	cfg := &Config{
		TenantID:      "tenant1",
		AuthorityHost: defaultAuthorityHost,
		GraphBaseURL:  defaultGraphBaseURL,
		CallbackPort:  5000,
		Strategy:      StrategyService,
		UserEmail:     "u@example.com",
	}

	assert.Equal(t, "https://login.microsoftonline.com/tenant1", cfg.Authority())
	assert.Equal(t, "https://login.microsoftonline.com/tenant1/oauth2/v2.0/authorize", cfg.Endpoint().AuthURL)
	assert.Equal(t, "https://login.microsoftonline.com/tenant1/oauth2/v2.0/token", cfg.Endpoint().TokenURL)
	assert.Equal(t, "http://localhost:5000/oauthcallback", cfg.RedirectURI())

	u, err := cfg.ResourceURL()
	require.NoError(t, err)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/users/u@example.com/onenote/notebooks", u)
}
