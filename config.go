package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const (
	defaultAuthorityHost = "https://login.microsoftonline.com"
	defaultGraphBaseURL  = "https://graph.microsoft.com/v1.0"
)

// Flag names double as viper keys.
const (
	keyClientID        = "client-id"
	keyClientSecret    = "client-secret"
	keyTenantID        = "tenant-id"
	keyUser            = "user"
	keyAuthorityHost   = "authority-host"
	keyGraphURL        = "graph-url"
	keyFlow            = "flow"
	keyPort            = "port"
	keyCallbackTimeout = "callback-timeout"
	keyFormat          = "format"
	keyVerbose         = "verbose"
)

// The client id key keeps the spelling used by existing .env files.
var envKeys = map[string]string{
	keyClientID:        "AZURE_AD_APP_REGISTERATION_CLIENT_ID",
	keyClientSecret:    "AZURE_AD_APP_REGISTRATION_SECRET",
	keyTenantID:        "AZURE_AD_APP_REGISTRATION_TENANT_ID",
	keyUser:            "USER_EMAIL_ADDRESS",
	keyAuthorityHost:   "AZURE_AD_AUTHORITY_HOST",
	keyGraphURL:        "GRAPH_BASE_URL",
	keyFlow:            "GRAPH_AUTH_FLOW",
	keyPort:            "CALLBACK_PORT",
	keyCallbackTimeout: "CALLBACK_TIMEOUT",
	keyFormat:          "OUTPUT_FORMAT",
	keyVerbose:         "VERBOSE",
}

// OutputFormat selects how the resource response is printed.
type OutputFormat string

const (
	FormatDump  OutputFormat = "dump"
	FormatTable OutputFormat = "table"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatDump:
		return FormatDump, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want dump or table)", s)
	}
}

// Config is resolved once at startup and not modified afterwards.
type Config struct {
	ClientID        string
	ClientSecret    string
	TenantID        string
	UserEmail       string
	AuthorityHost   string
	GraphBaseURL    string
	Strategy        Strategy
	CallbackPort    int
	CallbackTimeout time.Duration
	Format          OutputFormat
	Verbose         bool
}

// registerFlags declares every configuration flag on cmd.
func registerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(keyClientID, "", "Application (client) ID of the app registration")
	f.String(keyClientSecret, "", "Client secret of the app registration")
	f.String(keyTenantID, "", "Directory (tenant) ID or verified domain")
	f.String(keyUser, "", "User whose notebooks are listed (service flow only)")
	f.String(keyAuthorityHost, defaultAuthorityHost, "Login host of the identity provider")
	f.String(keyGraphURL, defaultGraphBaseURL, "Microsoft Graph API root")
	f.String(keyFlow, StrategyInteractive.String(), "Auth flow: interactive (authorization code) or service (client credentials)")
	f.Int(keyPort, defaultCallbackPort, "Local port of the redirect URI http://localhost:PORT"+callbackPath)
	f.Duration(keyCallbackTimeout, defaultCallbackTimeout, "How long to wait for the browser redirect")
	f.StringP(keyFormat, "o", string(FormatDump), "Output: dump (raw HTTP transaction) or table")
	f.BoolP(keyVerbose, "v", false, "Enable debug logging on stderr")
}

// loadConfig resolves every setting with flag > environment > default
// precedence and validates the result.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	for key, env := range envKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetDefault(keyAuthorityHost, defaultAuthorityHost)
	v.SetDefault(keyGraphURL, defaultGraphBaseURL)
	v.SetDefault(keyFlow, StrategyInteractive.String())
	v.SetDefault(keyPort, defaultCallbackPort)
	v.SetDefault(keyCallbackTimeout, defaultCallbackTimeout)
	v.SetDefault(keyFormat, string(FormatDump))

	strategy, err := ParseStrategy(v.GetString(keyFlow))
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(v.GetString(keyFormat))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ClientID:        strings.TrimSpace(v.GetString(keyClientID)),
		ClientSecret:    v.GetString(keyClientSecret),
		TenantID:        strings.TrimSpace(v.GetString(keyTenantID)),
		UserEmail:       strings.TrimSpace(v.GetString(keyUser)),
		AuthorityHost:   strings.TrimRight(v.GetString(keyAuthorityHost), "/"),
		GraphBaseURL:    strings.TrimRight(v.GetString(keyGraphURL), "/"),
		Strategy:        strategy,
		CallbackPort:    v.GetInt(keyPort),
		CallbackTimeout: v.GetDuration(keyCallbackTimeout),
		Format:          format,
		Verbose:         v.GetBool(keyVerbose),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func missingSetting(key string) error {
	return fmt.Errorf(
		"%s not set: use --%s, the %s environment variable, or a .env file",
		envKeys[key], key, envKeys[key],
	)
}

func (c *Config) validate() error {
	if c.ClientID == "" {
		return missingSetting(keyClientID)
	}
	if c.ClientSecret == "" {
		return missingSetting(keyClientSecret)
	}
	if c.TenantID == "" {
		return missingSetting(keyTenantID)
	}
	if c.Strategy == StrategyService && c.UserEmail == "" {
		return missingSetting(keyUser)
	}
	if err := validateBaseURL(c.AuthorityHost); err != nil {
		return fmt.Errorf("invalid authority host: %w", err)
	}
	if err := validateBaseURL(c.GraphBaseURL); err != nil {
		return fmt.Errorf("invalid Graph URL: %w", err)
	}
	if c.CallbackPort <= 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("callback port must be between 1 and 65535, got %d", c.CallbackPort)
	}
	if c.CallbackTimeout <= 0 {
		return fmt.Errorf("callback timeout must be positive, got %s", c.CallbackTimeout)
	}
	return nil
}

func validateBaseURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

var wellKnownTenants = map[string]bool{
	"common":        true,
	"organizations": true,
	"consumers":     true,
}

// warnings reports settings that are accepted but probably wrong.
func (c *Config) warnings() []string {
	var out []string
	if _, err := uuid.Parse(c.ClientID); err != nil {
		out = append(out, fmt.Sprintf("client ID doesn't appear to be a valid UUID: %s", c.ClientID))
	}
	if _, err := uuid.Parse(c.TenantID); err != nil &&
		!wellKnownTenants[strings.ToLower(c.TenantID)] &&
		!strings.Contains(c.TenantID, ".") {
		out = append(out, fmt.Sprintf("tenant ID is neither a UUID nor a domain name: %s", c.TenantID))
	}
	if c.Strategy == StrategyService && wellKnownTenants[strings.ToLower(c.TenantID)] {
		out = append(out, fmt.Sprintf("the service flow needs a specific tenant, not %q", c.TenantID))
	}
	for _, u := range []string{c.AuthorityHost, c.GraphBaseURL} {
		if strings.HasPrefix(strings.ToLower(u), "http://") {
			out = append(out, fmt.Sprintf("using HTTP instead of HTTPS for %s; tokens will be transmitted in plaintext", u))
		}
	}
	return out
}

// Authority is the tenant-scoped login URL.
func (c *Config) Authority() string {
	return c.AuthorityHost + "/" + url.PathEscape(c.TenantID)
}

// Endpoint returns the v2.0 OAuth endpoints of the tenant.
func (c *Config) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   c.Authority() + "/oauth2/v2.0/authorize",
		TokenURL:  c.Authority() + "/oauth2/v2.0/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// RedirectURI must match the app registration exactly.
func (c *Config) RedirectURI() string {
	return fmt.Sprintf("http://%s:%d%s", callbackHost, c.CallbackPort, callbackPath)
}

// ResourceURL is the notebooks URL for the configured strategy.
func (c *Config) ResourceURL() (string, error) {
	return c.Strategy.ResourceURL(c.GraphBaseURL, c.UserEmail)
}
