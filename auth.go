package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenExchangeTimeout = 10 * time.Second

// Authenticator obtains bearer tokens from Entra ID for one configuration.
type Authenticator struct {
	cfg         *Config
	clients     *httpClients
	cache       *tokenCache
	ui          *console
	logger      *slog.Logger
	openBrowser func(url string) error
}

// NewAuthenticator returns an Authenticator that sends token requests
// through clients.
func NewAuthenticator(cfg *Config, clients *httpClients, ui *console, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		cfg:         cfg,
		clients:     clients,
		cache:       newTokenCache(),
		ui:          ui,
		logger:      logger,
		openBrowser: openBrowser,
	}
}

// AcquireBearerToken runs the flow for strategy. It returns either a token
// with a non-empty access token or an error; *AuthError when the provider
// answered with an OAuth error payload.
func (a *Authenticator) AcquireBearerToken(ctx context.Context, strategy Strategy) (*BearerToken, error) {
	switch strategy {
	case StrategyInteractive:
		return a.acquireInteractive(ctx)
	case StrategyService:
		return a.acquireService(ctx)
	default:
		return nil, fmt.Errorf("unsupported strategy %v", strategy)
	}
}

// oauthContext makes x/oauth2 send its token request through client.
func oauthContext(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func (a *Authenticator) codeFlowConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		Endpoint:     a.cfg.Endpoint(),
		RedirectURL:  a.cfg.RedirectURI(),
		Scopes:       StrategyInteractive.Scopes(),
	}
}

// acquireInteractive runs the authorization-code flow with PKCE.
func (a *Authenticator) acquireInteractive(ctx context.Context) (*BearerToken, error) {
	state, err := generateState()
	if err != nil {
		return nil, err
	}
	pkce := GeneratePKCE()

	conf := a.codeFlowConfig()
	authURL := conf.AuthCodeURL(state, pkce.challengeOption())

	a.ui.step(1, "Opening the sign-in page in your browser...")
	a.ui.link(authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.logger.Debug("browser launch failed", "error", err)
		a.ui.info("Could not open browser automatically. Please open the URL above manually.")
	}

	a.ui.step(2, "Waiting for the redirect on %s", a.cfg.RedirectURI())
	var token *BearerToken
	err = a.ui.wait(ctx, "Waiting for sign-in to complete", func() error {
		var werr error
		token, werr = receiveRedirect(
			ctx,
			a.cfg.CallbackPort,
			state,
			a.cfg.CallbackTimeout,
			func(ctx context.Context, code string) (*BearerToken, error) {
				return a.exchangeCode(ctx, conf, code, pkce)
			},
		)
		return werr
	})
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	a.ui.success("Authorization code exchanged for a token")
	return token, nil
}

// exchangeCode redeems an authorization code at the token endpoint.
func (a *Authenticator) exchangeCode(
	ctx context.Context,
	conf *oauth2.Config,
	code string,
	pkce *PKCEParams,
) (*BearerToken, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	a.logger.Debug("exchanging authorization code", "token_url", conf.Endpoint.TokenURL)
	tok, err := conf.Exchange(oauthContext(ctx, a.clients.once), code, pkce.verifierOption())
	if err != nil {
		return nil, decodeTokenError(err)
	}
	return newBearerToken(tok)
}

// acquireService runs the client-credentials flow, consulting the in-process
// cache first.
func (a *Authenticator) acquireService(ctx context.Context) (*BearerToken, error) {
	scopes := StrategyService.Scopes()
	if tok, ok := a.cache.lookup(scopes); ok {
		a.logger.Debug("token cache hit", "scopes", scopeKey(scopes))
		return newBearerToken(tok)
	}
	a.logger.Debug("no suitable token in cache, requesting a new one", "scopes", scopeKey(scopes))

	a.ui.step(1, "Requesting an application token from %s", a.cfg.Authority())

	cc := &clientcredentials.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		TokenURL:     a.cfg.Endpoint().TokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	tok, err := cc.Token(oauthContext(ctx, a.clients.credentials))
	if err != nil {
		return nil, fmt.Errorf("client credentials grant failed: %w", decodeTokenError(err))
	}
	token, err := newBearerToken(tok)
	if err != nil {
		return nil, err
	}
	a.cache.store(scopes, tok)
	a.ui.success("Application token issued")
	return token, nil
}
