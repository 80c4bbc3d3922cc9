package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app wires one run: authenticate, call the notebooks resource, print.
type app struct {
	cfg         *Config
	clients     *httpClients
	ui          *console
	out         io.Writer
	logger      *slog.Logger
	openBrowser func(url string) error
}

func (a *app) run(ctx context.Context) error {
	// Resolve the target first so a bad user fails before any sign-in.
	resourceURL, err := a.cfg.ResourceURL()
	if err != nil {
		return err
	}

	a.ui.title("Microsoft Graph OneNote Notebooks")
	a.ui.field("Auth flow", a.cfg.Strategy.String())
	a.ui.field("Authority", a.cfg.Authority())
	a.ui.field("Client ID", a.cfg.ClientID)
	a.ui.field("Resource", resourceURL)
	a.ui.info("")

	auth := NewAuthenticator(a.cfg, a.clients, a.ui, a.logger)
	if a.openBrowser != nil {
		auth.openBrowser = a.openBrowser
	}

	token, err := auth.AcquireBearerToken(ctx, a.cfg.Strategy)
	if err != nil {
		return err
	}
	a.logger.Debug("token acquired", "token", token.preview(), "expires_at", token.ExpiresAt)

	a.ui.info("")
	a.ui.info("Calling %s", resourceURL)
	tx, err := CallResource(ctx, a.clients.once, token, resourceURL)
	if err != nil {
		return fmt.Errorf("resource call failed: %w", err)
	}
	a.logger.Debug("resource call finished", "status", tx.Response.StatusCode, "bytes", len(tx.Body))

	switch a.cfg.Format {
	case FormatTable:
		return renderNotebooks(a.out, tx)
	default:
		return writeTransaction(a.out, tx)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph-notebooks",
		Short: "List a user's OneNote notebooks through Microsoft Graph",
		Long: `Signs in to Entra ID with either the authorization-code flow (interactive,
opens a browser and waits on http://localhost:5000/oauthcallback) or the
client-credentials flow (service), then lists OneNote notebooks and prints the
full HTTP transaction.

Settings are read from flags, then environment variables, then a .env file
in the working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ui := newConsole(cmd.ErrOrStderr())
			for _, w := range cfg.warnings() {
				ui.warn("%s", w)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			clients, err := newHTTPClients(logger)
			if err != nil {
				return err
			}

			a := &app{
				cfg:     cfg,
				clients: clients,
				ui:      ui,
				out:     cmd.OutOrStdout(),
				logger:  logger,
			}
			return a.run(cmd.Context())
		},
	}
	registerFlags(cmd)
	return cmd
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		stop()
		os.Exit(130)
	}
	newConsole(os.Stderr).fail(err)
	stop()
	os.Exit(1)
}
