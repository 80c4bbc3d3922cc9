package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	// callbackHost must be "localhost": Entra ID compares the redirect URI
	// literally and app registrations use localhost, not 127.0.0.1.
	callbackHost = "localhost"
	callbackPath = "/oauthcallback"

	defaultCallbackPort = 5000

	// defaultCallbackTimeout is how long we wait for the browser to deliver the code.
	defaultCallbackTimeout = 5 * time.Minute

	// callbackWriteTimeout is the HTTP write deadline for the callback handler.
	// It must exceed tokenExchangeTimeout to ensure the exchange result can be
	// written back to the browser before the connection times out.
	callbackWriteTimeout = 30 * time.Second
)

var (
	// ErrMissingCode is returned when the redirect carries neither an error
	// nor an authorization code. No token exchange is attempted.
	ErrMissingCode = errors.New("redirect carried no authorization code")
	// ErrStateMismatch is returned when the redirect's state does not match
	// the one sent with the authorization request.
	ErrStateMismatch = errors.New("state parameter mismatch")
	// ErrCallbackTimeout is returned when no redirect arrives in time.
	ErrCallbackTimeout = errors.New("timed out waiting for browser authorization")
)

// exchangeFunc trades an authorization code for a token.
type exchangeFunc func(ctx context.Context, code string) (*BearerToken, error)

// callbackResult holds the outcome of the local callback round-trip.
type callbackResult struct {
	token *BearerToken
	err   error
}

// newCallbackHandler returns the handler for callbackPath. Only the first
// request is processed; it delivers exactly one result through send. Any
// later request is answered with 409 and never reaches exchange.
func newCallbackHandler(
	expectedState string,
	exchange exchangeFunc,
	send func(callbackResult),
) http.Handler {
	var claimed atomic.Bool

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !claimed.CompareAndSwap(false, true) {
			http.Error(w, "authorization response already received", http.StatusConflict)
			return
		}

		q := r.URL.Query()

		// Check for OAuth error response first.
		if oauthErr := q.Get("error"); oauthErr != "" {
			authErr := &AuthError{Code: oauthErr, Description: q.Get("error_description")}
			writeCallbackPage(w, false, authErr.Error())
			send(callbackResult{err: authErr})
			return
		}

		// Validate state (CSRF protection).
		if q.Get("state") != expectedState {
			writeCallbackPage(w, false, "State parameter does not match. Possible CSRF attack.")
			send(callbackResult{err: ErrStateMismatch})
			return
		}

		code := q.Get("code")
		if code == "" {
			writeCallbackPage(w, false, "No authorization code in callback.")
			send(callbackResult{err: ErrMissingCode})
			return
		}

		// Hold the HTTP response open while exchanging the code for tokens so
		// the browser reflects the true outcome (success or failure).
		token, err := exchange(r.Context(), code)
		if err != nil {
			writeCallbackPage(w, false, err.Error())
			send(callbackResult{err: fmt.Errorf("token exchange failed: %w", err)})
			return
		}

		writeCallbackPage(w, true, "")
		send(callbackResult{token: token})
	})
}

// receiveRedirect listens on localhost:port for the single OAuth redirect,
// runs exchange with the received code and returns its token.
//
// The listener is shut down after the first result, on timeout, or when ctx
// is cancelled.
func receiveRedirect(
	ctx context.Context,
	port int,
	expectedState string,
	timeout time.Duration,
	exchange exchangeFunc,
) (*BearerToken, error) {
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}

	resultCh := make(chan callbackResult, 1)
	send := func(r callbackResult) { resultCh <- r }

	mux := http.NewServeMux()
	mux.Handle(callbackPath, newCallbackHandler(expectedState, exchange, send))

	srv := &http.Server{
		Addr:              net.JoinHostPort(callbackHost, strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      callbackWriteTimeout,
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server on %s: %w", srv.Addr, err)
	}

	go func() {
		_ = srv.Serve(ln)
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}
		return result.token, nil

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-timer.C:
		return nil, fmt.Errorf("%w (%s)", ErrCallbackTimeout, timeout)
	}
}

// writeCallbackPage writes a minimal HTML response to the browser tab. The
// success page closes the tab itself.
func writeCallbackPage(w http.ResponseWriter, success bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if success {
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authorization Successful</title></head>
<body style="font-family:sans-serif;text-align:center;padding:4rem">
  <h1 style="color:#2ea44f">&#10003; Authorization Successful</h1>
  <p>You can close this tab and return to your terminal.</p>
  <script type="application/javascript">window.close();</script>
</body>
</html>`)
		return
	}

	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title></head>
<body style="font-family:sans-serif;text-align:center;padding:4rem">
  <h1 style="color:#cb2431">&#10007; Authorization Failed</h1>
  <p>%s</p>
  <p>You can close this tab and check your terminal for details.</p>
</body>
</html>`, html.EscapeString(msg))
}
