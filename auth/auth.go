// Package auth authorizes drivemap against Google Drive with OAuth2.
//
// The first Authorize runs the browser authorization code flow with PKCE and saves the token
// in a CredentialStore. Later runs reuse the saved token; refreshed tokens are saved again and
// a revoked token is cleared so that the next Authorize asks the user again.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	dmerrors "github.com/Jumpaku/go-drivemap/errors"
	"github.com/Jumpaku/go-drivemap/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrNotLoggedIn is returned when no token is saved.
var ErrNotLoggedIn = fmt.Errorf("not logged in: %w", dmerrors.ErrAuth)

const shutdownTimeout = 5 * time.Second

// LoadClientSecrets reads the OAuth client secrets JSON downloaded from the Google Cloud console
// and returns a config requesting full Drive access.
func LoadClientSecrets(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dmerrors.NewIOError(fmt.Sprintf("failed to read client secrets %s", path), err)
	}
	cfg, err := google.ConfigFromJSON(data, drive.DriveScope)
	if err != nil {
		return nil, dmerrors.NewAuthError(fmt.Sprintf("invalid client secrets %s", path), err)
	}
	return cfg, nil
}

// NewService returns a Drive client authenticated by ts.
func NewService(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	service, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, dmerrors.NewAPIError("failed to create drive service", err)
	}
	return service, nil
}

// Authorize returns a token source from the saved token, logging in with Login when none is saved.
func Authorize(ctx context.Context, cfg *oauth2.Config, store CredentialStore, openURL func(string) error, logger *slog.Logger) (oauth2.TokenSource, error) {
	ts, err := TokenSource(ctx, cfg, store, logger)
	if errors.Is(err, ErrNotLoggedIn) {
		return Login(ctx, cfg, store, openURL, logger)
	}
	return ts, err
}

// TokenSource returns a token source from the saved token. It fails with ErrNotLoggedIn when none is saved.
//
// ctx must outlive the returned source, which uses it to refresh the token.
func TokenSource(ctx context.Context, cfg *oauth2.Config, store CredentialStore, logger *slog.Logger) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNotLoggedIn
	}
	logger.Debug("loaded saved token", logging.Operation("auth.token_source"),
		slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
		slog.Time("expiry", tok.Expiry), slog.Bool("valid", tok.Valid()))
	return newPersistingSource(cfg.TokenSource(ctx, tok), store, tok, logger), nil
}

// Login runs the authorization code flow with PKCE: it serves the redirect on a loopback port,
// calls openURL with the authorization URL, waits for the redirect, exchanges the code and saves the token.
// When openURL fails the URL is printed to stderr instead.
func Login(ctx context.Context, cfg *oauth2.Config, store CredentialStore, openURL func(string) error, logger *slog.Logger) (oauth2.TokenSource, error) {
	logger = logging.WithOperation(logger, "auth.login")
	c := *cfg

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	srv, port, err := startCallbackServer(ctx, mux, results)
	if err != nil {
		return nil, err
	}
	defer shutdownCallbackServer(srv, logger)
	c.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		handleCallback(w, r, state, results)
	})

	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	logger.Info("opening browser for authorization", slog.Int("port", port))
	if err := openURL(authURL); err != nil {
		logger.Warn("failed to open browser", logging.Err(err))
		fmt.Fprintf(os.Stderr, "Open this URL in your browser:\n%s\n", authURL)
	}

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-ctx.Done():
		return nil, dmerrors.NewAuthError("authorization canceled", ctx.Err())
	}

	tok, err := c.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, dmerrors.NewAuthError("failed to exchange authorization code", err)
	}
	if err := store.Save(tok); err != nil {
		return nil, err
	}
	logger.Info("login successful", slog.Time("expiry", tok.Expiry))
	return newPersistingSource(c.TokenSource(ctx, tok), store, tok, logger), nil
}

// Logout clears the saved token.
func Logout(store CredentialStore, logger *slog.Logger) error {
	if err := store.Clear(); err != nil {
		return err
	}
	logger.Info("removed saved token", logging.Operation("auth.logout"))
	return nil
}

type callbackResult struct {
	code string
	err  error
}

func startCallbackServer(ctx context.Context, mux *http.ServeMux, results chan<- callbackResult) (*http.Server, int, error) {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, dmerrors.NewAuthError("failed to listen for the redirect", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: dmerrors.NewAuthError("callback server failed", err)}:
			default:
			}
		}
	}()
	return srv, port, nil
}

func shutdownCallbackServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("callback server shutdown failed", logging.Err(err))
	}
}

func handleCallback(w http.ResponseWriter, r *http.Request, state string, results chan<- callbackResult) {
	send := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	q := r.URL.Query()
	if q.Get("state") != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		send(callbackResult{err: dmerrors.NewAuthError("state mismatch in the redirect", nil)})
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
		send(callbackResult{err: dmerrors.NewAuthError(fmt.Sprintf("authorization failed: %s", e), nil)})
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		send(callbackResult{err: dmerrors.NewAuthError("redirect has no authorization code", nil)})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1>"+
		"<p>You can close this window and return to the terminal.</p></body></html>")
	send(callbackResult{code: code})
}

// persistingSource saves every new token obtained from src and clears the store when the
// refresh token is rejected.
type persistingSource struct {
	src    oauth2.TokenSource
	store  CredentialStore
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func newPersistingSource(src oauth2.TokenSource, store CredentialStore, initial *oauth2.Token, logger *slog.Logger) *persistingSource {
	return &persistingSource{src: src, store: store, last: initial, logger: logger}
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode == "invalid_grant" {
			s.logger.Warn("saved token was rejected, clearing it", logging.Err(err))
			if clearErr := s.store.Clear(); clearErr != nil {
				return nil, errors.Join(dmerrors.NewAuthError("token was revoked, login again", err), clearErr)
			}
			return nil, dmerrors.NewAuthError("token was revoked, login again", err)
		}
		return nil, dmerrors.NewAuthError("failed to obtain token", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil && s.last.AccessToken == tok.AccessToken {
		return tok, nil
	}
	if err := s.store.Save(tok); err != nil {
		s.logger.Warn("failed to save refreshed token", logging.Err(err))
		return tok, nil
	}
	s.last = tok
	s.logger.Debug("saved refreshed token",
		slog.String("access_token", logging.SanitizeToken(tok.AccessToken)), slog.Time("expiry", tok.Expiry))
	return tok, nil
}
