package splash

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	tokenPath          = "/oauth/v2/token"
	tokenScope         = "user"
	earlyRefresh       = time.Minute
	defaultTokenExpiry = 8 * time.Hour

	grantPassword = "password"
	grantRefresh  = "refresh_token"
)

type AuthenticatorParams struct {
	fx.In

	Config     config.Config
	Store      TokenStore
	HTTPClient *http.Client
	Log        *zap.Logger
	Metrics    *metrics.Metrics `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
}

// Authenticator hands out bearer tokens: cached while valid, refreshed when expired,
// and re-granted with the password flow when the refresh fails.
type Authenticator struct {
	oauth    oauth2.Config
	username string
	password string
	client   *http.Client
	store    TokenStore
	log      *zap.Logger
	metrics  *metrics.Metrics
	clock    clock.Clock

	mu      sync.Mutex
	current *Token
	loaded  bool
}

func NewAuthenticator(p AuthenticatorParams) *Authenticator {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	store := p.Store
	if store == nil {
		store = NewMemoryTokenStore()
	}
	cfg := p.Config.Splash
	return &Authenticator{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(cfg.BaseURL, "/") + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{tokenScope},
		},
		username: cfg.Username,
		password: cfg.Password,
		client:   tracing.WrapHTTPClient(p.HTTPClient),
		store:    store,
		log:      log.Named("splash.auth").With(zap.String("component", "splash_auth")),
		metrics:  p.Metrics,
		clock:    clk,
	}
}

func (a *Authenticator) AuthorizationHeader(ctx context.Context) (string, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + tok.AccessToken, nil
}

// Token returns a usable token, renewing it when needed.
func (a *Authenticator) Token(ctx context.Context) (Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		a.loaded = true
		stored, err := a.store.Load(ctx)
		if err != nil {
			a.log.Warn("splash.auth.load_failed", zap.Error(err))
		}
		a.current = stored
	}

	if a.current != nil && a.current.AccessToken != "" && a.clock.Now().Before(a.current.ExpiresAt) {
		return *a.current, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	var issued *oauth2.Token
	if a.current != nil && a.current.RefreshToken != "" {
		tok, err := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: a.current.RefreshToken}).Token()
		if err != nil {
			a.metrics.RecordTokenGrant(ctx, grantRefresh, "failure")
			a.log.Warn("splash.auth.refresh_failed", zap.Error(tracing.SafeError(err)))
		} else {
			a.metrics.RecordTokenGrant(ctx, grantRefresh, "success")
			a.log.Info("splash.auth.refreshed")
			issued = tok
		}
	}

	if issued == nil {
		tok, err := a.oauth.PasswordCredentialsToken(ctx, a.username, a.password)
		if err != nil {
			a.metrics.RecordTokenGrant(ctx, grantPassword, "failure")
			return Token{}, &AuthError{Grant: grantPassword, Err: tracing.SafeError(err)}
		}
		a.metrics.RecordTokenGrant(ctx, grantPassword, "success")
		a.log.Info("splash.auth.granted")
		issued = tok
	}

	next := a.fromOAuth(issued)
	a.current = &next
	if err := a.store.Save(ctx, next); err != nil {
		a.log.Warn("splash.auth.save_failed", zap.Error(err))
	}
	return next, nil
}

func (a *Authenticator) fromOAuth(tok *oauth2.Token) Token {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = a.clock.Now().Add(defaultTokenExpiry)
	}
	refresh := tok.RefreshToken
	if refresh == "" && a.current != nil {
		refresh = a.current.RefreshToken
	}
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    expiry.Add(-earlyRefresh),
	}
}
