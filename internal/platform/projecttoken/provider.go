// Package projecttoken obtains the project-scoped token that authorizes calls
// to the verification and issuance APIs.
//
// The exchange has two legs: a signed RS256 client assertion is traded at the
// token endpoint for a user access token, which is then traded at the API
// gateway's STS for a token scoped to the configured project. The result is
// cached until shortly before it expires.
package projecttoken

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vaultflow/internal/platform/config"
	"vaultflow/internal/platform/gateway"
	"vaultflow/internal/platform/metrics"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/tracer"
)

const (
	stsPath             = "/iam/v1/sts/create-project-scoped-token"
	assertionTTL        = 5 * time.Minute
	refreshBeforeExpiry = time.Minute
	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)

// Caller is the subset of gateway.Client the provider needs.
type Caller interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

type userTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type projectTokenRequest struct {
	ProjectID string `json:"projectId"`
}

type projectTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Provider implements gateway.TokenSource.
type Provider struct {
	cfg       config.ProjectTokenConfig
	projectID string
	key       *rsa.PrivateKey
	caller    Caller
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Option configures a Provider.
type Option func(*Provider)

func WithTracer(t tracer.Tracer) Option {
	return func(p *Provider) {
		p.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New creates a provider. With a static token configured the key is not parsed
// and no exchange ever happens.
func New(cfg config.ProjectTokenConfig, projectID string, caller Caller, opts ...Option) (*Provider, error) {
	p := &Provider{
		cfg:       cfg,
		projectID: projectID,
		caller:    caller,
		tracer:    tracer.NewNoop(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.StaticToken != "" {
		return p, nil
	}
	if !cfg.Configured() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "project token provider requires TOKEN_ENDPOINT, TOKEN_ID and TOKEN_PRIVATE_KEY")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePEM(cfg.PrivateKey)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid token private key")
	}
	p.key = key
	return p, nil
}

// Token returns a cached project-scoped token, exchanging a new one when needed.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if p.cfg.StaticToken != "" {
		return p.cfg.StaticToken, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiresAt.Add(-refreshBeforeExpiry)) {
		p.metrics.IncProjectToken("cached")
		return p.token, nil
	}

	ctx, span := p.tracer.Start(ctx, tracer.SpanProjectToken)
	token, expiresAt, err := p.exchange(ctx)
	span.End(err)
	if err != nil {
		p.metrics.IncProjectToken("failed")
		p.logger.ErrorContext(ctx, "project token exchange failed", "error", err)
		return "", err
	}

	p.metrics.IncProjectToken("exchanged")
	p.token, p.expiresAt = token, expiresAt
	return token, nil
}

func (p *Provider) exchange(ctx context.Context) (string, time.Time, error) {
	assertion, err := p.signAssertion()
	if err != nil {
		return "", time.Time{}, err
	}

	var user userTokenResponse
	err = p.caller.Do(ctx, gateway.Request{
		URL: p.cfg.TokenEndpoint,
		Form: url.Values{
			"grant_type":            {"client_credentials"},
			"scope":                 {"openid"},
			"client_id":             {p.cfg.TokenID},
			"client_assertion_type": {clientAssertionType},
			"client_assertion":      {assertion},
		},
	}, &user)
	if err != nil {
		return "", time.Time{}, err
	}
	if user.AccessToken == "" {
		return "", time.Time{}, dErrors.New(dErrors.CodeInternal, "token endpoint returned no access token")
	}

	var project projectTokenResponse
	err = p.caller.Do(ctx, gateway.Request{
		Path:   stsPath,
		JSON:   projectTokenRequest{ProjectID: p.projectID},
		Bearer: user.AccessToken,
	}, &project)
	if err != nil {
		return "", time.Time{}, err
	}
	if project.AccessToken == "" {
		return "", time.Time{}, dErrors.New(dErrors.CodeInternal, "token exchange returned no project token")
	}

	return project.AccessToken, p.expiry(project), nil
}

func (p *Provider) signAssertion() (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    p.cfg.TokenID,
		Subject:   p.cfg.TokenID,
		Audience:  jwt.ClaimStrings{p.cfg.TokenEndpoint},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if p.cfg.KeyID != "" {
		token.Header["kid"] = p.cfg.KeyID
	}
	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign client assertion")
	}
	return signed, nil
}

// expiry prefers the token's own exp claim and falls back to expiresIn.
func (p *Provider) expiry(resp projectTokenResponse) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if resp.ExpiresIn > 0 {
		return p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return p.now().Add(refreshBeforeExpiry)
}

// normalizePEM restores newlines for keys passed through env vars as "\n" literals.
func normalizePEM(pem string) string {
	return strings.ReplaceAll(strings.TrimSpace(pem), `\n`, "\n")
}

var _ gateway.TokenSource = (*Provider)(nil)
