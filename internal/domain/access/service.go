package access

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/yanqian/astro-clock/pkg/errors"
	"github.com/yanqian/astro-clock/pkg/util"
)

// Service issues and verifies reading passes.
type Service interface {
	Enabled() bool
	// AuthorizeCheckout checks the secret presented by the checkout backend.
	AuthorizeCheckout(secret string) error
	Issue(ctx context.Context, req IssueRequest) (IssuedPass, error)
	Validate(ctx context.Context, token string) (Pass, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

type passClaims struct {
	jwt.RegisteredClaims
	Wallet   string `json:"wallet"`
	ChargeID string `json:"chargeId"`
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "access.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Enabled() bool {
	return s.cfg.Secret != ""
}

func (s *service) AuthorizeCheckout(secret string) error {
	if !s.Enabled() || s.cfg.CheckoutSecret == "" {
		return apperrors.Wrap(CodeIssuingDisabled, "reading pass issuing is disabled", nil)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.CheckoutSecret)) != 1 {
		return apperrors.Wrap(CodeUnauthorized, "checkout secret invalid", nil)
	}
	return nil
}

func (s *service) Issue(_ context.Context, req IssueRequest) (IssuedPass, error) {
	if !s.Enabled() {
		return IssuedPass{}, apperrors.Wrap(CodeAccessError, "reading passes are disabled", nil)
	}
	wallet, err := NormalizeWallet(req.Wallet)
	if err != nil {
		return IssuedPass{}, apperrors.Wrap(CodeInvalidInput, err.Error(), nil)
	}
	chargeID := strings.TrimSpace(req.ChargeID)
	if chargeID == "" {
		return IssuedPass{}, apperrors.Wrap(CodeInvalidInput, "chargeId cannot be empty", nil)
	}

	now := s.now()
	expires := now.Add(s.cfg.TTL)
	claims := passClaims{
		Wallet:   wallet,
		ChargeID: chargeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   wallet,
			ID:        chargeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return IssuedPass{}, apperrors.Wrap(CodeAccessError, "failed to sign pass", err)
	}
	s.logger.Info("reading pass issued", "wallet", wallet, "charge_id", chargeID)
	return IssuedPass{Token: signed, ExpiresAt: expires}, nil
}

func (s *service) Validate(_ context.Context, token string) (Pass, error) {
	if strings.TrimSpace(token) == "" {
		return Pass{}, apperrors.Wrap(CodeUnauthorized, "reading pass missing", nil)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &passClaims{}, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Pass{}, apperrors.Wrap(CodeInvalidPass, "reading pass expired", err)
		}
		return Pass{}, apperrors.Wrap(CodeInvalidPass, "reading pass invalid", err)
	}
	claims, ok := parsed.Claims.(*passClaims)
	if !ok || !parsed.Valid {
		return Pass{}, apperrors.Wrap(CodeInvalidPass, "reading pass invalid", nil)
	}
	wallet, err := NormalizeWallet(claims.Wallet)
	if err != nil {
		return Pass{}, apperrors.Wrap(CodeInvalidPass, "reading pass wallet invalid", err)
	}
	if strings.TrimSpace(claims.ChargeID) == "" {
		return Pass{}, apperrors.Wrap(CodeInvalidPass, "reading pass missing charge", nil)
	}
	return Pass{Wallet: wallet, ChargeID: claims.ChargeID, ExpiresAt: claims.ExpiresAt.Time}, nil
}
