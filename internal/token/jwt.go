package token

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimType      = "type"
)

// Config holds token signing parameters.
type Config struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewJWT creates a new JWT token manager. A missing secret, a non-HMAC
// algorithm or a non-positive lifetime is a startup error.
func NewJWT(cfg Config, logger *logger.Logger) (*JWT, error) {
	if cfg.Secret == "" {
		return nil, oops.Code("TOKEN_SECRET_MISSING").Errorf("token secret is not configured")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code("TOKEN_ALGORITHM_UNSUPPORTED").With("algorithm", alg).Errorf("unsupported signing algorithm %q", alg)
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").Errorf("token lifetimes must be positive")
	}

	return &JWT{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Issue signs a token of the given kind for subject. Extra claims are merged
// first, so sub, iat, exp and type always carry the issuer's values.
// ttl overrides the default lifetime of the kind when non-nil.
func (j *JWT) Issue(kind model.TokenKind, subject string, extra map[string]any, ttl *time.Duration) (string, error) {
	lifetime := j.lifetime(kind)
	if ttl != nil {
		lifetime = *ttl
	}

	now := j.now()
	claims := jwt.MapClaims{}
	maps.Copy(claims, extra)
	claims[claimSubject] = subject
	claims[claimIssuedAt] = now.Unix()
	claims[claimExpiresAt] = now.Add(lifetime).Unix()
	claims[claimType] = string(kind)

	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, nil
}

// Verify checks signature, algorithm, expiry and kind of a token.
// Every failure is reported as model.ErrInvalidToken.
func (j *JWT) Verify(tokenString string, kind model.TokenKind) (model.Claims, error) {
	claims, reason := j.verify(tokenString, kind)
	if reason != nil {
		j.logger.Debug("Token manager: token rejected",
			"kind", kind,
			"reason", reason.Error())
		return model.Claims{}, oops.Code("TOKEN_INVALID").With("kind", kind).Wrap(model.ErrInvalidToken)
	}
	return claims, nil
}

// SubjectOf returns the subject of a valid access token.
func (j *JWT) SubjectOf(tokenString string) (string, bool) {
	claims, err := j.Verify(tokenString, model.TokenAccess)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

func (j *JWT) verify(tokenString string, kind model.TokenKind) (model.Claims, error) {
	if tokenString == "" {
		return model.Claims{}, errors.New("empty token")
	}

	mapClaims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, mapClaims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return model.Claims{}, err
	}

	if typ, _ := mapClaims[claimType].(string); typ != string(kind) {
		return model.Claims{}, fmt.Errorf("token type mismatch: %v", mapClaims[claimType])
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return model.Claims{}, errors.New("missing subject")
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return model.Claims{}, errors.New("missing expiration")
	}

	var issuedAt time.Time
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		issuedAt = iat.Time
	}

	extra := make(map[string]any, len(mapClaims))
	for k, v := range mapClaims {
		switch k {
		case claimSubject, claimIssuedAt, claimExpiresAt, claimType:
			continue
		}
		extra[k] = v
	}

	return model.Claims{
		Subject:   subject,
		Kind:      kind,
		IssuedAt:  issuedAt,
		ExpiresAt: exp.Time,
		Extra:     extra,
	}, nil
}

func (j *JWT) lifetime(kind model.TokenKind) time.Duration {
	if kind == model.TokenRefresh {
		return j.refreshTTL
	}
	return j.accessTTL
}
