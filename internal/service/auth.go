package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/password"
	"github.com/dtroode/qapath-server/internal/ratelimit"
)

// backgroundTimeout bounds best-effort work detached from a request.
const backgroundTimeout = 5 * time.Second

// dummyPassword is hashed once at startup and verified against when a login
// names an unknown email, so both paths cost one hash verification.
const dummyPassword = "qapath-timing-equalizer-1"

type Auth struct {
	userStore    model.UserStore
	hasher       model.PasswordHasher
	tokenService *TokenService
	limiter      model.LoginLimiter
	events       model.AuthEventRecorder
	logger       *logger.Logger

	dummyDigest string
	pending     sync.WaitGroup
	now         func() time.Time
}

// NewAuth wires the auth service. limiter and events may be nil.
func NewAuth(
	userStore model.UserStore,
	hasher model.PasswordHasher,
	tokenService *TokenService,
	limiter model.LoginLimiter,
	events model.AuthEventRecorder,
	logger *logger.Logger,
) *Auth {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if events == nil {
		events = noopEvents{}
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.LogWarn("Auth service: failed to prepare dummy digest", err)
	}

	return &Auth{
		userStore:    userStore,
		hasher:       hasher,
		tokenService: tokenService,
		limiter:      limiter,
		events:       events,
		logger:       logger,
		dummyDigest:  dummy,
		now:          time.Now,
	}
}

func (a *Auth) Register(ctx context.Context, params model.RegisterParams) (model.Session, error) {
	email := normalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	session, err := a.register(ctx, email, params)
	if err != nil {
		a.events.AuthEvent(model.EventRegister, model.OutcomeFailure)
		return model.Session{}, err
	}

	a.events.AuthEvent(model.EventRegister, model.OutcomeSuccess)
	a.logger.Info("Auth service: user registration completed successfully",
		"email", email,
		"user_id", session.User.ID)

	return session, nil
}

func (a *Auth) register(ctx context.Context, email string, params model.RegisterParams) (model.Session, error) {
	if err := validateEmail(email); err != nil {
		return model.Session{}, err
	}
	displayName, err := validateDisplayName(params.DisplayName)
	if err != nil {
		return model.Session{}, err
	}

	_, err = a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.Session{}, duplicateEmail(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.LogError("Auth service: failed to get user by email", err,
			"email", email)
		return model.Session{}, storageError("get user by email", err)
	}

	if ok, reason := password.CheckStrength(params.Password); !ok {
		return model.Session{}, oops.Code("AUTH_WEAK_PASSWORD").
			With("reason", reason).
			Public(reason).
			Wrap(model.ErrWeakPassword)
	}

	digest, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.logger.LogError("Auth service: failed to hash password", err,
			"email", email)
		return model.Session{}, oops.Code("AUTH_HASH_FAILED").Wrapf(err, "failed to hash password")
	}

	now := a.now().UTC()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &digest,
		AuthProvider: model.ProviderEmail,
		IsActive:     true,
		CreatedAt:    now,
		LastActive:   now,
		Progress:     model.NewProgress(),
		Settings:     model.DefaultSettings(),
	})
	if errors.Is(err, model.ErrDuplicateKey) {
		return model.Session{}, duplicateEmail(email)
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to create user", err,
			"email", email)
		return model.Session{}, storageError("create user", err)
	}

	return a.issue(user)
}

func (a *Auth) Login(ctx context.Context, params model.LoginParams) (model.Session, error) {
	email := normalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting user login",
		"email", email)

	if err := a.limiter.Check(ctx, email, params.ClientIP); err != nil {
		a.events.AuthEvent(model.EventLogin, model.OutcomeLimited)
		a.logger.Info("Auth service: login rate limited",
			"email", email,
			"client_ip", params.ClientIP)
		return model.Session{}, oops.Public("too many login attempts, try again later").Wrap(err)
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		a.hasher.Verify(params.Password, a.dummyDigest)
		return model.Session{}, a.loginFailed(ctx, email, params.ClientIP)
	}
	if err != nil {
		a.events.AuthEvent(model.EventLogin, model.OutcomeFailure)
		a.logger.LogError("Auth service: failed to get user by email", err,
			"email", email)
		return model.Session{}, storageError("get user by email", err)
	}

	if user.PasswordHash == nil || !a.hasher.Verify(params.Password, *user.PasswordHash) {
		return model.Session{}, a.loginFailed(ctx, email, params.ClientIP)
	}

	if !user.IsActive {
		a.events.AuthEvent(model.EventLogin, model.OutcomeFailure)
		return model.Session{}, inactiveAccount(user.ID)
	}

	a.limiter.Reset(ctx, email, params.ClientIP)
	a.touch(ctx, user.ID)
	if a.hasher.NeedsUpgrade(*user.PasswordHash) {
		a.upgradeHash(ctx, user.ID, params.Password)
	}
	user.LastActive = a.now().UTC()

	session, err := a.issue(user)
	if err != nil {
		return model.Session{}, err
	}

	a.events.AuthEvent(model.EventLogin, model.OutcomeSuccess)
	a.logger.Info("Auth service: user logged in successfully",
		"email", email,
		"user_id", user.ID)

	return session, nil
}

// LoginExternal signs in with an identity verified by an external provider.
// The user is resolved by provider id, then by email (linking the provider id),
// and created when neither matches.
func (a *Auth) LoginExternal(ctx context.Context, identity model.ExternalIdentity) (model.Session, error) {
	session, err := a.loginExternal(ctx, identity)
	if err != nil {
		a.events.AuthEvent(model.EventLoginExternal, model.OutcomeFailure)
		return model.Session{}, err
	}

	a.events.AuthEvent(model.EventLoginExternal, model.OutcomeSuccess)
	a.logger.Info("Auth service: external login completed successfully",
		"email", session.User.Email,
		"user_id", session.User.ID)

	return session, nil
}

func (a *Auth) loginExternal(ctx context.Context, identity model.ExternalIdentity) (model.Session, error) {
	googleID := strings.TrimSpace(identity.GoogleID)
	if googleID == "" {
		return model.Session{}, invalid("VALIDATION_EXTERNAL_ID", "external identity id is required")
	}
	email := normalizeEmail(identity.Email)
	if err := validateEmail(email); err != nil {
		return model.Session{}, err
	}

	user, err := a.resolveExternal(ctx, googleID, email, identity)
	if err != nil {
		return model.Session{}, err
	}

	if !user.IsActive {
		return model.Session{}, inactiveAccount(user.ID)
	}

	a.touch(ctx, user.ID)
	user.LastActive = a.now().UTC()

	return a.issue(user)
}

func (a *Auth) resolveExternal(ctx context.Context, googleID, email string, identity model.ExternalIdentity) (model.User, error) {
	user, err := a.userStore.GetByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.LogError("Auth service: failed to get user by google id", err)
		return model.User{}, storageError("get user by google id", err)
	}

	user, err = a.userStore.GetByEmail(ctx, email)
	if err == nil {
		if user.GoogleID != nil && *user.GoogleID != googleID {
			return model.User{}, oops.Code("AUTH_EXTERNAL_ID_MISMATCH").
				With("user_id", user.ID).
				Public("account is linked to a different external identity").
				Wrap(model.ErrInvalidCredentials)
		}
		if err := a.userStore.LinkGoogleID(ctx, user.ID, googleID); err != nil {
			a.logger.LogError("Auth service: failed to link google id", err,
				"user_id", user.ID)
			return model.User{}, storageError("link google id", err)
		}
		user.GoogleID = &googleID
		a.logger.Info("Auth service: linked external identity to existing user",
			"user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.LogError("Auth service: failed to get user by email", err,
			"email", email)
		return model.User{}, storageError("get user by email", err)
	}

	displayName, err := validateDisplayName(identity.DisplayName)
	if err != nil {
		displayName, _, _ = strings.Cut(email, "@")
	}
	var photoURL *string
	if identity.PhotoURL != "" && validatePhotoURL(identity.PhotoURL) == nil {
		photoURL = &identity.PhotoURL
	}

	now := a.now().UTC()
	user, err = a.userStore.Create(ctx, model.User{
		ID:            uuid.New(),
		Email:         email,
		DisplayName:   displayName,
		PhotoURL:      photoURL,
		AuthProvider:  model.ProviderGoogle,
		GoogleID:      &googleID,
		IsActive:      true,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     now,
		LastActive:    now,
		Progress:      model.NewProgress(),
		Settings:      model.DefaultSettings(),
	})
	if errors.Is(err, model.ErrDuplicateKey) {
		return model.User{}, duplicateEmail(email)
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to create external user", err,
			"email", email)
		return model.User{}, storageError("create user", err)
	}

	return user, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := a.tokenService.RefreshSubject(refreshToken)
	if err != nil {
		a.events.AuthEvent(model.EventRefresh, model.OutcomeFailure)
		return "", err
	}

	user, err := a.activeUser(ctx, userID)
	if err != nil {
		a.events.AuthEvent(model.EventRefresh, model.OutcomeFailure)
		if errors.Is(err, model.ErrAccountInactive) {
			return "", oops.Code("TOKEN_USER_INACTIVE").With("user_id", userID).Wrap(model.ErrInvalidToken)
		}
		return "", err
	}

	access, err := a.tokenService.Access(user)
	if err != nil {
		return "", err
	}

	a.events.AuthEvent(model.EventRefresh, model.OutcomeSuccess)
	a.logger.Debug("Auth service: access token refreshed",
		"user_id", user.ID)

	return access, nil
}

// Authenticate resolves the user behind an access token.
func (a *Auth) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	userID, err := a.tokenService.GetUserID(accessToken)
	if err != nil {
		a.events.AuthEvent(model.EventAuthenticate, model.OutcomeFailure)
		return model.User{}, err
	}

	user, err := a.activeUser(ctx, userID)
	if err != nil {
		a.events.AuthEvent(model.EventAuthenticate, model.OutcomeFailure)
		return model.User{}, err
	}

	a.touch(ctx, user.ID)

	return user, nil
}

// Wait blocks until detached best-effort work has finished.
func (a *Auth) Wait() {
	a.pending.Wait()
}

func (a *Auth) activeUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Debug("Auth service: token subject does not exist",
			"user_id", userID)
		return model.User{}, oops.Code("TOKEN_USER_MISSING").With("user_id", userID).Wrap(model.ErrInvalidToken)
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to get user by id", err,
			"user_id", userID)
		return model.User{}, storageError("get user by id", err)
	}
	if !user.IsActive {
		return model.User{}, inactiveAccount(user.ID)
	}
	return user, nil
}

func (a *Auth) issue(user model.User) (model.Session, error) {
	access, refresh, err := a.tokenService.Issue(user)
	if err != nil {
		a.logger.LogError("Auth service: failed to issue tokens", err,
			"user_id", user.ID)
		return model.Session{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrapf(err, "failed to issue tokens")
	}
	return model.Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (a *Auth) loginFailed(ctx context.Context, email, clientIP string) error {
	a.limiter.Fail(ctx, email, clientIP)
	a.events.AuthEvent(model.EventLogin, model.OutcomeFailure)
	a.logger.Info("Auth service: invalid login attempt",
		"email", email,
		"client_ip", clientIP)
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		Public("invalid email or password").
		Wrap(model.ErrInvalidCredentials)
}

func (a *Auth) touch(ctx context.Context, userID uuid.UUID) {
	a.runBackground(ctx, "touch last active", func(ctx context.Context) error {
		return a.userStore.TouchLastActive(ctx, userID)
	})
}

func (a *Auth) upgradeHash(ctx context.Context, userID uuid.UUID, plaintext string) {
	a.runBackground(ctx, "upgrade password hash", func(ctx context.Context) error {
		digest, err := a.hasher.Hash(plaintext)
		if err != nil {
			return err
		}
		return a.userStore.UpgradePasswordHash(ctx, userID, digest)
	})
}

// runBackground runs fn after the request returns. Failures are logged only.
func (a *Auth) runBackground(ctx context.Context, task string, fn func(context.Context) error) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			a.logger.LogWarn("Auth service: background task failed", err,
				"task", task)
		}
	}()
}

func duplicateEmail(email string) error {
	return oops.Code("AUTH_DUPLICATE_EMAIL").
		With("email", email).
		Public("email " + email + " is already registered").
		Wrap(model.ErrDuplicateEmail)
}

func inactiveAccount(userID uuid.UUID) error {
	return oops.Code("AUTH_ACCOUNT_INACTIVE").
		With("user_id", userID).
		Public("account is inactive").
		Wrap(model.ErrAccountInactive)
}
