package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

const (
	// MaxAvatarSize limits uploaded avatar images.
	MaxAvatarSize = 2 << 20

	// AvatarPath is the photo url stored for users with an uploaded avatar.
	AvatarPath = "/api/users/me/avatar"
)

var avatarContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

type Profile struct {
	userStore model.UserStore
	storage   model.Storage
	logger    *logger.Logger
}

// NewProfile creates the profile service. storage may be nil, which disables avatars.
func NewProfile(userStore model.UserStore, storage model.Storage, logger *logger.Logger) *Profile {
	return &Profile{userStore: userStore, storage: storage, logger: logger}
}

func (p *Profile) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := p.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, p.storeError("get user", userID, err)
	}
	return user, nil
}

func (p *Profile) Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	if update.DisplayName != nil {
		name, err := validateDisplayName(*update.DisplayName)
		if err != nil {
			return model.User{}, err
		}
		update.DisplayName = &name
	}
	if update.PhotoURL != nil {
		if err := validatePhotoURL(*update.PhotoURL); err != nil {
			return model.User{}, err
		}
	}

	user, err := p.userStore.UpdateProfile(ctx, userID, update)
	if err != nil {
		return model.User{}, p.storeError("update profile", userID, err)
	}

	p.logger.Info("Profile service: profile updated",
		"user_id", userID)

	return user, nil
}

func (p *Profile) UpdateSettings(ctx context.Context, userID uuid.UUID, settings model.Settings) (model.Settings, error) {
	if err := validateSettings(settings); err != nil {
		return model.Settings{}, err
	}

	updated, err := p.userStore.UpdateSettings(ctx, userID, settings)
	if err != nil {
		return model.Settings{}, p.storeError("update settings", userID, err)
	}

	return updated, nil
}

// Deactivate soft deletes the account. Tokens already issued stop working on
// the next authenticated request.
func (p *Profile) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if err := p.userStore.Deactivate(ctx, userID); err != nil {
		return p.storeError("deactivate user", userID, err)
	}

	p.logger.Info("Profile service: account deactivated",
		"user_id", userID)

	return nil
}

// UploadAvatar stores an avatar image and points the user's photo url at it.
// The content type is sniffed from the data, not taken from the client.
func (p *Profile) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (model.User, error) {
	if p.storage == nil {
		return model.User{}, avatarsDisabled()
	}
	if len(data) == 0 || len(data) > MaxAvatarSize {
		return model.User{}, invalid("VALIDATION_AVATAR_SIZE", "avatar must be a non-empty image of at most 2 MiB", "size", len(data))
	}
	contentType := http.DetectContentType(data)
	if _, ok := avatarContentTypes[contentType]; !ok {
		return model.User{}, invalid("VALIDATION_AVATAR_TYPE", "avatar must be a png, jpeg or webp image", "content_type", contentType)
	}

	key := avatarKey(userID)
	if err := p.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		p.logger.LogError("Profile service: failed to upload avatar", err,
			"user_id", userID)
		return model.User{}, storageError("upload avatar", err)
	}

	photoURL := AvatarPath
	user, err := p.userStore.UpdateProfile(ctx, userID, model.ProfileUpdate{PhotoURL: &photoURL})
	if err != nil {
		return model.User{}, p.storeError("update profile", userID, err)
	}

	p.logger.Info("Profile service: avatar uploaded",
		"user_id", userID,
		"size", len(data),
		"content_type", contentType)

	return user, nil
}

// DownloadAvatar opens the stored avatar. The caller closes the body.
func (p *Profile) DownloadAvatar(ctx context.Context, userID uuid.UUID) (model.Object, error) {
	if p.storage == nil {
		return model.Object{}, avatarsDisabled()
	}

	obj, err := p.storage.Download(ctx, avatarKey(userID))
	if errors.Is(err, model.ErrNotFound) {
		return model.Object{}, oops.Code("AVATAR_MISSING").
			With("user_id", userID).
			Public("avatar not found").
			Wrap(model.ErrNotFound)
	}
	if err != nil {
		p.logger.LogError("Profile service: failed to download avatar", err,
			"user_id", userID)
		return model.Object{}, storageError("download avatar", err)
	}

	return obj, nil
}

// ReadAvatar reads at most MaxAvatarSize+1 bytes so oversized uploads are
// detected without buffering them whole.
func ReadAvatar(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
}

func avatarKey(userID uuid.UUID) string {
	return "avatars/" + userID.String()
}

func avatarsDisabled() error {
	return oops.Code("AVATARS_DISABLED").
		Public("avatar storage is not configured").
		Wrap(model.ErrFeatureDisabled)
}

func (p *Profile) storeError(op string, userID uuid.UUID, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return oops.Code("PROFILE_USER_MISSING").
			With("user_id", userID).
			Public("user not found").
			Wrap(model.ErrNotFound)
	}
	p.logger.LogError("Profile service: failed to "+op, err,
		"user_id", userID)
	return storageError(op, err)
}
