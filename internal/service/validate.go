package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/model"
)

const (
	minDisplayName = 2
	maxDisplayName = 100
	maxModuleID    = 100
	maxNoteLength  = 5000
	minBadgeLength = 2
	maxBadgeLength = 50
	maxXPPerGrant  = 1000
)

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	badgePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

func invalid(code, public string, kv ...any) error {
	return oops.Code(code).With(kv...).Public(public).Wrap(model.ErrValidation)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return invalid("VALIDATION_EMAIL", "invalid email address", "email", email)
	}
	return nil
}

func validateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minDisplayName || n > maxDisplayName {
		return "", invalid("VALIDATION_DISPLAY_NAME", "display name must be between 2 and 100 characters")
	}
	return name, nil
}

func validatePhotoURL(url string) error {
	if url == "" || strings.HasPrefix(url, "/") {
		return nil
	}
	if err := validate.Var(url, "url"); err != nil || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
		return invalid("VALIDATION_PHOTO_URL", "photo url must be an http(s) url")
	}
	return nil
}

func validateModuleID(moduleID string) error {
	id, err := strconv.Atoi(moduleID)
	if err != nil || id < 1 || id > maxModuleID || strconv.Itoa(id) != moduleID {
		return invalid("VALIDATION_MODULE_ID", "module id must be a number between 1 and 100", "module_id", moduleID)
	}
	return nil
}

func validateSubtaskKey(key string) error {
	moduleID, index, ok := strings.Cut(key, "-")
	if !ok {
		return invalid("VALIDATION_SUBTASK_KEY", "subtask key must look like <module>-<task>", "key", key)
	}
	if err := validateModuleID(moduleID); err != nil {
		return err
	}
	if n, err := strconv.Atoi(index); err != nil || n < 0 || strconv.Itoa(n) != index {
		return invalid("VALIDATION_SUBTASK_KEY", "task index must be a non-negative number", "key", key)
	}
	return nil
}

func normalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		return "", invalid("VALIDATION_NOTE", "note must be at most 5000 characters")
	}
	return note, nil
}

func normalizeBadge(badge string) (string, error) {
	badge = strings.ToLower(strings.TrimSpace(badge))
	if len(badge) < minBadgeLength || len(badge) > maxBadgeLength || !badgePattern.MatchString(badge) {
		return "", invalid("VALIDATION_BADGE", "badge must be 2-50 characters of a-z, 0-9, - or _", "badge", badge)
	}
	return badge, nil
}

func validateSettings(s model.Settings) error {
	if !s.Theme.Valid() {
		return invalid("VALIDATION_THEME", "theme must be light, dark or auto", "theme", s.Theme)
	}
	if !s.Language.Valid() {
		return invalid("VALIDATION_LANGUAGE", "language must be es, en or pt", "language", s.Language)
	}
	return nil
}
