package model

// Theme is the UI theme preference.
type Theme string

// Language is the UI language preference.
type Language string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"

	LanguageSpanish    Language = "es"
	LanguageEnglish    Language = "en"
	LanguagePortuguese Language = "pt"
)

// Settings holds user preferences.
type Settings struct {
	Notifications bool     `json:"notifications"`
	Theme         Theme    `json:"theme"`
	Language      Language `json:"language"`
}

// DefaultSettings returns the settings of a new account.
func DefaultSettings() Settings {
	return Settings{
		Notifications: true,
		Theme:         ThemeDark,
		Language:      LanguageSpanish,
	}
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageSpanish, LanguageEnglish, LanguagePortuguese:
		return true
	}
	return false
}
