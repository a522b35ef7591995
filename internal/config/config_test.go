package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8000", cfg.HTTP.Address)
	assert.Equal(t, false, cfg.HTTP.EnableHTTPS)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, uint64(5), cfg.Database.ConnectAttempts)
	assert.Empty(t, cfg.JWT.Secret)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL())
	assert.Equal(t, "qa_session", cfg.Cookie.Name)
	assert.Nil(t, cfg.Cookie.Secure)
	assert.True(t, cfg.Cookie.HTTPOnly)
	assert.Equal(t, 604800, cfg.Cookie.MaxAge)
	assert.False(t, cfg.Storage.Enabled)
	assert.Empty(t, cfg.Redis.Address)
	assert.Equal(t, 10, cfg.Login.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Login.Cooldown)
	assert.False(t, cfg.ExternalIdentityEnabled)
	assert.True(t, cfg.MetricsEnabled)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name: "log settings override",
			envVars: map[string]string{
				"LOG_LEVEL":  "-4",
				"LOG_FORMAT": "json",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
			},
		},
		{
			name: "http config override",
			envVars: map[string]string{
				"HTTP_ADDRESS":               ":9090",
				"HTTP_ENABLE_HTTPS":          "true",
				"HTTP_CERT_FILE_NAME":        "custom.pem",
				"HTTP_PRIVATE_KEY_FILE_NAME": "custom-key.pem",
				"HTTP_CORS_ALLOWED_ORIGINS":  "https://app.example.com,https://admin.example.com",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, ":9090", cfg.HTTP.Address)
				assert.Equal(t, true, cfg.HTTP.EnableHTTPS)
				assert.Equal(t, "custom.pem", cfg.HTTP.CertFileName)
				assert.Equal(t, "custom-key.pem", cfg.HTTP.PrivateKeyFileName)
				assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.HTTP.CORSAllowedOrigins)
			},
		},
		{
			name: "jwt config override",
			envVars: map[string]string{
				"JWT_SECRET":                      "customsecret",
				"JWT_ALGORITHM":                   "HS512",
				"JWT_ACCESS_TOKEN_EXPIRE_MINUTES": "15",
				"JWT_REFRESH_TOKEN_EXPIRE_DAYS":   "30",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "customsecret", cfg.JWT.Secret)
				assert.Equal(t, "HS512", cfg.JWT.Algorithm)
				assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL())
				assert.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTTL())
			},
		},
		{
			name: "cookie config override",
			envVars: map[string]string{
				"COOKIE_NAME":     "sid",
				"COOKIE_DOMAIN":   "example.com",
				"COOKIE_SECURE":   "false",
				"COOKIE_SAMESITE": "strict",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "sid", cfg.Cookie.Name)
				assert.Equal(t, "example.com", cfg.Cookie.Domain)
				require.NotNil(t, cfg.Cookie.Secure)
				assert.False(t, *cfg.Cookie.Secure)
				assert.Equal(t, "strict", cfg.Cookie.SameSite)
			},
		},
		{
			name: "storage config override",
			envVars: map[string]string{
				"MINIO_ENABLED":     "true",
				"MINIO_ENDPOINT":    "minio.example.com:9000",
				"MINIO_ACCESS_KEY":  "access123",
				"MINIO_SECRET_KEY":  "secret123",
				"MINIO_BUCKET_NAME": "custom-bucket",
				"MINIO_USE_SSL":     "true",
			},
			expected: func(cfg *Config) {
				assert.True(t, cfg.Storage.Enabled)
				assert.Equal(t, "minio.example.com:9000", cfg.Storage.Endpoint)
				assert.Equal(t, "access123", cfg.Storage.AccessKey)
				assert.Equal(t, "secret123", cfg.Storage.SecretKey)
				assert.Equal(t, "custom-bucket", cfg.Storage.Bucket)
				assert.Equal(t, true, cfg.Storage.UseSSL)
			},
		},
		{
			name: "redis and login override",
			envVars: map[string]string{
				"REDIS_ADDRESS":      "localhost:6379",
				"REDIS_DB":           "2",
				"LOGIN_MAX_ATTEMPTS": "3",
				"LOGIN_COOLDOWN":     "1m",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "localhost:6379", cfg.Redis.Address)
				assert.Equal(t, 2, cfg.Redis.DB)
				assert.Equal(t, 3, cfg.Login.MaxAttempts)
				assert.Equal(t, time.Minute, cfg.Login.Cooldown)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)

			tt.expected(cfg)
		})
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := NewConfig()
	require.NoError(t, err)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults with secret",
			mutate: func(*Config) {},
		},
		{
			name:    "missing secret",
			mutate:  func(cfg *Config) { cfg.JWT.Secret = "" },
			wantErr: "JWT_SECRET must be set",
		},
		{
			name:    "asymmetric algorithm",
			mutate:  func(cfg *Config) { cfg.JWT.Algorithm = "RS256" },
			wantErr: "not an HMAC algorithm",
		},
		{
			name:    "zero access lifetime",
			mutate:  func(cfg *Config) { cfg.JWT.AccessTokenExpireMinutes = 0 },
			wantErr: "token lifetimes must be positive",
		},
		{
			name:    "unknown samesite",
			mutate:  func(cfg *Config) { cfg.Cookie.SameSite = "loose" },
			wantErr: "must be lax, strict or none",
		},
		{
			name:    "samesite none without secure",
			mutate:  func(cfg *Config) { cfg.Cookie.SameSite = "none" },
			wantErr: "requires secure cookies",
		},
		{
			name: "samesite none in production",
			mutate: func(cfg *Config) {
				cfg.Cookie.SameSite = "none"
				cfg.AppEnv = EnvProduction
			},
		},
		{
			name:    "unknown log format",
			mutate:  func(cfg *Config) { cfg.LogFormat = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_CookieSecure(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name   string
		appEnv string
		secure *bool
		want   bool
	}{
		{name: "development default", appEnv: "development", want: false},
		{name: "production default", appEnv: EnvProduction, want: true},
		{name: "explicit off in production", appEnv: EnvProduction, secure: &no, want: false},
		{name: "explicit on in development", appEnv: "development", secure: &yes, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AppEnv: tt.appEnv, Cookie: Cookie{Secure: tt.secure}}
			assert.Equal(t, tt.want, cfg.CookieSecure())
		})
	}
}

func TestCookie_SameSiteMode(t *testing.T) {
	for value, want := range map[string]http.SameSite{
		"lax":    http.SameSiteLaxMode,
		"Strict": http.SameSiteStrictMode,
		"none":   http.SameSiteNoneMode,
	} {
		got, err := Cookie{SameSite: value}.SameSiteMode()
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}
}
