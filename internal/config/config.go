// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// AdminDatabaseDSN connects with service credentials. Only the final
	// step of account deletion (removing the user record) uses it.
	AdminDatabaseDSN string `json:"admin_database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// JWTSecret signs session tokens.
	JWTSecret string `json:"jwt_secret"`
	// TokenTTL is the lifetime of an issued session token.
	TokenTTL Duration `json:"token_ttl"`
	// SessionIdleTTL drops in-memory sessions nobody touched for this long.
	SessionIdleTTL Duration `json:"session_idle_ttl"`

	// CodecPepper is mixed into the per-user key. Empty keeps the plain
	// account-id keying.
	CodecPepper string `json:"codec_pepper"`
	// CodecFormat selects the write format: "v2" or "legacy".
	CodecFormat string `json:"codec_format"`

	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3PathStyle bool   `json:"s3_path_style"`

	RedisAddr string `json:"redis_addr"`

	// VerifyMaxAttempts bounds failed one-time code submissions per gate
	// within VerifyWindow. Zero means unlimited.
	VerifyMaxAttempts int      `json:"verify_max_attempts"`
	VerifyWindow      Duration `json:"verify_window"`

	TrashRetention         Duration `json:"trash_retention"`
	DeletionResumeInterval Duration `json:"deletion_resume_interval"`

	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url"`

	LogLevel string `json:"log_level"`
}

// Duration is a time.Duration that reads "90s"-style strings from both
// flags and the JSON config file.
type Duration struct {
	time.Duration
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.Set(s)
	}
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	d.Duration = time.Duration(secs) * time.Second
	return nil
}

// options holds the current configuration values.
var options = &Options{
	TokenTTL:               Duration{24 * time.Hour},
	SessionIdleTTL:         Duration{12 * time.Hour},
	VerifyWindow:           Duration{15 * time.Minute},
	TrashRetention:         Duration{30 * 24 * time.Hour},
	DeletionResumeInterval: Duration{10 * time.Minute},
}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.AdminDatabaseDSN, "admin-dsn", "", "db address with service credentials")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.TLSCert, "tls-cert", "", "path to server TLS certificate")
	flag.StringVar(&options.TLSKey, "tls-key", "", "path to server TLS key")
	flag.StringVar(&options.JWTSecret, "jwt-secret", "", "session token signing secret")
	flag.Var(&options.TokenTTL, "token-ttl", "session token lifetime")
	flag.Var(&options.SessionIdleTTL, "session-idle-ttl", "idle session expiry")
	flag.StringVar(&options.CodecPepper, "codec-pepper", "", "deployment-wide secret mixed into field keys")
	flag.StringVar(&options.CodecFormat, "codec-format", "v2", "ciphertext write format: v2 | legacy")
	flag.StringVar(&options.S3Bucket, "s3-bucket", "", "S3 bucket for uploaded files (empty: in-memory)")
	flag.StringVar(&options.S3Region, "s3-region", "us-east-1", "S3 region")
	flag.StringVar(&options.S3Endpoint, "s3-endpoint", "", "custom S3 endpoint (MinIO etc.)")
	flag.BoolVar(&options.S3PathStyle, "s3-path-style", false, "use path-style S3 addressing")
	flag.StringVar(&options.RedisAddr, "redis", "", "redis address for verification attempt counters")
	flag.IntVar(&options.VerifyMaxAttempts, "verify-max-attempts", 0, "failed code submissions allowed per window (0: unlimited)")
	flag.Var(&options.VerifyWindow, "verify-window", "window for verify-max-attempts")
	flag.Var(&options.TrashRetention, "trash-retention", "how long trashed notes are kept")
	flag.Var(&options.DeletionResumeInterval, "deletion-resume-interval", "how often unfinished account deletions are retried")
	flag.StringVar(&options.GoogleClientID, "google-client-id", "", "Google OAuth client id")
	flag.StringVar(&options.GoogleClientSecret, "google-client-secret", "", "Google OAuth client secret")
	flag.StringVar(&options.GoogleRedirectURL, "google-redirect-url", "", "Google OAuth redirect URL")
	flag.StringVar(&options.LogLevel, "log-level", "info", "log level")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
//
// Precedence, lowest first: flag defaults, config file, flags, environment.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			// explicitly set flags win over the file
			explicit := map[string]string{}
			flag.Visit(func(f *flag.Flag) {
				explicit[f.Name] = f.Value.String()
			})

			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}

			for name, value := range explicit {
				_ = flag.Set(name, value)
			}
		}
	}

	applyEnv(options)

	return options
}

func applyEnv(o *Options) {
	envString := map[string]*string{
		"SERVER_ADDRESS":       &o.Port,
		"DATABASE_DSN":         &o.DatabaseDSN,
		"ADMIN_DATABASE_DSN":   &o.AdminDatabaseDSN,
		"JWT_SECRET":           &o.JWTSecret,
		"CODEC_PEPPER":         &o.CodecPepper,
		"CODEC_FORMAT":         &o.CodecFormat,
		"S3_BUCKET":            &o.S3Bucket,
		"S3_REGION":            &o.S3Region,
		"S3_ENDPOINT":          &o.S3Endpoint,
		"REDIS_ADDR":           &o.RedisAddr,
		"GOOGLE_CLIENT_ID":     &o.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": &o.GoogleClientSecret,
		"GOOGLE_REDIRECT_URL":  &o.GoogleRedirectURL,
		"LOG_LEVEL":            &o.LogLevel,
	}
	for name, dst := range envString {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("VERIFY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.VerifyMaxAttempts = n
		}
	}
	if v := os.Getenv("TRASH_RETENTION"); v != "" {
		_ = o.TrashRetention.Set(v)
	}
}
