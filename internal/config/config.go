// Package config resolves the tracker's settings from flags, environment
// variables, an optional config file and built-in defaults, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/followtrack/internal/fingerprint"
	"github.com/FranksOps/followtrack/internal/publish"
	"github.com/FranksOps/followtrack/internal/scraper"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// History backends.
const (
	BackendJSON     = "json"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Keys double as environment variable names once upper-cased.
const (
	keyHandles         = "target_username"
	keyHistoryBackend  = "history_backend"
	keyHistoryPath     = "history_path"
	keyHistoryDSN      = "history_dsn"
	keyPublisher       = "publisher"
	keyXBearerToken    = "x_bearer_token"
	keyXAPIURL         = "x_api_url"
	keyWebhookURL      = "webhook_url"
	keyFailureNotice   = "publish_failure_notice"
	keyNitterInstances = "nitter_instances"
	keySocialBladeURL  = "socialblade_url"
	keyFingerprint     = "fingerprint"
	keyProxyFile       = "proxy_file"
	keyRespectRobots   = "respect_robots"
	keyRequestDelay    = "request_delay"
	keyMetricsTextfile = "metrics_textfile"
	keyLogLevel        = "log_level"
	keyLogFormat       = "log_format"
	keyDryRun          = "dry_run"
)

// Config holds the resolved settings of a run.
type Config struct {
	Handles        []string
	HistoryBackend string
	// HistoryPath is the file path of the json and csv backends and the
	// DSN of the sqlite backend.
	HistoryPath string
	HistoryDSN  string

	Publisher            string
	XBearerToken         string
	XAPIURL              string
	WebhookURL           string
	PublishFailureNotice bool

	NitterInstances []string
	// SocialBladeURL empty disables the SocialBlade source.
	SocialBladeURL string
	Fingerprint    string
	ProxyFile      string
	RespectRobots  bool
	RequestDelay   time.Duration

	MetricsTextfile string
	LogLevel        string
	LogFormat       string
	DryRun          bool
}

type option struct {
	key   string
	flag  string
	def   any
	usage string
}

var options = []option{
	{keyHandles, "handle", "elonmusk", "handle(s) to track, comma separated"},
	{keyHistoryBackend, "backend", BackendJSON, "history backend: json, csv, sqlite or postgres"},
	{keyHistoryPath, "history", "follower_data.json", "history file path (sqlite: DSN)"},
	{keyHistoryDSN, "dsn", "", "postgres DSN for the postgres backend"},
	{keyPublisher, "publisher", publish.KindX, "publisher: x, webhook or stdout"},
	{keyXAPIURL, "x-api-url", publish.DefaultXAPIURL, "X API base URL"},
	{keyWebhookURL, "webhook-url", "", "webhook endpoint for the webhook publisher"},
	{keyFailureNotice, "failure-notice", false, "publish a notice when no follower count could be read"},
	{keyNitterInstances, "nitter", strings.Join(scraper.DefaultNitterInstances, ","), "Nitter instances in priority order, comma separated"},
	{keySocialBladeURL, "socialblade-url", scraper.DefaultSocialBladeURL, "SocialBlade base URL, empty disables it"},
	{keyFingerprint, "fingerprint", string(fingerprint.ProfileChrome), "TLS fingerprint: chrome, firefox, safari, go or random"},
	{keyProxyFile, "proxy-file", "", "file with one proxy URL per line"},
	{keyRespectRobots, "respect-robots", false, "consult robots.txt before fetching"},
	{keyRequestDelay, "request-delay", time.Duration(0), "pause between source attempts"},
	{keyMetricsTextfile, "metrics-textfile", "", "write prometheus metrics to this textfile"},
	{keyLogLevel, "log-level", "info", "log level: debug, info, warn or error"},
	{keyLogFormat, "log-format", "text", "log format: text or json"},
	{keyDryRun, "dry-run", false, "print posts instead of publishing them"},
}

// Bind registers one flag per setting on fs and wires flags, environment
// variables and defaults into v. The X credential is only read from the
// environment or the config file.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	for _, o := range options {
		v.SetDefault(o.key, o.def)
		switch def := o.def.(type) {
		case string:
			fs.String(o.flag, def, o.usage)
		case bool:
			fs.Bool(o.flag, def, o.usage)
		case time.Duration:
			fs.Duration(o.flag, def, o.usage)
		default:
			return fmt.Errorf("config: unsupported default %T for %s", o.def, o.key)
		}
		if err := v.BindPFlag(o.key, fs.Lookup(o.flag)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", o.flag, err)
		}
	}

	if err := v.BindEnv(keyXBearerToken, "X_BEARER_TOKEN", "TWITTER_BEARER_TOKEN"); err != nil {
		return fmt.Errorf("config: bind env: %w", err)
	}
	return nil
}

// ReadFile merges a yaml, toml or json config file into v. Its keys are the
// lower-cased environment variable names.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Load resolves a Config from v. DryRun forces the stdout publisher.
func Load(v *viper.Viper) *Config {
	cfg := &Config{
		Handles:              ParseHandles(v.GetString(keyHandles)),
		HistoryBackend:       strings.ToLower(strings.TrimSpace(v.GetString(keyHistoryBackend))),
		HistoryPath:          v.GetString(keyHistoryPath),
		HistoryDSN:           v.GetString(keyHistoryDSN),
		Publisher:            strings.ToLower(strings.TrimSpace(v.GetString(keyPublisher))),
		XBearerToken:         strings.TrimSpace(v.GetString(keyXBearerToken)),
		XAPIURL:              v.GetString(keyXAPIURL),
		WebhookURL:           v.GetString(keyWebhookURL),
		PublishFailureNotice: v.GetBool(keyFailureNotice),
		NitterInstances:      splitList(v.GetString(keyNitterInstances)),
		SocialBladeURL:       strings.TrimSpace(v.GetString(keySocialBladeURL)),
		Fingerprint:          v.GetString(keyFingerprint),
		ProxyFile:            v.GetString(keyProxyFile),
		RespectRobots:        v.GetBool(keyRespectRobots),
		RequestDelay:         v.GetDuration(keyRequestDelay),
		MetricsTextfile:      v.GetString(keyMetricsTextfile),
		LogLevel:             v.GetString(keyLogLevel),
		LogFormat:            strings.ToLower(v.GetString(keyLogFormat)),
		DryRun:               v.GetBool(keyDryRun),
	}
	if cfg.DryRun {
		cfg.Publisher = publish.KindStdout
	}
	return cfg
}

// Validate reports every invalid setting at once. Missing publisher
// credentials are not an error here: the run still saves history and fails
// at publish time.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Handles) == 0 {
		errs = append(errs, errors.New("no handle configured (TARGET_USERNAME)"))
	}

	switch c.HistoryBackend {
	case BackendJSON, BackendCSV, BackendSQLite:
		if c.HistoryPath == "" {
			errs = append(errs, fmt.Errorf("HISTORY_PATH is required for the %s backend", c.HistoryBackend))
		}
	case BackendPostgres:
		if c.HistoryDSN == "" {
			errs = append(errs, errors.New("HISTORY_DSN is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend))
	}

	switch c.Publisher {
	case publish.KindX:
		if err := checkURL(c.XAPIURL); err != nil {
			errs = append(errs, fmt.Errorf("X_API_URL: %w", err))
		}
	case publish.KindWebhook:
		if c.WebhookURL != "" {
			if err := checkURL(c.WebhookURL); err != nil {
				errs = append(errs, fmt.Errorf("WEBHOOK_URL: %w", err))
			}
		}
	case publish.KindStdout:
	default:
		errs = append(errs, fmt.Errorf("unknown PUBLISHER %q", c.Publisher))
	}

	if len(c.NitterInstances) == 0 && c.SocialBladeURL == "" {
		errs = append(errs, errors.New("no follower source configured (NITTER_INSTANCES, SOCIALBLADE_URL)"))
	}
	for _, instance := range c.NitterInstances {
		if err := checkURL(instance); err != nil {
			errs = append(errs, fmt.Errorf("NITTER_INSTANCES: %w", err))
		}
	}
	if c.SocialBladeURL != "" {
		if err := checkURL(c.SocialBladeURL); err != nil {
			errs = append(errs, fmt.Errorf("SOCIALBLADE_URL: %w", err))
		}
	}

	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		errs = append(errs, err)
	}
	if c.RequestDelay < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_DELAY must not be negative, got %v", c.RequestDelay))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseHandles splits a comma separated handle list, strips leading '@'
// and drops blanks and duplicates.
func ParseHandles(s string) []string {
	seen := make(map[string]bool)
	var handles []string
	for _, h := range splitList(s) {
		h = strings.TrimLeft(h, "@")
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		handles = append(handles, h)
	}
	return handles
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
