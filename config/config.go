package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/remiges-tech/rigel"
	"github.com/remiges-tech/rigel/etcd"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	DefaultPort                  = 3000
	DefaultUploadDir             = "uploads"
	DefaultMaxUploadBytes        = 5 * 1024 * 1024
	DefaultRequestTimeoutSeconds = 60
	DefaultMetricsPath           = "/metrics"
)

// DefaultFilePatterns are the upload name patterns accepted when none are configured.
var DefaultFilePatterns = []string{"*.csv"}

// AppConfig is the configuration of the analysis service.
type AppConfig struct {
	AppServerPort         int      `json:"app_server_port"`
	UploadDir             string   `json:"upload_dir"`
	MaxUploadBytes        int64    `json:"max_upload_bytes"`
	AllowedFilePatterns   []string `json:"allowed_file_patterns"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	LogPriority           string   `json:"log_priority"`
	MetricsPath           string   `json:"metrics_path"`
}

// Validate fills unset fields with defaults and rejects values the service
// cannot run with.
func (c *AppConfig) Validate() error {
	if c.AppServerPort < 0 || c.AppServerPort > 65535 {
		return fmt.Errorf("app_server_port out of range: %d", c.AppServerPort)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must not be negative: %d", c.MaxUploadBytes)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative: %d", c.RequestTimeoutSeconds)
	}

	if c.AppServerPort == 0 {
		c.AppServerPort = DefaultPort
	}
	if c.UploadDir == "" {
		c.UploadDir = DefaultUploadDir
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(c.AllowedFilePatterns) == 0 {
		c.AllowedFilePatterns = append([]string(nil), DefaultFilePatterns...)
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metrics_path must start with '/': %q", c.MetricsPath)
	}

	for _, p := range c.AllowedFilePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid file pattern %q", p)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Config is a source from which the application configuration can be loaded.
type Config interface {
	LoadConfig(c *AppConfig) error
	Check() error
}

// Load first ensures that the config source is valid and accessible. Then it
// loads the config into c and validates it.
func Load(cs Config, c *AppConfig) error {
	if err := cs.Check(); err != nil {
		return err
	}
	if err := cs.LoadConfig(c); err != nil {
		return err
	}
	return c.Validate()
}

// File

type File struct {
	ConfigFilePath string
}

func (f *File) Check() error {
	if f.ConfigFilePath == "" {
		return fmt.Errorf("configFilePath cannot be empty")
	}
	return nil
}

func (f *File) LoadConfig(appConfig *AppConfig) error {
	file, err := os.Open(f.ConfigFilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	return decoder.Decode(appConfig)
}

// Rigel

// Rigel key names. The schema defines defaults for every key.
const (
	KeyServerPort     = "server.port"
	KeyUploadDir      = "upload.dir"
	KeyUploadMaxBytes = "upload.max_bytes"
	KeyUploadPatterns = "upload.allowed_patterns"
	KeyRequestTimeout = "server.request_timeout_seconds"
	KeyLogPriority    = "log.priority"
	KeyMetricsPath    = "metrics.path"
)

const (
	rigelLoadTimeout  = 5 * time.Second
	etcdDialTimeout   = 5 * time.Second
	patternsSeparator = ","
)

// Getter is the part of the rigel client that LoadConfig needs.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
	GetInt(ctx context.Context, key string) (int, error)
}

type Rigel struct {
	Client Getter
}

func (r *Rigel) Check() error {
	if r.Client == nil {
		return errors.New("rigel client cannot be nil")
	}
	return nil
}

func (r *Rigel) LoadConfig(c *AppConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), rigelLoadTimeout)
	defer cancel()

	var err error
	if c.AppServerPort, err = r.Client.GetInt(ctx, KeyServerPort); err != nil {
		return keyError(KeyServerPort, err)
	}
	if c.UploadDir, err = r.Client.Get(ctx, KeyUploadDir); err != nil {
		return keyError(KeyUploadDir, err)
	}
	maxBytes, err := r.Client.GetInt(ctx, KeyUploadMaxBytes)
	if err != nil {
		return keyError(KeyUploadMaxBytes, err)
	}
	c.MaxUploadBytes = int64(maxBytes)

	patterns, err := r.Client.Get(ctx, KeyUploadPatterns)
	if err != nil {
		return keyError(KeyUploadPatterns, err)
	}
	c.AllowedFilePatterns = splitPatterns(patterns)

	if c.RequestTimeoutSeconds, err = r.Client.GetInt(ctx, KeyRequestTimeout); err != nil {
		return keyError(KeyRequestTimeout, err)
	}
	if c.LogPriority, err = r.Client.Get(ctx, KeyLogPriority); err != nil {
		return keyError(KeyLogPriority, err)
	}
	if c.MetricsPath, err = r.Client.Get(ctx, KeyMetricsPath); err != nil {
		return keyError(KeyMetricsPath, err)
	}
	return nil
}

func keyError(key string, err error) error {
	return fmt.Errorf("rigel key %s: %w", key, err)
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, patternsSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewRigelClient connects to etcd and returns a rigel client bound to the
// given schema and config, together with the etcd client so the caller can
// close it.
func NewRigelClient(etcdEndpoints, app, module string, version int, configName string) (*rigel.Rigel, *clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(etcdEndpoints, ","),
		DialTimeout: etcdDialTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	etcdStorage := &etcd.EtcdStorage{Client: cli}
	return rigel.New(etcdStorage, app, module, version, configName), cli, nil
}
