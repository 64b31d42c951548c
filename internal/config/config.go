package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tanq16/chunkr/internal/utils"
)

type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	S3       S3Config       `mapstructure:"s3" yaml:"s3"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type DownloadConfig struct {
	ChunkSize            int64         `mapstructure:"chunk_size" yaml:"chunk_size"`
	FetchConcurrency     int           `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
	KeepAlive            bool          `mapstructure:"keep_alive" yaml:"keep_alive"`
	BlockingTimeout      time.Duration `mapstructure:"blocking_timeout" yaml:"blocking_timeout"`
	SmallFileThreshold   int64         `mapstructure:"small_file_threshold" yaml:"small_file_threshold"`
	SmallFileConcurrency int           `mapstructure:"small_file_concurrency" yaml:"small_file_concurrency"`
	ReadBufferSize       int           `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Headers   []string      `mapstructure:"headers" yaml:"headers"`
	Proxy     string        `mapstructure:"proxy" yaml:"proxy"`
	Token     string        `mapstructure:"token" yaml:"token"`
}

type S3Config struct {
	Profile string `mapstructure:"profile" yaml:"profile"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"chunk-size":        "download.chunk_size",
	"concurrency":       "download.fetch_concurrency",
	"keep-alive":        "download.keep_alive",
	"blocking-timeout":  "download.blocking_timeout",
	"small-threshold":   "download.small_file_threshold",
	"small-concurrency": "download.small_file_concurrency",
	"buffer-size":       "download.read_buffer_size",
	"timeout":           "http.timeout",
	"user-agent":        "http.user_agent",
	"header":            "http.headers",
	"proxy":             "http.proxy",
	"token":             "http.token",
	"profile":           "s3.profile",
	"debug":             "log.debug",
}

// Load resolves configuration from defaults, an optional YAML file at path,
// CHUNKR_ environment variables and flags, in increasing precedence.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetDefault("download.chunk_size", utils.DefaultChunkSize)
	v.SetDefault("download.fetch_concurrency", utils.DefaultFetchConcurrency)
	v.SetDefault("download.keep_alive", false)
	v.SetDefault("download.blocking_timeout", utils.DefaultBlockingTimeout)
	v.SetDefault("download.small_file_threshold", utils.DefaultSmallFileThreshold)
	v.SetDefault("download.small_file_concurrency", utils.DefaultSmallFileConcurrency)
	v.SetDefault("download.read_buffer_size", utils.DefaultReadBufferSize)
	v.SetDefault("http.timeout", utils.DefaultHTTPTimeout)
	v.SetDefault("http.user_agent", utils.ToolUserAgent)
	v.SetDefault("http.headers", []string{})
	v.SetDefault("http.proxy", "")
	v.SetDefault("http.token", "")
	v.SetDefault("s3.profile", "default")
	v.SetDefault("log.debug", false)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("CHUNKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidConfiguration, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	d := c.Download
	switch {
	case d.ChunkSize <= 0:
		return fmt.Errorf("%w: download.chunk_size must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.ChunkSize)
	case d.FetchConcurrency <= 0:
		return fmt.Errorf("%w: download.fetch_concurrency must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.FetchConcurrency)
	case d.SmallFileConcurrency <= 0:
		return fmt.Errorf("%w: download.small_file_concurrency must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.SmallFileConcurrency)
	case d.ReadBufferSize <= 0:
		return fmt.Errorf("%w: download.read_buffer_size must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.ReadBufferSize)
	case d.SmallFileThreshold < 0:
		return fmt.Errorf("%w: download.small_file_threshold can't be negative", utils.ErrInvalidConfiguration)
	case d.BlockingTimeout < 0 || c.HTTP.Timeout < 0:
		return fmt.Errorf("%w: timeouts can't be negative", utils.ErrInvalidConfiguration)
	}
	if c.HTTP.Proxy != "" {
		if _, err := url.Parse(c.HTTP.Proxy); err != nil {
			return fmt.Errorf("%w: invalid proxy url: %v", utils.ErrInvalidConfiguration, err)
		}
	}
	return nil
}

// HTTPClientConfig builds the client used by the segmented path.
func (c *Config) HTTPClientConfig() utils.HTTPClientConfig {
	cfg := utils.HTTPClientConfig{
		Timeout:   c.HTTP.Timeout,
		KeepAlive: c.Download.KeepAlive,
		UserAgent: c.HTTP.UserAgent,
		Headers:   utils.ParseHeaderArgs(c.HTTP.Headers),
		Token:     c.HTTP.Token,
	}
	if c.HTTP.Proxy != "" {
		if parsed, err := url.Parse(c.HTTP.Proxy); err == nil && parsed.User != nil {
			cfg.ProxyUsername = parsed.User.Username()
			cfg.ProxyPassword, _ = parsed.User.Password()
			parsed.User = nil
			cfg.ProxyURL = parsed.String()
		} else {
			cfg.ProxyURL = c.HTTP.Proxy
		}
	}
	return cfg
}

// WholeFileClientConfig is HTTPClientConfig with the blocking timeout that
// bounds single-request downloads.
func (c *Config) WholeFileClientConfig() utils.HTTPClientConfig {
	cfg := c.HTTPClientConfig()
	cfg.Timeout = c.Download.BlockingTimeout
	return cfg
}
