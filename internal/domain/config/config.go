package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainerr "aiwen/internal/domain/errors"
)

type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Source SourceConfig `yaml:"source"`
	Remote RemoteConfig `yaml:"remote"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
	Index  IndexConfig  `yaml:"index"`
	Serve  ServeConfig  `yaml:"serve"`
}

type SiteConfig struct {
	Title    string `yaml:"title"`
	Language string `yaml:"language"`
}

type SourceMode string

const (
	SourceRemote SourceMode = "remote"
	SourceLocal  SourceMode = "local"
)

type SourceConfig struct {
	Mode SourceMode `yaml:"mode"`
	// Mode == local 时的内容根目录（与远端仓库同样的目录约定）
	Dir string `yaml:"dir"`
}

type RemoteConfig struct {
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Ref     string `yaml:"ref"`
	APIBase string `yaml:"api_base"`
	// token 只从环境变量读，避免写进配置文件
	TokenEnv string `yaml:"token_env"`
}

type CacheConfig struct {
	Capacity   int `yaml:"capacity"`
	TTLMinutes int `yaml:"ttl_minutes"`
}

type RenderConfig struct {
	Sanitize bool `yaml:"sanitize"`
}

type IndexConfig struct {
	Path string `yaml:"path"`
}

type ServeConfig struct {
	Addr      string `yaml:"addr"`
	AccessKey string `yaml:"access_key"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "aiwen",
			Language: "zh-CN",
		},
		Source: SourceConfig{
			Mode: SourceRemote,
		},
		Remote: RemoteConfig{
			Ref:      "main",
			APIBase:  "https://api.github.com",
			TokenEnv: "GITHUB_TOKEN",
		},
		Cache: CacheConfig{
			Capacity:   4096,
			TTLMinutes: 15,
		},
		Index: IndexConfig{
			Path: ".aiwen/index.db",
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}

	switch c.Source.Mode {
	case SourceRemote:
		if strings.TrimSpace(c.Remote.Owner) == "" {
			ve.Add("remote.owner", "must not be empty in remote mode")
		}
		if strings.TrimSpace(c.Remote.Repo) == "" {
			ve.Add("remote.repo", "must not be empty in remote mode")
		}
	case SourceLocal:
		if strings.TrimSpace(c.Source.Dir) == "" {
			ve.Add("source.dir", "must not be empty in local mode")
		}
	default:
		ve.Add("source.mode", "must be 'remote' or 'local'")
	}

	if c.Cache.Capacity <= 0 {
		ve.Add("cache.capacity", "must be positive")
	}
	if c.Cache.TTLMinutes <= 0 {
		ve.Add("cache.ttl_minutes", "must be positive")
	}

	if strings.TrimSpace(c.Index.Path) == "" {
		ve.Add("index.path", "must not be empty")
	}
	if strings.TrimSpace(c.Serve.Addr) == "" {
		ve.Add("serve.addr", "must not be empty")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

// TTL 把配置里的分钟数转成 time.Duration。
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Token 按 token_env 指向的环境变量取 API token，可能为空。
func (c RemoteConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	// 直接 Unmarshal 到 cfg 上：文件中写到的字段覆盖默认值，其他字段保留 Default
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault 在配置文件不存在时退回默认配置（默认 remote 模式
// 缺 owner/repo 会在 Validate 里报出来）。
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(err) {
		cfg = Default()
		if verr := cfg.Validate(); verr != nil {
			return cfg, verr
		}
		return cfg, nil
	}
	return cfg, err
}
