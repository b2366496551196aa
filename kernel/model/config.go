package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openziti/foundation/v2/errorz"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	ConfigFileName  = "config.yml"
	DefaultPageSize = 50
	MaxPageSize     = 1000
	// MinEC2PageSize is the smallest MaxResults DescribeInstances accepts.
	MinEC2PageSize  = 5
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendHttp   = "http"
	BackendEC2    = "ec2"
)

// BrowserConfig is the on-disk configuration of rbrowse.
type BrowserConfig struct {
	ClusterId     string         `yaml:"clusterId"`
	PageSize      int            `yaml:"pageSize"`
	DefaultKind   ResourceKind   `yaml:"defaultKind"`
	PageCacheSize int            `yaml:"pageCacheSize"`
	Backend       *BackendConfig `yaml:"backend"`
	Kinds         []*KindConfig  `yaml:"kinds"`
	Influx        *InfluxConfig  `yaml:"influx"`
	Listen        string         `yaml:"listen"`
}

type BackendConfig struct {
	Type        string `yaml:"type"`
	DatasetPath string `yaml:"datasetPath"`
	Url         string `yaml:"url"`
	Region      string `yaml:"region"`
}

// KindConfig declares an extra resource kind served by the backend.
type KindConfig struct {
	Name        ResourceKind    `yaml:"name"`
	DefaultSort string          `yaml:"defaultSort"`
	Columns     []*ColumnConfig `yaml:"columns"`
}

type ColumnConfig struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
}

type InfluxConfig struct {
	Url    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to locate home directory")
	}
	return filepath.Join(home, ".rbrowse"), nil
}

func LoadConfig(path string) (*BrowserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config [%s]", path)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*BrowserConfig, error) {
	cfg := &BrowserConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	cfg.CheckAndSetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *BrowserConfig) CheckAndSetDefaults() {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.DefaultKind == "" {
		c.DefaultKind = KindNode
	}
	if c.Backend == nil {
		c.Backend = &BackendConfig{}
	}
	if c.Backend.Type == "" {
		if c.Backend.DatasetPath != "" {
			c.Backend.Type = BackendFile
		} else {
			c.Backend.Type = BackendMemory
		}
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}

// ConfigErrors is every field problem found in one config.
type ConfigErrors []*errorz.FieldError

func (e ConfigErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

func (c *BrowserConfig) Validate() error {
	var errs ConfigErrors
	if c.PageSize < 0 || c.PageSize > MaxPageSize {
		errs = append(errs, errorz.NewFieldError(fmt.Sprintf("must be between 1 and %d", MaxPageSize), "pageSize", c.PageSize))
	}
	if c.PageCacheSize < 0 {
		errs = append(errs, errorz.NewFieldError("must not be negative", "pageCacheSize", c.PageCacheSize))
	}
	if c.Backend != nil {
		switch c.Backend.Type {
		case BackendMemory:
		case BackendFile:
			if c.Backend.DatasetPath == "" {
				errs = append(errs, errorz.NewFieldError("required for the file backend", "backend.datasetPath", ""))
			}
		case BackendHttp:
			if c.Backend.Url == "" {
				errs = append(errs, errorz.NewFieldError("required for the http backend", "backend.url", ""))
			}
		case BackendEC2:
			if c.PageSize > 0 && c.PageSize < MinEC2PageSize {
				errs = append(errs, errorz.NewFieldError(fmt.Sprintf("must be at least %d for the ec2 backend", MinEC2PageSize), "pageSize", c.PageSize))
			}
		default:
			errs = append(errs, errorz.NewFieldError("unknown backend type", "backend.type", c.Backend.Type))
		}
	}
	seen := map[ResourceKind]bool{}
	for i, k := range c.Kinds {
		field := fmt.Sprintf("kinds[%d]", i)
		if k == nil || k.Name == "" {
			errs = append(errs, errorz.NewFieldError("name is required", field+".name", ""))
			continue
		}
		if seen[k.Name] {
			errs = append(errs, errorz.NewFieldError("duplicate kind", field+".name", k.Name))
		}
		seen[k.Name] = true
		if k.DefaultSort != "" {
			if _, err := ParseSort(k.DefaultSort); err != nil {
				errs = append(errs, errorz.NewFieldError(err.Error(), field+".defaultSort", k.DefaultSort))
			}
		}
	}
	if c.Influx != nil && c.Influx.Url != "" && c.Influx.Bucket == "" {
		errs = append(errs, errorz.NewFieldError("required when influx.url is set", "influx.bucket", ""))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
