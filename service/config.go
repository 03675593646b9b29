package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

const EnvPrefix = "MURMUR3D"

// Config of the hash server, read from MURMUR3D_* environment variables.
type Config struct {
	Addr          string        `envconfig:"ADDR" default:":18000"`
	LogPath       string        `envconfig:"LOG_PATH"`
	Daemon        bool          `envconfig:"DAEMON" default:"false"`
	Seed          string        `envconfig:"SEED"` // empty: random per process
	Algorithm     string        `envconfig:"ALGORITHM" default:"murmur3"`
	SocketTimeout time.Duration `envconfig:"SOCKET_TIMEOUT" default:"5s"`
	MaxFrameSize  int32         `envconfig:"MAX_FRAME_SIZE" default:"268435456"`
	ColorLog      bool          `envconfig:"COLOR_LOG" default:"false"`
}

// LoadConfig loads the given .env files that exist, then reads the
// environment. Variables already set win over .env entries.
func LoadConfig(envFiles ...string) (*Config, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}
	conf := &Config{}
	if err := envconfig.Process(EnvPrefix, conf); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("invalid address")
	}
	if _, err := hashkit.LookupAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if _, err := c.SeedSource(); err != nil {
		return err
	}
	return nil
}

// SeedSource returns the fixed seed when one is configured, the random
// source otherwise.
func (c *Config) SeedSource() (hashkit.SeedSource, error) {
	return hashkit.ParseSeed(c.Seed)
}

// Builder returns the hasher builder of the configured algorithm.
func (c *Config) Builder() (hashkit.BuildHasher, error) {
	factory, err := hashkit.LookupAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	src, err := c.SeedSource()
	if err != nil {
		return nil, err
	}
	return factory(src), nil
}

func (c *Config) ThriftConf() *thrift.TConfiguration {
	return &thrift.TConfiguration{
		ConnectTimeout:     c.SocketTimeout,
		SocketTimeout:      c.SocketTimeout,
		MaxFrameSize:       c.MaxFrameSize,
		TBinaryStrictRead:  thrift.BoolPtr(true),
		TBinaryStrictWrite: thrift.BoolPtr(true),
	}
}
