package config

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SeedPool describes a pool created (and optionally funded) at startup.
type SeedPool struct {
	AssetA   string `yaml:"asset_a"`
	AssetB   string `yaml:"asset_b"`
	ReserveA uint64 `yaml:"reserve_a"`
	ReserveB uint64 `yaml:"reserve_b"`
}

// Config is the full runtime configuration.
type Config struct {
	Listen         string     `yaml:"listen"`
	PoolWALDir     string     `yaml:"pool_wal_dir"`
	TransferWALDir string     `yaml:"transfer_wal_dir"`
	Pools          []SeedPool `yaml:"pools,omitempty"`
}

const (
	defaultListen         = ":8080"
	defaultPoolWALDir     = "./wal/pools"
	defaultTransferWALDir = "./wal/transfers"
)

// Get reads configuration from the yaml file given with -config, falling
// back to CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", defaultListen, "http listen address")
	poolWALDir := flag.String("pool-wal-dir", defaultPoolWALDir, "pool WAL directory")
	transferWALDir := flag.String("transfer-wal-dir", defaultTransferWALDir, "transfer journal WAL directory")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return Config{
		Listen:         *listen,
		PoolWALDir:     *poolWALDir,
		TransferWALDir: *transferWALDir,
	}, nil
}

func getYaml(path string) (Config, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	cfg := Config{
		Listen:         defaultListen,
		PoolWALDir:     defaultPoolWALDir,
		TransferWALDir: defaultTransferWALDir,
	}
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config file")
	}

	for _, pool := range cfg.Pools {
		if pool.AssetA == "" || pool.AssetB == "" {
			return Config{}, errors.Errorf("seed pool with empty asset: %+v", pool)
		}
	}

	return cfg, nil
}

// Write saves the configuration as yaml (used by the setup wizard).
func (c Config) Write(path string) error {
	payload, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}
