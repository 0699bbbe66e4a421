package repo

import (
	"fmt"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/log"
)

// Config is the repository configuration file model.
type Config struct {
	Repo struct {
		Data struct {
			// Prefixes to serve reads under. When empty, prefixes of
			// inserted data are registered automatically.
			Prefixes []string `yaml:"prefixes"`
		} `yaml:"data"`
		Command struct {
			// Prefixes the command protocol listens under.
			Prefixes []string `yaml:"prefixes"`
		} `yaml:"command"`
		TcpBulkInsert struct {
			Host string `yaml:"host"`
			Port uint16 `yaml:"port"`
		} `yaml:"tcp_bulk_insert"`
		Storage struct {
			// Method selects the engine: sqlite, badger or memory.
			Method string `yaml:"method"`
			Path   string `yaml:"path"`
			// MaxPackets caps the number of stored packets.
			MaxPackets int64 `yaml:"max_packets"`
		} `yaml:"storage"`
		// RegistrationSubset bounds auto-registered prefixes to this
		// many components; zero or less uses the name without digest.
		RegistrationSubset int `yaml:"registration_subset"`
		Validator          struct {
			// Type selects the policy: accept-all or fixed-signer.
			Type    string `yaml:"type"`
			KeyFile string `yaml:"key_file"`
		} `yaml:"validator"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"repo"`
	Face struct {
		// Transport URI of the local forwarder.
		Transport string `yaml:"transport"`
	} `yaml:"face"`

	dataPrefixes    []enc.Name
	commandPrefixes []enc.Name
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Repo.TcpBulkInsert.Host = "localhost"
	c.Repo.TcpBulkInsert.Port = 7376
	c.Repo.Storage.Method = "sqlite"
	c.Repo.Storage.Path = "/var/lib/repo-go"
	c.Repo.Storage.MaxPackets = 100000
	c.Repo.Validator.Type = "accept-all"
	c.Repo.LogLevel = "INFO"
	c.Face.Transport = "unix:///run/nfd/nfd.sock"
	return c
}

// Parse validates the configuration and canonicalizes the prefixes.
func (c *Config) Parse() error {
	if len(c.Repo.Command.Prefixes) == 0 {
		return fmt.Errorf("no command prefix configured")
	}

	switch c.Repo.Storage.Method {
	case "sqlite", "badger", "memory":
	default:
		return fmt.Errorf("unsupported storage method %q", c.Repo.Storage.Method)
	}
	if c.Repo.Storage.MaxPackets <= 0 {
		return fmt.Errorf("storage.max_packets must be positive")
	}

	switch c.Repo.Validator.Type {
	case "accept-all":
	case "fixed-signer":
		if c.Repo.Validator.KeyFile == "" {
			return fmt.Errorf("fixed-signer validator needs a key_file")
		}
	default:
		return fmt.Errorf("unsupported validator type %q", c.Repo.Validator.Type)
	}

	if _, err := log.ParseLevel(c.Repo.LogLevel); err != nil {
		return err
	}

	c.dataPrefixes = c.dataPrefixes[:0]
	for _, s := range c.Repo.Data.Prefixes {
		name, err := enc.NameFromStr(s)
		if err != nil {
			return fmt.Errorf("invalid data prefix %q: %w", s, err)
		}
		c.dataPrefixes = append(c.dataPrefixes, name)
	}

	c.commandPrefixes = c.commandPrefixes[:0]
	for _, s := range c.Repo.Command.Prefixes {
		name, err := enc.NameFromStr(s)
		if err != nil {
			return fmt.Errorf("invalid command prefix %q: %w", s, err)
		}
		c.commandPrefixes = append(c.commandPrefixes, name)
	}

	return nil
}

func (c *Config) DataPrefixes() []enc.Name {
	return c.dataPrefixes
}

func (c *Config) CommandPrefixes() []enc.Name {
	return c.commandPrefixes
}
