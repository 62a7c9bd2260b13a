package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".memscan"
	configFile string = "config.yml"

	// HistoryFile is the name of the terminal history file, inside the
	// configuration directory.
	HistoryFile string = ".memscan_history"
)

// Defaults used when the configuration file leaves an option unset.
const (
	DefaultValueType         = "int32"
	DefaultByteOrder         = "little"
	DefaultMonitorInterval   = 100 * time.Millisecond
	DefaultMaxListCandidates = 20
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// Element type searched for, one of int8...int64, uint8...uint64,
	// float32 and float64.
	ValueType string `yaml:"value-type,omitempty"`
	// Byte order of the target, "little" or "big".
	ByteOrder string `yaml:"byte-order,omitempty"`

	// Time between two reads of a monitored address.
	MonitorInterval time.Duration `yaml:"monitor-interval,omitempty"`

	// Maximum number of candidates printed by the list command.
	MaxListCandidates *int `yaml:"max-list-candidates,omitempty"`

	// path is the file the configuration was read from.
	path string
}

// GetValueType returns the configured element type or the default one.
func (c *Config) GetValueType() string {
	if c == nil || c.ValueType == "" {
		return DefaultValueType
	}
	return c.ValueType
}

// GetByteOrder returns the configured byte order or the default one.
func (c *Config) GetByteOrder() string {
	if c == nil || c.ByteOrder == "" {
		return DefaultByteOrder
	}
	return c.ByteOrder
}

// GetMonitorInterval returns the configured monitor interval or the default
// one.
func (c *Config) GetMonitorInterval() time.Duration {
	if c == nil || c.MonitorInterval <= 0 {
		return DefaultMonitorInterval
	}
	return c.MonitorInterval
}

// GetMaxListCandidates returns the configured limit of the list command
// or the default one.
func (c *Config) GetMaxListCandidates() int {
	if c == nil || c.MaxListCandidates == nil {
		return DefaultMaxListCandidates
	}
	return *c.MaxListCandidates
}

// LoadConfig attempts to populate a Config object from the config.yml file.
// The file, and the directory containing it, are created with the default
// contents if they don't exist.
func LoadConfig() (*Config, error) {
	err := createConfigPath()
	if err != nil {
		return &Config{}, fmt.Errorf("could not create config directory: %v", err)
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to get config file path: %v", err)
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return &Config{}, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer f.Close()
	return decode(f, fullConfigFile)
}

// LoadConfigFrom reads the configuration from the file at path. Unlike
// LoadConfig a missing file is an error.
func LoadConfigFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Config{}, err
	}
	defer f.Close()
	return decode(f, path)
}

func decode(r io.Reader, path string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.UnmarshalStrict(data, &c)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to decode config file: %v", err)
	}
	c.path = path
	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk, to the file it was loaded from if any.
func SaveConfig(conf *Config) error {
	fullConfigFile := conf.path
	if fullConfigFile == "" {
		var err error
		fullConfigFile, err = GetConfigFilePath(configFile)
		if err != nil {
			return err
		}
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f io.Writer) error {
	_, err := io.WriteString(f,
		`# Configuration file for memscan.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Type of the value to search for: int8, int16, int32, int64, uint8, uint16,
# uint32, uint64, float32 or float64. The --type flag overrides this.
# value-type: int32

# Byte order of the target process: little or big.
# byte-order: little

# Time between two reads of the value once a single address is left.
# monitor-interval: 100ms

# Maximum number of candidate addresses printed by the list command.
# max-list-candidates: 20

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	if configPath := os.Getenv("MEMSCAN_CONFIG_DIR"); configPath != "" {
		return path.Join(configPath, file), nil
	}

	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}
