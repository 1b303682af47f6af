package keras

import (
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/tsawler/go-keras/bridge"
)

// Backends
const (
	BackendLocal  = "local"
	BackendWorker = "worker"
)

// Environment variables read by ConfigFromEnv
const (
	EnvBackend    = "KERAS_BRIDGE_BACKEND"
	EnvModuleRoot = "KERAS_BRIDGE_MODULE_ROOT"
	EnvDataFormat = "KERAS_BRIDGE_DATA_FORMAT"
	EnvWorker     = "KERAS_BRIDGE_WORKER"
)

// Config contains configuration for a Runtime
type Config struct {
	Backend    string              `json:"backend"`     // "local" or "worker"
	ModuleRoot string              `json:"module_root"` // e.g. "tensorflow.keras" or "keras"
	DataFormat string              `json:"data_format"` // applied to layers that leave it unset
	Worker     bridge.WorkerConfig `json:"worker"`

	// Logger receives runtime messages. nil uses the standard logger.
	Logger *log.Logger `json:"-"`
}

// DefaultConfig returns the default configuration: the in-process runtime
// rooted at tensorflow.keras
func DefaultConfig() Config {
	return Config{
		Backend:    BackendLocal,
		ModuleRoot: "tensorflow.keras",
		DataFormat: "",
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendWorker:
		if err := c.Worker.Validate(); err != nil {
			return errors.Wrap(err, "invalid worker configuration")
		}
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}

	if strings.TrimSpace(c.ModuleRoot) == "" {
		return errors.New("module root is required")
	}

	switch c.DataFormat {
	case "", "channels_first", "channels_last":
	default:
		return errors.Errorf("unknown data format %q", c.DataFormat)
	}
	return nil
}

// ConfigFromEnv returns DefaultConfig overridden by the KERAS_BRIDGE_*
// environment variables. KERAS_BRIDGE_WORKER holds the worker command line,
// split on whitespace.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv(EnvModuleRoot); v != "" {
		cfg.ModuleRoot = v
	}
	if v := os.Getenv(EnvDataFormat); v != "" {
		cfg.DataFormat = v
	}
	if fields := strings.Fields(os.Getenv(EnvWorker)); len(fields) > 0 {
		cfg.Worker.Command = fields[0]
		cfg.Worker.Args = fields[1:]
	}
	return cfg, cfg.Validate()
}
