package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

// FileConfig configures writing logs to a rotated file instead of stderr.
type FileConfig struct {
	// Path is the log file path. Empty means log to stderr.
	Path string `json:"path" yaml:"path"`

	// MaxSize is the maximum size in megabytes of the log file before it
	// gets rotated.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups is the maximum number of rotated log files to retain.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAge is the maximum number of days to retain rotated log files.
	MaxAge int `json:"max_age" yaml:"max_age"`

	// Compress indicates whether rotated log files should be gzipped.
	Compress bool `json:"compress" yaml:"compress"`
}

func (c *FileConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Path,
		"log.file.path",
		c.Path,
		`
Log file path. If empty, logs are written to stderr.`,
	)
	fs.IntVar(
		&c.MaxSize,
		"log.file.max-size",
		c.MaxSize,
		`
Maximum size in megabytes of the log file before it gets rotated.`,
	)
	fs.IntVar(
		&c.MaxBackups,
		"log.file.max-backups",
		c.MaxBackups,
		`
Maximum number of rotated log files to retain.`,
	)
	fs.IntVar(
		&c.MaxAge,
		"log.file.max-age",
		c.MaxAge,
		`
Maximum number of days to retain rotated log files.`,
	)
	fs.BoolVar(
		&c.Compress,
		"log.file.compress",
		c.Compress,
		`
Whether rotated log files should be compressed.`,
	)
}

type Config struct {
	// Level is the minimum record level to log. Either 'debug', 'info',
	// 'warn' or 'error'.
	Level string `json:"level" yaml:"level"`

	// Subsystems enables debug logging on log records whose 'subsystem'
	// matches one of the given values (overrides `Level`).
	Subsystems []string `json:"subsystems" yaml:"subsystems"`

	File FileConfig `json:"file" yaml:"file"`
}

func (c *Config) Validate() error {
	if c.Level == "" {
		return fmt.Errorf("missing level")
	}
	if _, err := zapLevelFromString(c.Level); err != nil {
		return err
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Level,
		"log.level",
		c.Level,
		`
Minimum log level to output.

The available levels are 'debug', 'info', 'warn' and 'error'.`,
	)
	fs.StringSliceVar(
		&c.Subsystems,
		"log.subsystems",
		c.Subsystems,
		`
Each log has a 'subsystem' field where the log occured.

'--log.subsystems' enables all log levels for those given subsystems. This
can be useful to debug a particular subsystem without having to enable all
debug logs.

Such as you can enable 'rpc' logs with '--log.subsystems rpc'.`,
	)
	c.File.RegisterFlags(fs)
}
