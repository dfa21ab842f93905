package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SQLiteOptions)(nil)

// SQLiteOptions configures the collector's reading store.
type SQLiteOptions struct {
	// Path is the database file; it is created on first use.
	Path string `json:"path" mapstructure:"path"`

	// BusyTimeout is passed to sqlite as busy_timeout.
	BusyTimeout time.Duration `json:"busy-timeout" mapstructure:"busy-timeout"`
}

// NewSQLiteOptions creates a SQLiteOptions object with default parameters.
func NewSQLiteOptions() *SQLiteOptions {
	return &SQLiteOptions{
		Path:        "data/plants.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SQLiteOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Path == "" {
		errs = append(errs, fmt.Errorf("--sqlite.path is required"))
	}
	if o.BusyTimeout < 0 {
		errs = append(errs, fmt.Errorf("--sqlite.busy-timeout must not be negative"))
	}
	return errs
}

// AddFlags adds flags for SQLiteOptions to the specified FlagSet.
func (o *SQLiteOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, "sqlite.path", o.Path, "Path of the sqlite database file.")
	fs.DurationVar(&o.BusyTimeout, "sqlite.busy-timeout", o.BusyTimeout, "How long sqlite waits on a locked database.")
}

// DSN returns the driver connection string.
func (o *SQLiteOptions) DSN() string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", o.Path, o.BusyTimeout.Milliseconds())
}
