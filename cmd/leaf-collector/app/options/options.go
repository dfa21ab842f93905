package options

import (
	"fmt"
	"io"
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/leaf/internal/collector"
	"github.com/autopeer-io/leaf/pkg/app"
	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

const defaultListLimit = 20

// ServeOptions configures `leaf-collector serve`.
type ServeOptions struct {
	CollectorID   string                 `json:"collector-id" mapstructure:"collector-id"`
	SQLiteOptions *options.SQLiteOptions `json:"sqlite" mapstructure:"sqlite"`
	HttpOptions   *options.HttpOptions   `json:"http" mapstructure:"http"`
	MqttOptions   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ServeOptions)(nil)

func NewServeOptions() *ServeOptions {
	return &ServeOptions{
		SQLiteOptions: options.NewSQLiteOptions(),
		HttpOptions:   options.NewHttpOptions(":8080"),
		MqttOptions:   options.NewMqttOptions(),
		Log:           log.NewOptions(),
	}
}

func (o *ServeOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fss.FlagSet("collector").StringVar(&o.CollectorID, "collector-id", o.CollectorID,
		"Identity announced on the MQTT status topic. Defaults to leaf-collector-<hostname>.")
	o.SQLiteOptions.AddFlags(fss.FlagSet("sqlite"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ServeOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "leaf-collector"
	}
	if o.CollectorID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown"
		}
		o.CollectorID = "leaf-collector-" + host
	}
	return nil
}

func (o *ServeOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.SQLiteOptions.Validate()...)
	if !o.HttpOptions.Enabled() {
		errs = append(errs, fmt.Errorf("--http.addr is required"))
	}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ServeOptions) Config() (*collector.Config, error) {
	return &collector.Config{
		CollectorID:   o.CollectorID,
		SQLiteOptions: o.SQLiteOptions,
		HttpOptions:   o.HttpOptions,
		MqttOptions:   o.MqttOptions,
	}, nil
}

// ListOptions configures `leaf-collector list`.
type ListOptions struct {
	PlantName     string                 `json:"plant" mapstructure:"plant"`
	Limit         int                    `json:"limit" mapstructure:"limit"`
	SQLiteOptions *options.SQLiteOptions `json:"sqlite" mapstructure:"sqlite"`

	// Out receives the table. Nil means stdout.
	Out io.Writer `json:"-" mapstructure:"-"`
}

var _ app.NamedFlagSetOptions = (*ListOptions)(nil)

func NewListOptions() *ListOptions {
	return &ListOptions{
		Limit:         defaultListLimit,
		SQLiteOptions: options.NewSQLiteOptions(),
	}
}

func (o *ListOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("list")
	fs.StringVar(&o.PlantName, "plant", o.PlantName, "Plant whose readings are listed.")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of readings, newest first.")
	o.SQLiteOptions.AddFlags(fss.FlagSet("sqlite"))
	return fss
}

func (o *ListOptions) Complete() error {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	return nil
}

func (o *ListOptions) Validate() error {
	errs := []error{}
	if o.PlantName == "" {
		errs = append(errs, fmt.Errorf("--plant is required"))
	}
	if o.Limit <= 0 {
		errs = append(errs, fmt.Errorf("--limit must be positive"))
	}
	errs = append(errs, o.SQLiteOptions.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ListOptions) Config() (*collector.Config, error) {
	return &collector.Config{SQLiteOptions: o.SQLiteOptions}, nil
}

// ExportOptions configures `leaf-collector export`.
type ExportOptions struct {
	SQLiteOptions *options.SQLiteOptions `json:"sqlite" mapstructure:"sqlite"`
	S3Options     *options.S3Options     `json:"s3" mapstructure:"s3"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ExportOptions)(nil)

func NewExportOptions() *ExportOptions {
	return &ExportOptions{
		SQLiteOptions: options.NewSQLiteOptions(),
		S3Options:     options.NewS3Options(),
		Log:           log.NewOptions(),
	}
}

func (o *ExportOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.SQLiteOptions.AddFlags(fss.FlagSet("sqlite"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ExportOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "leaf-collector"
	}
	return nil
}

func (o *ExportOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.SQLiteOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ExportOptions) Config() (*collector.Config, error) {
	return &collector.Config{
		SQLiteOptions: o.SQLiteOptions,
		S3Options:     o.S3Options,
	}, nil
}
