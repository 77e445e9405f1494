package filter

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// MaxSizeConfig represents the configuration for MaxSizeFilter.
type MaxSizeConfig struct {
	MaxMegabytes float64 `yaml:"max_megabytes" mapstructure:"max_megabytes" validate:"gte=0"`
}

// MaxSizeFilter rejects files larger than the configured limit.
// A limit of 0 means no limit.
type MaxSizeFilter struct {
	config *MaxSizeConfig
}

// NewMaxSizeFilter creates a new max size filter.
func NewMaxSizeFilter() *MaxSizeFilter {
	return &MaxSizeFilter{}
}

func (f *MaxSizeFilter) Name() string {
	return "max_size_filter"
}

func (f *MaxSizeFilter) Description() string {
	return "Rejects files larger than the configured size limit"
}

func (f *MaxSizeFilter) ReturnCodes() []string {
	return []string{"file_too_large", "empty_file"}
}

func (f *MaxSizeFilter) ValidateConfig(settings map[string]any) error {
	var config MaxSizeConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("max size filter config: %+v", config)
	return nil
}

func (f *MaxSizeFilter) Check(c Candidate) Result {
	if c.Size <= 0 {
		return Reject("empty_file")
	}
	if f.config == nil || f.config.MaxMegabytes == 0 {
		return Accept()
	}

	maxBytes := int64(f.config.MaxMegabytes * 1024 * 1024)
	if c.Size > maxBytes {
		return Reject("file_too_large")
	}
	return Accept()
}

func init() {
	Register("max_size_filter", func() Filter {
		return &MaxSizeFilter{}
	})
}
