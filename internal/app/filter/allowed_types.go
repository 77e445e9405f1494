package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// AllowedTypesConfig represents the configuration for AllowedTypesFilter.
type AllowedTypesConfig struct {
	Types []string `yaml:"types" mapstructure:"types" default:"[\"audio/mpeg\",\"audio/ogg\",\"audio/wav\",\"audio/flac\",\"audio/aac\",\"audio/mp4\"]" validate:"min=1"`
}

// AllowedTypesFilter checks the candidate's content type against an
// allow-list. Matching is case-insensitive and ignores type parameters.
type AllowedTypesFilter struct {
	config *AllowedTypesConfig
}

// NewAllowedTypesFilter creates a new allowed types filter.
func NewAllowedTypesFilter() *AllowedTypesFilter {
	return &AllowedTypesFilter{}
}

func (f *AllowedTypesFilter) Name() string {
	return "allowed_types_filter"
}

func (f *AllowedTypesFilter) Description() string {
	return "Checks file content type against an allow-list"
}

func (f *AllowedTypesFilter) ReturnCodes() []string {
	return []string{"unsupported_type"}
}

func (f *AllowedTypesFilter) ValidateConfig(settings map[string]any) error {
	var config AllowedTypesConfig

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
	zlog.Info().Msgf("allowed types filter config: %+v", config)
	return nil
}

func (f *AllowedTypesFilter) Check(c Candidate) Result {
	// If config is not set, accept everything.
	if f.config == nil {
		return Accept()
	}

	mime := strings.ToLower(strings.TrimSpace(c.MIMEType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	for _, allowed := range f.config.Types {
		if mime == strings.ToLower(allowed) {
			return Accept()
		}
	}
	return Reject("unsupported_type")
}

func init() {
	Register("allowed_types_filter", func() Filter {
		return &AllowedTypesFilter{}
	})
}
