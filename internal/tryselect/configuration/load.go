package configuration

import (
	"github.com/spf13/viper"

	"github.com/armadaproject/tryselect/internal/common"
	commonconfig "github.com/armadaproject/tryselect/internal/common/config"
	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/coverage"
)

const (
	// Name of the default config file in the home directory, without the leading dot and extension.
	Name      = "tryselect"
	EnvPrefix = "TRYSELECT"
)

// SetDefaults registers the default value of every key, which also makes each key visible to environment variable
// lookups.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("taskGraph", "")
	v.SetDefault("coverageManifests", []string{})
	v.SetDefault("coverageCacheSize", coverage.DefaultCacheSize)
	v.SetDefault("filters", []string{})
	v.SetDefault("env", map[string]string{})
	v.SetDefault("submit.directory", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads the configuration from cfgFile (or ~/.tryselect.yaml), the environment and any flags bound to v.
// An invalid configuration is reported as a *tryerrors.ErrInvalidArgument.
func Load(v *viper.Viper, cfgFile string) (*Configuration, error) {
	SetDefaults(v)
	var config Configuration
	if err := common.LoadConfig(v, &config, cfgFile, Name, EnvPrefix); err != nil {
		return nil, &tryerrors.ErrInvalidArgument{Name: "config", Value: cfgFile, Message: err.Error()}
	}
	if err := commonconfig.Validate(config); err != nil {
		commonconfig.LogValidationErrors(err)
		return nil, &tryerrors.ErrInvalidArgument{Name: "config", Value: cfgFile, Message: err.Error()}
	}
	return &config, nil
}
