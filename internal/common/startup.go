package common

import (
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/tryselect/internal/common/config"
)

// LoadConfig merges configuration from cfgFile into v and decodes the result into target. With no cfgFile,
// $HOME/.<name>.yaml is read if it exists. Environment variables named <ENVPREFIX>_<KEY> take precedence over the
// file, with dots in nested keys replaced by underscores.
func LoadConfig(v *viper.Viper, target interface{}, cfgFile string, name string, envPrefix string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Errorf("[LoadConfig] error getting user home directory: %s", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName("." + name)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Errorf("[LoadConfig] error reading config file %s: %s", v.ConfigFileUsed(), err)
		}
		// Only happens when looking for the default file, which users don't have to provide.
		log.Debugf("no .%s.yaml config file found", name)
	} else {
		log.Debugf("using config file %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(target, commonconfig.CustomHooks...); err != nil {
		return errors.Errorf("[LoadConfig] error decoding config: %s", err)
	}
	return nil
}
