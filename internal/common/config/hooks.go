package config

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		KeyValueSliceHookFunc(),
	)),
}

// KeyValueSliceHookFunc decodes a list of KEY=VALUE strings (as produced by repeated command-line flags or a
// comma-separated environment variable) into a map[string]string.
func KeyValueSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if t != reflect.TypeOf(map[string]string{}) {
			return data, nil
		}
		var items []string
		switch v := data.(type) {
		case string:
			if v == "" {
				return map[string]string{}, nil
			}
			items = strings.Split(v, ",")
		case []string:
			items = v
		case []interface{}:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return data, nil
				}
				items = append(items, s)
			}
		default:
			return data, nil
		}
		return ParseKeyValues(items)
	}
}

// ParseKeyValues converts KEY=VALUE strings into a map. The value may itself contain '='.
func ParseKeyValues(items []string) (map[string]string, error) {
	rv := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("invalid key value pair %q; expected KEY=VALUE", item)
		}
		rv[key] = value
	}
	return rv, nil
}
