package configuration

import (
	"github.com/armadaproject/tryselect/internal/common/logging"
)

type Configuration struct {
	// Task graph file (YAML or JSON). Needed by every command that resolves tasks.
	TaskGraph string `mapstructure:"taskGraph"`
	// Coverage manifest files; each entry may be a glob, e.g. "coverage/**/*.yaml".
	CoverageManifests []string `mapstructure:"coverageManifests"`
	// Maximum number of memoised path lookups.
	CoverageCacheSize int `mapstructure:"coverageCacheSize" validate:"gte=0"`
	// Queries restricting the graph unless --full is given. A task passes if it matches any of them.
	Filters []string `mapstructure:"filters"`
	// Saved queries, by name.
	Presets map[string]Preset `mapstructure:"presets" validate:"dive"`
	// Environment variables set on every selected task, given as KEY=VALUE entries so that keys keep their case.
	// --env entries override them.
	Env     map[string]string `mapstructure:"env"`
	Submit  SubmitConfig      `mapstructure:"submit"`
	Logging logging.Config    `mapstructure:"logging"`
}

type Preset struct {
	Description string   `mapstructure:"description" json:"description,omitempty"`
	Queries     []string `mapstructure:"queries" json:"queries" validate:"min=1,dive,required"`
}

type SubmitConfig struct {
	// Where try_task_config.json is written.
	Directory string `mapstructure:"directory"`
}
