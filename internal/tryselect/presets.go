package tryselect

import (
	"fmt"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// Presets prints the configured presets as YAML.
func (a *App) Presets() error {
	presets := a.Params.Config.Presets
	if len(presets) == 0 {
		fmt.Fprintln(a.Out, "No presets configured")
		return nil
	}
	b, err := yaml.Marshal(presets)
	if err != nil {
		return errors.Errorf("[tryselect.Presets] error marshalling presets: %s", err)
	}
	fmt.Fprint(a.Out, string(b))
	return nil
}
