package coverage

import (
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tryselect/internal/common/tryerrors"
)

// Manifest maps job-name prefixes to the source paths (path prefixes or globs) exercised by those jobs.
type Manifest struct {
	Coverage map[string][]string `json:"coverage"`
}

// Validate reports empty job prefixes and empty paths.
func (m Manifest) Validate() error {
	var result *multierror.Error
	for _, key := range sortedKeys(m.Coverage) {
		if strings.TrimSpace(key) == "" {
			result = multierror.Append(result, errors.New("empty job prefix"))
			continue
		}
		for i, p := range m.Coverage[key] {
			if strings.TrimSpace(p) == "" {
				result = multierror.Append(result, errors.Errorf("empty path %d for job prefix %s", i, key))
			}
		}
	}
	return result.ErrorOrNil()
}

// LoadManifest reads a single YAML or JSON coverage manifest.
func LoadManifest(path string) (Manifest, error) {
	var manifest Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest, &tryerrors.ErrGraphLoad{Source: path, Err: err}
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return manifest, &tryerrors.ErrGraphLoad{Source: path, Err: err}
	}
	if err := manifest.Validate(); err != nil {
		return manifest, &tryerrors.ErrGraphLoad{Source: path, Err: err}
	}
	return manifest, nil
}

// LoadManifests loads every manifest named by locations. A location containing glob metacharacters is expanded
// (including ** for any number of directories); a glob matching nothing is logged and skipped, whereas a missing
// plain file is an error. All problems are reported together.
func LoadManifests(locations []string) ([]Manifest, error) {
	var result *multierror.Error
	var manifests []Manifest
	for _, location := range locations {
		paths := []string{location}
		if isGlob(location) {
			matches, err := zglob.Glob(location)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				result = multierror.Append(result, errors.Wrapf(err, "expanding %s", location))
				continue
			}
			if len(matches) == 0 {
				log.WithField("pattern", location).Warn("no coverage manifests found")
			}
			sort.Strings(matches)
			paths = matches
		}
		for _, path := range paths {
			manifest, err := LoadManifest(path)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			manifests = append(manifests, manifest)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, &tryerrors.ErrGraphLoad{Source: "coverage manifests", Err: err}
	}
	return manifests, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
