package grader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTones reads tone overrides from a YAML file. Missing keys keep their
// built-in instruction, so a file may override just one mode:
//
//	mentor: "Be warm, but point out every mistake."
//
// An empty path returns the defaults.
func LoadTones(path string) (Tones, error) {
	tones := DefaultTones()
	if strings.TrimSpace(path) == "" {
		return tones, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- tones path is operator-provided
	if err != nil {
		return tones, fmt.Errorf("read tones %s: %w", path, err)
	}

	var overrides Tones
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return tones, fmt.Errorf("parse tones %s: %w", path, err)
	}

	if strings.TrimSpace(overrides.Mentor) != "" {
		tones.Mentor = overrides.Mentor
	}
	if strings.TrimSpace(overrides.Drill) != "" {
		tones.Drill = overrides.Drill
	}
	return tones, nil
}
