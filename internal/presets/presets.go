// Package presets ships the built-in recommendation presets.
package presets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"quizrec/internal/score/rule"
)

//go:embed *.yaml
var files embed.FS

// Names lists the built-in presets in alphabetical order.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	slices.Sort(names)
	return names
}

// Raw returns the source document of a built-in preset.
func Raw(name string) ([]byte, error) {
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Load parses a built-in preset by name.
func Load(name string) (rule.Preset, error) {
	data, err := Raw(name)
	if err != nil {
		return rule.Preset{}, err
	}
	return rule.Parse(data)
}
