package teams

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasData []byte

// AliasTable is the versioned alias configuration.
type AliasTable struct {
	Version int               `yaml:"version"`
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultAliases returns the alias table compiled into the binary.
func DefaultAliases() AliasTable {
	t, err := parseAliases(defaultAliasData)
	if err != nil {
		panic(fmt.Sprintf("embedded aliases.yaml: %v", err))
	}
	return t
}

// LoadAliases reads an alias table from path. An empty path yields the
// embedded default.
func LoadAliases(path string) (AliasTable, error) {
	if path == "" {
		return DefaultAliases(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AliasTable{}, fmt.Errorf("read aliases: %w", err)
	}
	return parseAliases(data)
}

func parseAliases(data []byte) (AliasTable, error) {
	var t AliasTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return AliasTable{}, fmt.Errorf("parse aliases: %w", err)
	}
	// Keys must be in normalized form for the lookup in Normalize to hit.
	normalized := make(map[string]string, len(t.Aliases))
	for k, v := range t.Aliases {
		normalized[Normalize(k, nil)] = Normalize(v, nil)
	}
	t.Aliases = normalized
	return t, nil
}
