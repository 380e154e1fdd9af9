package features

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// schemaKey is the key holding the column list in YAML/JSON schema files.
const schemaKey = "feature_columns"

// LoadSchema reads the ordered column list from path.
// Files ending in .txt hold one column per line; blank lines and lines
// starting with '#' are skipped. Anything else is parsed as YAML (or JSON)
// with a top-level feature_columns list.
func LoadSchema(path string) (Schema, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		names, err := readLines(path)
		if err != nil {
			return Schema{}, err
		}
		return NewSchema(names)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Schema{}, fmt.Errorf("load schema %s: %w", path, err)
	}
	if !k.Exists(schemaKey) {
		return Schema{}, fmt.Errorf("%w: %s has no %s", ErrSchemaMismatch, path, schemaKey)
	}
	return NewSchema(k.Strings(schemaKey))
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return names, nil
}
