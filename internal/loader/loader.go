// Package loader walks a directory tree for task configuration files and
// decodes them, grounded on the multi-file collection shape of
// ppiankov/runforge's config loader: gather every file first, let
// individual parse failures ride along as per-file errors rather than
// aborting the whole walk.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// fileNames lists the configuration file basenames the walk looks for in
// every directory.
var fileNames = []string{"chore.yaml", "chore.yml"}

// TaskBody is the plain, chore-agnostic decode target for one task entry.
// It mirrors chore.RawTaskBody field-for-field; kept as a separate type
// so this package never imports the root chore package (which itself
// wires Load into Execute — importing chore here would be a cycle).
type TaskBody struct {
	Envs        map[string]string `mapstructure:"envs"`
	Script      string            `mapstructure:"script"`
	Depends     []string          `mapstructure:"depends"`
	Cwd         string            `mapstructure:"cwd"`
	Description string            `mapstructure:"description"`
}

// FileResult is one discovered configuration file: either a parse error
// (Err != nil) or a successfully decoded set of tasks.
type FileResult struct {
	Path  string
	Err   error
	Tasks map[string]TaskBody
}

// Load walks root for chore.yaml/chore.yml files and decodes each one.
// A file that fails to read or parse is recorded in its FileResult.Err
// rather than aborting the walk; only a failure to walk the tree itself
// (e.g. root does not exist) is returned as a top-level error.
func Load(root string) ([]FileResult, error) {
	var results []FileResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		matched := false
		for _, fn := range fileNames {
			if name == fn {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
		results = append(results, decodeFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: walk %s: %w", root, err)
	}
	return results, nil
}

func decodeFile(path string) FileResult {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("yaml decode: %w", err)}
	}

	tasks := make(map[string]TaskBody, len(doc))
	for key, value := range doc {
		var body TaskBody
		if err := mapstructure.Decode(value, &body); err != nil {
			return FileResult{Path: path, Err: fmt.Errorf("task %q: %w", key, err)}
		}
		tasks[key] = body
	}

	return FileResult{Path: path, Tasks: tasks}
}
