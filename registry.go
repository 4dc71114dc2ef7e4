package chore

import "path/filepath"

// RawTaskBody is the opaque, externally-decoded shape of a single task
// entry in a configuration file, as produced by the loader collaborator.
type RawTaskBody struct {
	Envs        map[string]string `mapstructure:"envs"`
	Script      string            `mapstructure:"script"`
	Depends     []string          `mapstructure:"depends"`
	Cwd         string            `mapstructure:"cwd"`
	Description string            `mapstructure:"description"`
}

// ParsedFile is the successfully decoded content of one configuration
// file: a map from the raw relative-key string to its task body.
type ParsedFile struct {
	Tasks map[string]RawTaskBody
}

// ConfigFile is one entry of the loader's output: either a parse error or
// a ParsedFile, attributed to the directory it was found in.
type ConfigFile struct {
	Path   string
	Err    error
	Parsed *ParsedFile
}

// TaskDef is the static, resolved definition of a task as stored in the
// Registry.
type TaskDef struct {
	Key         TaskKey
	Envs        map[string]string
	Script      string
	Cwd         string
	Depends     []TaskKey
	Description string
}

// Registry is the deduplicated map from TaskKey to TaskDef assembled from
// every successfully parsed configuration file.
type Registry struct {
	tasks map[TaskKey]*TaskDef
}

// Get returns the definition for key, if present.
func (r *Registry) Get(key TaskKey) (*TaskDef, bool) {
	def, ok := r.tasks[key]
	return def, ok
}

// Len reports how many task definitions the registry holds.
func (r *Registry) Len() int { return len(r.tasks) }

// BuildRegistry merges parsed configuration files into a Registry.
// Files that failed to parse (Err != nil) are skipped: parse errors are
// surfaced by the loader, not the engine. A duplicate TaskKey across any
// two files is a hard error.
func BuildRegistry(files []ConfigFile) (*Registry, error) {
	reg := &Registry{tasks: make(map[TaskKey]*TaskDef)}

	for _, file := range files {
		if file.Err != nil || file.Parsed == nil {
			continue
		}
		dir := filepath.Dir(file.Path)
		for rawKey, raw := range file.Parsed.Tasks {
			relKey, err := ParseRelativeTaskKey(rawKey)
			if err != nil {
				return nil, err
			}
			key, err := relKey.Resolve(dir)
			if err != nil {
				return nil, err
			}
			if _, exists := reg.tasks[key]; exists {
				return nil, &DuplicatedTaskNameError{Key: key}
			}

			depends := make([]TaskKey, 0, len(raw.Depends))
			for _, rawDep := range raw.Depends {
				relDep, err := ParseRelativeTaskKey(rawDep)
				if err != nil {
					return nil, err
				}
				depKey, err := relDep.Resolve(dir)
				if err != nil {
					return nil, err
				}
				depends = append(depends, depKey)
			}

			cwd := raw.Cwd
			if cwd == "" {
				cwd = "."
			}
			absCwd, err := filepath.Abs(filepath.Join(dir, cwd))
			if err != nil {
				return nil, err
			}

			envs := raw.Envs
			if envs == nil {
				envs = map[string]string{}
			}

			reg.tasks[key] = &TaskDef{
				Key:         key,
				Envs:        envs,
				Script:      raw.Script,
				Cwd:         filepath.Clean(absCwd),
				Depends:     depends,
				Description: raw.Description,
			}
		}
	}

	return reg, nil
}
