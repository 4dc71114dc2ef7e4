package chore

// SharedNode is a resolved forest vertex. Its identity is shared: every
// path that reaches key K during resolution is handed the same *SharedNode
// instance, which is what lets the Scheduler's per-key memoization (via
// Exec's latch) observe a key executed at most once regardless of how
// many parents reference it.
type SharedNode struct {
	Key      TaskKey
	Exec     *TaskExecutable
	Children []*SharedNode
}

// rawOrNode tracks, for one TaskKey during resolution, whether it is
// still an unexpanded definition (raw, possibly nil for an
// auto-materialized empty File dependency) or has already been converted
// to a shared node.
type rawOrNode struct {
	raw    *TaskDef
	node   *SharedNode
	isNode bool
}

// Resolve converts a registry and a list of requested targets into a
// forest of SharedNodes. It detects dangling references
// (ItemNotFoundError) and cycles scoped to the current expansion path
// (CircularDependencyError).
func Resolve(reg *Registry, targets []TaskKey, rt *runtimeEnv) ([]*SharedNode, error) {
	m := make(map[TaskKey]*rawOrNode, reg.Len())
	for key, def := range reg.tasks {
		m[key] = &rawOrNode{raw: def}
	}
	// Auto-materialize File dependencies referenced but not defined
	// anywhere: an empty executable whose purpose is staleness/existence
	// gating alone.
	for _, def := range reg.tasks {
		for _, dep := range def.Depends {
			if dep.IsPhony() {
				continue
			}
			if _, ok := m[dep]; !ok {
				m[dep] = &rawOrNode{raw: nil}
			}
		}
	}

	roots := make([]*SharedNode, 0, len(targets))
	for _, target := range targets {
		entry, ok := m[target]
		if !ok {
			return nil, &ItemNotFoundError{Key: target}
		}
		if entry.isNode {
			// Already pulled in as a dependency of an earlier target: it
			// will still run as that target's descendant, so it is not
			// re-rooted here.
			continue
		}
		node, err := expand(target, entry.raw, m, map[TaskKey]bool{}, rt)
		if err != nil {
			return nil, err
		}
		m[target] = &rawOrNode{isNode: true, node: node}
		roots = append(roots, node)
	}
	return roots, nil
}

// expand converts key's raw definition into a SharedNode, recursively
// expanding (or reusing) each dependency. ancestors is scoped to the
// current root-to-node expansion path: it is populated on entry and
// cleared on return, so a diamond-shared dependency reached by a second
// path is safe to re-link once it is no longer an ancestor.
func expand(key TaskKey, raw *TaskDef, m map[TaskKey]*rawOrNode, ancestors map[TaskKey]bool, rt *runtimeEnv) (*SharedNode, error) {
	ancestors[key] = true
	defer delete(ancestors, key)

	if raw != nil {
		if err := checkCwd(raw, rt); err != nil {
			return nil, err
		}
	}

	children := make([]*SharedNode, 0)
	if raw != nil {
		for _, dep := range raw.Depends {
			if ancestors[dep] {
				return nil, &CircularDependencyError{Key: dep}
			}
			entry, ok := m[dep]
			if !ok {
				return nil, &ItemNotFoundError{Key: dep}
			}
			if entry.isNode {
				children = append(children, entry.node)
				continue
			}
			childNode, err := expand(dep, entry.raw, m, ancestors, rt)
			if err != nil {
				return nil, err
			}
			m[dep] = &rawOrNode{isNode: true, node: childNode}
			children = append(children, childNode)
		}
	}

	exec := newTaskExecutable(key, raw, rt)
	return &SharedNode{Key: key, Exec: exec, Children: children}, nil
}

// checkCwd enforces that a non-empty task's working directory exists at
// resolution time, before any scheduling begins.
func checkCwd(def *TaskDef, rt *runtimeEnv) error {
	if def.Cwd == "" {
		return nil
	}
	info, err := rt.oracle.fs.Stat(def.Cwd)
	if err != nil || !info.IsDir() {
		return &DirectoryNotFoundError{Cwd: def.Cwd}
	}
	return nil
}
