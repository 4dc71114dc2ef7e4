package chore

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// taskKeyKind distinguishes a Phony task identity from a File one.
type taskKeyKind int

const (
	kindPhony taskKeyKind = iota
	kindFile
)

var phonyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// TaskKey is the canonical identity of a task: either a Phony name or a
// normalized absolute File path. The zero value is not valid; construct
// through ParseRelativeTaskKey followed by Resolve.
type TaskKey struct {
	kind taskKeyKind
	name string // phony name, or a normalized absolute path
}

// IsPhony reports whether this key identifies a named task rather than a
// file path.
func (k TaskKey) IsPhony() bool { return k.kind == kindPhony }

// String returns the canonical display form: the phony name, or the
// normalized absolute path.
func (k TaskKey) String() string { return k.name }

// Less orders phony keys before file keys, and lexicographically within
// each variant.
func (k TaskKey) Less(other TaskKey) bool {
	if k.kind != other.kind {
		return k.kind == kindPhony
	}
	return k.name < other.name
}

func phonyKey(name string) TaskKey { return TaskKey{kind: kindPhony, name: name} }

func fileKey(path string) TaskKey { return TaskKey{kind: kindFile, name: path} }

// RelativeTaskKey is a TaskKey as it appears in configuration: the file
// variant is an unresolved path string, still relative to the declaring
// configuration file's directory.
type RelativeTaskKey struct {
	kind taskKeyKind
	raw  string
}

// Display returns the string the key was parsed from, satisfying the
// round-trip law ParseRelativeTaskKey(s).Display() == s for valid s.
func (r RelativeTaskKey) Display() string { return r.raw }

// ParseRelativeTaskKey parses a single configuration string into a
// RelativeTaskKey. A string containing '/' or '.' is a File reference; a
// bare identifier must match the phony name grammar.
func ParseRelativeTaskKey(s string) (RelativeTaskKey, error) {
	if s == "" {
		return RelativeTaskKey{}, &EmptyTaskKeyError{}
	}
	if strings.ContainsAny(s, "/.") {
		return RelativeTaskKey{kind: kindFile, raw: s}, nil
	}
	if !phonyPattern.MatchString(s) {
		return RelativeTaskKey{}, fmt.Errorf("invalid phony task name %q: must match %s", s, phonyPattern.String())
	}
	return RelativeTaskKey{kind: kindPhony, raw: s}, nil
}

// Resolve converts a RelativeTaskKey into an absolute TaskKey. Phony keys
// pass through unchanged; File keys are canonicalized against base.
func (r RelativeTaskKey) Resolve(base string) (TaskKey, error) {
	if r.kind == kindPhony {
		return phonyKey(r.raw), nil
	}
	abs, err := filepath.Abs(filepath.Join(base, r.raw))
	if err != nil {
		return TaskKey{}, fmt.Errorf("chore: failed to canonicalize path %q: %w", r.raw, err)
	}
	return fileKey(filepath.Clean(abs)), nil
}
