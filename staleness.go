package chore

import (
	"github.com/spf13/afero"
)

// StalenessOracle decides whether a File task's script may be skipped,
// based on modification-time comparison against its File dependencies.
// Phony tasks always run. The filesystem is abstracted behind afero.Fs so
// tests can substitute afero.NewMemMapFs() instead of touching real files.
type StalenessOracle struct {
	fs afero.Fs
}

// NewStalenessOracle builds an oracle backed by fs. A nil fs falls back to
// the real operating-system filesystem.
func NewStalenessOracle(fs afero.Fs) *StalenessOracle {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &StalenessOracle{fs: fs}
}

// ShouldSkip reports whether key's script can be skipped. deps is key's
// direct dependency list (not the transitive closure).
func (o *StalenessOracle) ShouldSkip(key TaskKey, deps []TaskKey) (bool, error) {
	if key.IsPhony() {
		for _, dep := range deps {
			if dep.IsPhony() {
				continue
			}
			if _, err := o.fs.Stat(dep.String()); err != nil {
				return false, &DependencyFileNotFoundError{DepFile: dep.String(), Task: key}
			}
		}
		return false, nil
	}

	hasPhonyDep := false
	depMTimes := make([]int64, 0, len(deps))
	for _, dep := range deps {
		if dep.IsPhony() {
			hasPhonyDep = true
			continue
		}
		info, err := o.fs.Stat(dep.String())
		if err != nil {
			return false, &DependencyFileNotFoundError{DepFile: dep.String(), Task: key}
		}
		depMTimes = append(depMTimes, info.ModTime().UnixNano())
	}
	if hasPhonyDep {
		return false, nil
	}

	targetInfo, err := o.fs.Stat(key.String())
	if err != nil {
		// Target does not exist (or is unreachable): must run, not an error.
		return false, nil
	}
	targetMTime := targetInfo.ModTime().UnixNano()

	for _, m := range depMTimes {
		if targetMTime <= m {
			return false, nil
		}
	}
	return true, nil
}
