package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoMatch is returned by Latest when the directory exists but holds no
// artifact matching the pattern. Wrapped with context; check with errors.Is.
var ErrNoMatch = errors.New("no matching artifact")

// Latest resolves the most recent artifact in dir matching the glob pattern.
// "Most recent" means lexicographically last, which for the timestamped
// naming scheme (prefix_YYYYMMDD_HHMMSS) equals newest. The result is a
// plain value; nothing is cached between calls, so re-runs always observe
// the current disk state.
func Latest(dir, pattern string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("artifact directory %s: %w", dir, ErrNoMatch)
		}
		return "", fmt.Errorf("artifact directory %s: %w", dir, err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w for %q in %s", ErrNoMatch, pattern, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
