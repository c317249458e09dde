// Package filex prepares filesystem locations used by file-backed stores.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDBDir creates the parent directory of a SQLite database path so the
// driver can create the file on first open. In-memory DSNs and bare file
// names in the working directory need nothing and are left alone.
//
// It returns the directory that was ensured, or "" when nothing was done.
func EnsureDBDir(dsn string) (string, error) {
	path := dsn
	if strings.HasPrefix(path, "file:") {
		path = strings.TrimPrefix(path, "file:")
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return "", nil
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return "", nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
