package u

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoHomeDir is returned when we can't figure out user's home directory
var ErrNoHomeDir = errors.New("can't determine home directory")

// FileExists returns true if path exists and is a regular file
func FileExists(path string) bool {
	st, err := os.Lstat(path)
	return err == nil && st.Mode().IsRegular()
}

// CloseNoError is like io.Closer Close() but ignores an error
// use as: defer CloseNoError(f)
func CloseNoError(f io.Closer) {
	_ = f.Close()
}

// HomeDir returns $HOME or, if not set, what the OS thinks
// is user's home directory
func HomeDir() (string, error) {
	if dir := os.Getenv("HOME"); dir != "" {
		return dir, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil || dir == "" {
		return "", ErrNoHomeDir
	}
	return dir, nil
}

// ExpandTildeInPath changes "~/foo" to "${HOME}/foo"
func ExpandTildeInPath(s string) (string, error) {
	rest, ok := TrimPrefix(s, "~")
	if !ok {
		return s, nil
	}
	if rest != "" && !strings.HasPrefix(rest, "/") && !strings.HasPrefix(rest, string(filepath.Separator)) {
		// ~user/foo is not supported
		return s, nil
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return dir + rest, nil
}
