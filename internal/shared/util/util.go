// # internal/shared/util/util.go

// Package util carries small helpers shared across layers: path prefix
// checks used when mapping changed files back to workspace roots, sorted
// map iteration for deterministic output, and directory-creating writes
// for exports.
package util

import (
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// NormalizePatternPath cleans a path for prefix comparison: slashes only,
// no leading "./", empty for ".".
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when path equals prefix or lies beneath it.
func HasPathPrefix(path, prefix string) bool {
	path = NormalizePatternPath(path)
	prefix = NormalizePatternPath(prefix)
	if path == "" || prefix == "" {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortedKeysNatural returns the map's keys sorted with numeric suffixes
// compared by value: ARG2 before ARG10. Keys without a common prefix or
// without a numeric suffix fall back to plain string order.
func SortedKeysNatural[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, ni, oki := splitNumericSuffix(keys[i])
		pj, nj, okj := splitNumericSuffix(keys[j])
		if oki && okj && pi == pj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func splitNumericSuffix(s string) (prefix string, n int, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

// WriteFileWithDirs creates parent directories (0755) and writes the file
// with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}

// GetClientIP extracts the caller's address for per-client rate
// limiting. With the RealIP middleware in front, RemoteAddr already
// holds the forwarded address; the port is stripped so one client maps
// to one limiter.
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
