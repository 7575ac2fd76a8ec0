package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListPrefix marks a pattern argument that names a list file instead of a
// glob, e.g. "@deploy.list".
const ListPrefix = "@"

// ReadList reads a list file and returns its non-empty, non-comment lines
// in file order. Lines starting with '#' are comments. Relative entries are
// resolved against the list file's directory.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return out, nil
}

// Resolve expands arg, which is either a glob or ListPrefix followed by a
// list file of globs and paths. The union of all matches is deduplicated
// and returned in lexical order.
func Resolve(arg string) ([]string, error) {
	listPath, ok := strings.CutPrefix(arg, ListPrefix)
	if !ok {
		return Discover(arg)
	}

	patterns, err := ReadList(listPath)
	if err != nil {
		return nil, err
	}
	var all []string
	for _, p := range patterns {
		matches, err := Discover(p)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return dedupeSorted(all), nil
}
