// Package loader discovers and reads text documents from a directory
// tree, producing the filename→text map the build pipeline consumes.
package loader

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxFileSize is the largest document we'll consider (1 MB).
const maxFileSize = 1 << 20

// documentExts are the file types treated as indexable documents.
var documentExts = map[string]bool{
	"md":       true,
	"markdown": true,
	"txt":      true,
	"text":     true,
}

// defaultIgnores are used when no .docsenseignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	".idea",
	".vscode",
	".docsense",
	"dist",
	"build",
}

// LoadDir walks the tree rooted at root and reads every document file
// into a map keyed by slash-separated relative path. onLoaded, when
// non-nil, is called after each file is read with the running count and
// the total. Unreadable files are skipped, not fatal.
func LoadDir(root string, onLoaded func(loaded, total int)) (map[string]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	paths, err := discover(absRoot)
	if err != nil {
		return nil, err
	}
	return readDocs(absRoot, paths, onLoaded), nil
}

// readDocs reads each discovered file, dropping unreadable ones from
// the running total so the final report is always loaded == total.
func readDocs(absRoot string, paths []string, onLoaded func(loaded, total int)) map[string]string {
	docs := make(map[string]string, len(paths))
	total := len(paths)
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(absRoot, filepath.FromSlash(rel)))
		if err != nil {
			total--
			continue
		}
		docs[rel] = string(data)
		if onLoaded != nil {
			onLoaded(len(docs), total)
		}
	}
	if onLoaded != nil && len(docs) < len(paths) {
		onLoaded(len(docs), total)
	}
	return docs
}

// discover returns the sorted relative paths of all document files under
// root, honoring ignore patterns and the size cap.
func discover(absRoot string) ([]string, error) {
	ignores := loadIgnorePatterns(absRoot)

	var paths []string
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors, keep walking
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			rel, _ := filepath.Rel(absRoot, path)
			if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if !documentExts[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize || info.Size() == 0 {
			return nil
		}

		rel, _ := filepath.Rel(absRoot, path)
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// loadIgnorePatterns reads .docsenseignore from the document root,
// falling back to the defaults if it's absent or empty.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, ".docsenseignore"))
	if err != nil {
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

// matchesIgnore checks if a directory name or relative path matches any
// ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if strings.HasPrefix(relPath, p) {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
