package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guide.md", "# Guide\n\nHello.")
	writeFile(t, root, "notes/plan.txt", "The plan.")
	writeFile(t, root, "image.png", "not a document")
	writeFile(t, root, "empty.md", "")
	writeFile(t, root, "node_modules/dep.md", "ignored")

	var calls int
	docs, err := LoadDir(root, func(loaded, total int) {
		calls++
		assert.LessOrEqual(t, loaded, total)
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"guide.md":       "# Guide\n\nHello.",
		"notes/plan.txt": "The plan.",
	}, docs)
	assert.Equal(t, 2, calls)
}

func TestLoadDirCustomIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".docsenseignore", "# comment\nprivate\n")
	writeFile(t, root, "private/secret.md", "hidden")
	writeFile(t, root, "public.md", "visible")

	docs, err := LoadDir(root, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"public.md": "visible"}, docs)
}

func TestReadDocsDropsUnreadableFromTotal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "alpha")
	writeFile(t, root, "c.md", "charlie")

	var reports [][2]int
	docs := readDocs(root, []string{"a.md", "b.md", "c.md"}, func(loaded, total int) {
		reports = append(reports, [2]int{loaded, total})
	})

	assert.Equal(t, map[string]string{"a.md": "alpha", "c.md": "charlie"}, docs)

	// The unreadable file leaves the total, and the last report always
	// closes out at loaded == total.
	require.NotEmpty(t, reports)
	last := reports[len(reports)-1]
	assert.Equal(t, 2, last[0])
	assert.Equal(t, 2, last[1])
	for _, r := range reports {
		assert.LessOrEqual(t, r[0], r[1])
	}
}

func TestLoadDirEmptyTree(t *testing.T) {
	docs, err := LoadDir(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
