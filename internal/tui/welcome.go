package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"docsense/internal/store"
)

type indexStatus int

const (
	indexEmpty indexStatus = iota
	indexReady
	indexStale
)

type welcomeModel struct {
	status      indexStatus
	staleReason string
	chunkCount  int
	ready       bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status      indexStatus
	staleReason string
	chunkCount  int
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return checkIndexMsg{status: indexEmpty}
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return checkIndexMsg{status: indexEmpty}
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil || stats.TotalChunks == 0 {
			return checkIndexMsg{status: indexEmpty}
		}

		lastModel, err := st.GetMeta("embedding_model")
		if err != nil || lastModel == "" {
			return checkIndexMsg{status: indexEmpty}
		}
		if lastModel != cfg.EmbedModel {
			return checkIndexMsg{
				status:      indexStale,
				staleReason: fmt.Sprintf("embedding model changed: %s → %s", lastModel, cfg.EmbedModel),
			}
		}

		return checkIndexMsg{status: indexReady, chunkCount: stats.TotalChunks}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.staleReason = msg.staleReason
		m.chunkCount = msg.chunkCount
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ DocSense") + "\n"
	s += subtitleStyle.Render("  Ask questions about your documentation") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d chunks)", m.chunkCount)) + "\n"
	case indexEmpty:
		s += warnStyle.Render("  ✗ No index found") + "\n"
	case indexStale:
		s += warnStyle.Render("  ⚠ Index stale") + "\n"
		s += dimStyle.Render("    "+m.staleReason) + "\n"
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
