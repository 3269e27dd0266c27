package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"docsense/internal/engine"
	"docsense/internal/progress"
)

const pollInterval = 200 * time.Millisecond

type buildingModel struct {
	eng     *engine.Engine
	spinner spinner.Model
	buildID string
	snap    progress.Snapshot
	done    bool
	err     error
}

func newBuildingModel(eng *engine.Engine) buildingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return buildingModel{
		eng:     eng,
		spinner: sp,
	}
}

// buildStartedMsg is sent once the background build has been kicked off.
type buildStartedMsg struct {
	id  string
	err error
}

// buildTickMsg triggers a progress poll.
type buildTickMsg struct{}

func startBuild(eng *engine.Engine, dir string) tea.Cmd {
	return func() tea.Msg {
		id, err := eng.BuildAsync(dir)
		return buildStartedMsg{id: id, err: err}
	}
}

func pollBuild() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return buildTickMsg{}
	})
}

func (m buildingModel) Update(msg tea.Msg) (buildingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case buildStartedMsg:
		if msg.err != nil {
			m.done = true
			m.err = msg.err
			return m, nil
		}
		m.buildID = msg.id
		return m, pollBuild()

	case buildTickMsg:
		b, ok := m.eng.Tracker().Get(m.buildID)
		if !ok {
			return m, pollBuild()
		}
		m.snap = b.Snapshot()
		switch m.snap.Status {
		case progress.StatusCompleted:
			m.done = true
			return m, nil
		case progress.StatusError:
			m.done = true
			m.err = fmt.Errorf("%s", m.snap.ErrorMessage)
			return m, nil
		}
		return m, pollBuild()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// progressBar renders a fixed-width bar for the given percent.
func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func (m buildingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Building index") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Build complete!") + "\n\n"
		s += fmt.Sprintf("  Documents: %d\n", m.snap.TotalDocuments)
		s += fmt.Sprintf("  Chunks: %d\n", m.snap.TotalChunks)
		s += "\n"
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.snap.CurrentStep)
	s += fmt.Sprintf("  %s %.0f%%\n", progressBar(m.snap.ProgressPercent, 30), m.snap.ProgressPercent)
	if m.snap.Status == progress.StatusEmbedding && m.snap.TotalChunks > 0 {
		s += fmt.Sprintf("  %d / %d chunks embedded\n", m.snap.ProcessedChunks, m.snap.TotalChunks)
		if m.snap.EstimatedRemainingSeconds > 0 {
			s += dimStyle.Render(fmt.Sprintf("  about %.0fs remaining", m.snap.EstimatedRemainingSeconds)) + "\n"
		}
	}
	return s
}
