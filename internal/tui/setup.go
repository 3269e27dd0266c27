package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"docsense/internal/llm"
)

type setupPage int

const (
	setupPageEmbed setupPage = iota
	setupPageChat
)

// embedModelHints mark Ollama model names that are embedding models.
var embedModelHints = []string{"embed", "nomic", "bge", "minilm", "arctic"}

func isEmbeddingModel(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range embedModelHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// modelPicker is a cursor-driven list of models; the setup screen uses
// one per page.
type modelPicker struct {
	title  string
	hint   string
	items  []llm.OllamaModel
	cursor int
}

func (p *modelPicker) move(delta int) {
	next := p.cursor + delta
	if next >= 0 && next < len(p.items) {
		p.cursor = next
	}
}

func (p *modelPicker) preselect(name string) {
	for i, m := range p.items {
		if m.Name == name {
			p.cursor = i
			return
		}
	}
}

func (p modelPicker) selection() string {
	if len(p.items) == 0 || p.cursor >= len(p.items) {
		return ""
	}
	return p.items[p.cursor].Name
}

func (p modelPicker) view() string {
	s := titleStyle.Render("  "+p.title) + "\n"
	s += dimStyle.Render("  "+p.hint) + "\n\n"
	for i, m := range p.items {
		cursor, style := "  ", listItemStyle
		if i == p.cursor {
			cursor, style = "▸ ", selectedStyle
		}
		s += fmt.Sprintf("  %s%s\n", cursor, style.Render(fmt.Sprintf("%s (%s)", m.Name, formatSize(m.Size))))
	}
	return s
}

type setupModel struct {
	models []llm.OllamaModel
	embed  modelPicker
	chat   modelPicker
	page   setupPage
	loaded bool
	err    error
}

// fetchModelsMsg is sent when models have been fetched from Ollama.
type fetchModelsMsg struct {
	models []llm.OllamaModel
	err    error
}

func fetchModels(baseURL string) tea.Cmd {
	return func() tea.Msg {
		models, err := llm.ListModels(context.Background(), baseURL)
		return fetchModelsMsg{models: models, err: err}
	}
}

func (m setupModel) Update(msg tea.Msg, cfg Config) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchModelsMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.models = msg.models

		m.embed = modelPicker{
			title: "Select embedding model",
			hint:  "Turns documentation chunks and queries into vectors",
		}
		m.chat = modelPicker{
			title: "Select answer model",
			hint:  "Writes answers grounded in the retrieved excerpts",
		}
		for _, model := range msg.models {
			if isEmbeddingModel(model.Name) {
				m.embed.items = append(m.embed.items, model)
			} else {
				m.chat.items = append(m.chat.items, model)
			}
		}
		// With nothing recognizable, offer everything on both pages.
		if len(m.embed.items) == 0 {
			m.embed.items = msg.models
		}
		if len(m.chat.items) == 0 {
			m.chat.items = msg.models
		}
		m.embed.preselect(cfg.EmbedModel)
		m.chat.preselect(cfg.ChatModel)

	case tea.KeyMsg:
		if !m.loaded || m.err != nil {
			return m, nil
		}
		p := &m.embed
		if m.page == setupPageChat {
			p = &m.chat
		}
		switch msg.String() {
		case "up", "k":
			p.move(-1)
		case "down", "j":
			p.move(1)
		}
	}
	return m, nil
}

// advancePage moves from the embed page to the chat page. Returns true
// if it advanced.
func (m *setupModel) advancePage() bool {
	if m.page == setupPageEmbed {
		m.page = setupPageChat
		return true
	}
	return false
}

func (m setupModel) selectedEmbedModel() string { return m.embed.selection() }

func (m setupModel) selectedChatModel() string { return m.chat.selection() }

func (m setupModel) View(width, height int) string {
	s := "\n"

	if !m.loaded {
		s += titleStyle.Render("  Model selection") + "\n\n"
		s += dimStyle.Render("  Fetching models from Ollama...") + "\n"
		return s
	}

	if m.err != nil {
		s += titleStyle.Render("  Model selection") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
		s += dimStyle.Render("  Make sure Ollama is running and try again.") + "\n"
		s += dimStyle.Render("  Press q to quit.") + "\n"
		return s
	}

	if len(m.models) == 0 {
		s += titleStyle.Render("  Model selection") + "\n\n"
		s += warnStyle.Render("  No models found in Ollama.") + "\n"
		s += dimStyle.Render("  Pull a model first: ollama pull nomic-embed-text") + "\n"
		return s
	}

	if m.page == setupPageEmbed {
		s += m.embed.view()
		s += "\n" + helpStyle.Render("  ↑/↓ navigate • Enter select") + "\n"
	} else {
		s += m.chat.view()
		s += "\n" + helpStyle.Render("  ↑/↓ navigate • Enter confirm and build") + "\n"
	}
	return s
}

// formatSize returns a human-readable size string.
func formatSize(bytes int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	if bytes >= gb {
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/mb)
}
