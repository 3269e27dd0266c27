// Package tui implements the interactive terminal UI: index check,
// model selection, build progress, and chat.
package tui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"docsense/internal/engine"
	"docsense/internal/relevance"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewSetup
	ViewBuilding
	ViewChat
)

// Config holds configuration passed from the CLI layer.
type Config struct {
	DBPath     string
	DocsDir    string
	OllamaURL  string
	EmbedModel string
	ChatModel  string
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	eng    *engine.Engine
	width  int
	height int

	welcome  welcomeModel
	setup    setupModel
	building buildingModel
	chat     chatModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			if m.welcome.status == indexReady {
				return m, m.transitionToChat()
			}
			// Empty or stale index — pick models, then build.
			m.state = ViewSetup
			return m, fetchModels(m.config.OllamaURL)
		}

	case ViewSetup:
		m.setup, cmd = m.setup.Update(msg, m.config)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.setup.loaded && m.setup.err == nil && len(m.setup.models) > 0 {
			if m.setup.advancePage() {
				return m, nil
			}
			if sel := m.setup.selectedEmbedModel(); sel != "" {
				m.config.EmbedModel = sel
			}
			if sel := m.setup.selectedChatModel(); sel != "" {
				m.config.ChatModel = sel
			}
			if err := m.openEngine(); err != nil {
				m.err = err
				return m, nil
			}
			m.state = ViewBuilding
			m.building = newBuildingModel(m.eng)
			return m, tea.Batch(
				m.building.spinner.Tick,
				startBuild(m.eng, m.config.DocsDir),
			)
		}

	case ViewBuilding:
		m.building, cmd = m.building.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.building.done {
			return m, m.transitionToChat()
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

// openEngine lazily creates the engine shared by the build and chat
// screens.
func (m *Model) openEngine() error {
	if m.eng != nil {
		return nil
	}

	dbPath := m.config.DBPath
	if dbPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dbPath = filepath.Join(wd, ".docsense", "index.db")
		m.config.DBPath = dbPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		DBPath:        dbPath,
		OllamaURL:     m.config.OllamaURL,
		EmbedModel:    m.config.EmbedModel,
		ChatModel:     m.config.ChatModel,
		MinSimilarity: relevance.DefaultMinSimilarity,
		HeadingBoost:  relevance.DefaultBoostFactor,
	})
	if err != nil {
		return err
	}
	m.eng = eng
	return nil
}

func (m *Model) transitionToChat() tea.Cmd {
	if err := m.openEngine(); err != nil {
		m.err = err
		return nil
	}

	m.chat = newChatModel(m.eng, 10)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat
	return nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewSetup:
		return m.setup.View(m.width, m.height)
	case ViewBuilding:
		return m.building.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
