package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

const (
	AppTitle        = "STORY ADVENTURE"
	PlaceHolderText = "Path to your drawing (.png), or Enter to skip"
)

type phase int

const (
	phaseSetup phase = iota
	phaseAgeGroup
	phaseTheme
	phaseStory
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	options       *Options
	view          *AdventureView
	phase         phase
	selected      int
	ageGroup      string
	storyViewport viewport.Model
	metaViewport  viewport.Model
	drawingInput  textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	status        string
	loading       bool
	loadingLabel  string

	// Drawing submission state
	drawingMode   bool
	pendingChoice adventure.Choice

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type setupMsg struct {
	options *Options
	view    *AdventureView
	err     error
}

// adventureMsg carries the adventure after any API call. view may be set
// even when err is not, so the UI can resync after a server-side reset.
type adventureMsg struct {
	view *AdventureView
	err  error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	storyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	pastStoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	drawingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		drawingInput:  ta,
		storyViewport: storyVp,
		metaViewport:  metaVp,
		phase:         phaseSetup,
		loading:       true,
		loadingLabel:  "Opening the storybook...",
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.setup(), progressTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()
		return m, nil

	case setupMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.options = msg.options
		m.view = msg.view
		m.phase = phaseAgeGroup
		if msg.view.Adventure.Started() {
			m.applyView(msg.view)
			m.refresh()
		}
		return m, nil

	case adventureMsg:
		m.loading = false
		m.err = msg.err
		if msg.view != nil {
			m.applyView(msg.view)
		}
		m.refresh()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.refresh()
			return m, progressTick()
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.storyViewport, cmd = m.storyViewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.showQuitModal = true
			return m, nil
		}
		if m.loading {
			return m, nil
		}
		switch m.phase {
		case phaseAgeGroup, phaseTheme:
			return m.updateOnboarding(msg)
		case phaseStory:
			if m.drawingMode {
				return m.updateDrawing(msg)
			}
			return m.updateStory(msg)
		}
		if msg.Type == tea.KeyEsc {
			m.showQuitModal = true
		}
	}

	return m, nil
}

// applyView switches phase to match the adventure the API returned.
func (m *ConsoleUI) applyView(view *AdventureView) {
	m.view = view
	m.selected = 0
	if view.Screen == adventure.ScreenOnboarding {
		m.drawingMode = false
		if m.phase == phaseStory {
			m.phase = phaseAgeGroup
			m.ageGroup = ""
		}
		return
	}
	m.phase = phaseStory
}

func (m ConsoleUI) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.onboardingItems()

	switch msg.Type {
	case tea.KeyEsc:
		if m.phase == phaseTheme {
			m.phase = phaseAgeGroup
			m.selected = 0
			return m, nil
		}
		m.showQuitModal = true
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(items)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		if len(items) == 0 {
			return m, nil
		}
		if m.phase == phaseAgeGroup {
			m.ageGroup = items[m.selected]
			m.phase = phaseTheme
			m.selected = 0
			m.err = nil
			return m, nil
		}
		m.err = nil
		m.loading = true
		m.loadingLabel = "Writing the first page of your " + items[m.selected] + " adventure..."
		m.progressTick = 0
		return m, tea.Batch(m.begin(m.ageGroup, items[m.selected]), progressTick())
	}
	return m, nil
}

func (m ConsoleUI) updateStory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var choices []adventure.Choice
	ending := m.view.Screen == adventure.ScreenEnding
	if m.view.CurrentNode != nil && !ending {
		choices = m.view.CurrentNode.Choices
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(choices)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		if len(choices) == 0 {
			return m, nil
		}
		return m.pick(choices[m.selected])
	case tea.KeyRunes:
		switch key := msg.String(); key {
		case "r":
			m.err = nil
			m.status = ""
			m.loading = true
			m.loadingLabel = "Closing the book..."
			return m, tea.Batch(m.restart(), progressTick())
		case "c":
			m.copyStory()
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				if idx := int(key[0] - '1'); idx < len(choices) {
					m.selected = idx
					return m.pick(choices[idx])
				}
			}
		}
	default:
		var cmd tea.Cmd
		m.storyViewport, cmd = m.storyViewport.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

// pick sends a choice, first asking for a drawing when the choice invites one.
func (m ConsoleUI) pick(choice adventure.Choice) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""
	if choice.DrawingPrompt != nil {
		m.drawingMode = true
		m.pendingChoice = choice
		m.drawingInput.Reset()
		m.drawingInput.Focus()
		m.refresh()
		return m, textarea.Blink
	}
	return m.send(choice.Text, "")
}

func (m ConsoleUI) updateDrawing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.drawingMode = false
		m.drawingInput.Blur()
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.drawingInput.Value())
		drawing := ""
		if path != "" {
			var err error
			drawing, err = loadDrawing(path)
			if err != nil {
				m.err = err
				m.refresh()
				return m, nil
			}
		}
		m.drawingMode = false
		m.drawingInput.Blur()
		return m.send(m.pendingChoice.Text, drawing)
	}

	var cmd tea.Cmd
	m.drawingInput, cmd = m.drawingInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) send(choice, drawing string) (tea.Model, tea.Cmd) {
	m.loading = true
	m.loadingLabel = "The story continues..."
	if drawing != "" {
		m.loadingLabel = "Adding your drawing to the story..."
	}
	m.progressTick = 0
	m.refresh()
	return m, tea.Batch(m.choose(choice, drawing), progressTick())
}

func (m *ConsoleUI) copyStory() {
	if m.view == nil || m.view.CurrentNode == nil {
		return
	}
	if err := clipboard.WriteAll(m.view.CurrentNode.StoryText); err != nil {
		m.err = fmt.Errorf("could not copy to clipboard: %w", err)
		return
	}
	m.status = "Story copied to clipboard!"
}

func (m ConsoleUI) onboardingItems() []string {
	if m.options == nil {
		return nil
	}
	var items []string
	if m.phase == phaseAgeGroup {
		for _, ag := range m.options.AgeGroups {
			items = append(items, string(ag))
		}
		return items
	}
	for _, t := range m.options.Themes {
		items = append(items, string(t))
	}
	return items
}

// Commands

func (m ConsoleUI) setup() tea.Cmd {
	return func() tea.Msg {
		opts, err := getOptions(m.client, m.config.APIBaseURL)
		if err != nil {
			return setupMsg{err: err}
		}
		var view *AdventureView
		if m.config.ResumeID != uuid.Nil {
			view, err = getAdventure(m.client, m.config.APIBaseURL, m.config.ResumeID)
		} else {
			view, err = createAdventure(m.client, m.config.APIBaseURL)
		}
		return setupMsg{options: opts, view: view, err: err}
	}
}

func (m ConsoleUI) begin(ageGroup, theme string) tea.Cmd {
	id := m.view.Adventure.ID
	return func() tea.Msg {
		if _, err := updateSettings(m.client, m.config.APIBaseURL, id, ageGroup, theme); err != nil {
			return adventureMsg{err: err}
		}
		view, err := startAdventure(m.client, m.config.APIBaseURL, id)
		return adventureMsg{view: view, err: err}
	}
}

func (m ConsoleUI) choose(choice, drawing string) tea.Cmd {
	id := m.view.Adventure.ID
	return func() tea.Msg {
		view, err := chooseNext(m.client, m.config.APIBaseURL, id, choice, drawing)
		if err != nil {
			// The server may have reset the adventure; pick up whatever it holds now.
			if current, getErr := getAdventure(m.client, m.config.APIBaseURL, id); getErr == nil {
				return adventureMsg{view: current, err: err}
			}
		}
		return adventureMsg{view: view, err: err}
	}
}

func (m ConsoleUI) restart() tea.Cmd {
	id := m.view.Adventure.ID
	return func() tea.Msg {
		view, err := resetAdventure(m.client, m.config.APIBaseURL, id)
		return adventureMsg{view: view, err: err}
	}
}

// Layout

func (m *ConsoleUI) resize() {
	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6
	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.drawingInput.SetWidth(storyWidth - 4)
}

// refresh rebuilds both panels for the current width.
func (m *ConsoleUI) refresh() {
	if m.phase != phaseStory || m.view == nil {
		return
	}
	m.storyViewport.SetContent(m.writeStoryContent())
	m.storyViewport.GotoBottom()
	m.metaViewport.SetContent(writeMetadata(m.view))
}

func (m ConsoleUI) writeStoryContent() string {
	width := m.storyViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(AppTitle) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, node := range m.view.Adventure.StoryTree {
		style := pastStoryStyle
		if node.ID == m.view.Adventure.CurrentNodeID {
			style = storyStyle
		}
		content.WriteString(style.Render(wordwrap.String(node.StoryText, width)) + "\n\n")
	}

	if m.loading {
		content.WriteString(loadingStyle.Render(m.loadingLabel) + "\n")
		content.WriteString(m.renderProgressBar() + "\n\n")
	} else if m.view.Screen == adventure.ScreenEnding {
		content.WriteString(titleStyle.Render("The End") + "\n\n")
		content.WriteString(promptStyle.Render("Press r to start a new adventure") + "\n\n")
	} else if node := m.view.CurrentNode; node != nil {
		content.WriteString(titleStyle.Render("What will you choose?") + "\n\n")
		for i, c := range node.Choices {
			line := fmt.Sprintf("%d. %s", i+1, c.Text)
			if i == m.selected {
				content.WriteString(selectedChoiceStyle.Render("▶ "+line) + "\n")
			} else {
				content.WriteString(choiceStyle.Render("  "+line) + "\n")
			}
			if c.DrawingPrompt != nil {
				content.WriteString(drawingStyle.Render(wordwrap.String("     ✎ "+*c.DrawingPrompt, width)) + "\n")
			}
		}
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), width)) + "\n\n")
	}
	if m.status != "" {
		content.WriteString(loadingStyle.Render(m.status) + "\n\n")
	}
	return content.String()
}

func writeMetadata(view *AdventureView) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(view.Adventure.ID.String()[:8] + "...\n\n")

	content.WriteString("Reader age:\n")
	content.WriteString(string(view.Adventure.AgeGroup) + "\n\n")

	content.WriteString("Theme:\n")
	content.WriteString(string(view.Adventure.Theme) + "\n\n")

	content.WriteString("Page:\n")
	content.WriteString(fmt.Sprintf("%d of %d\n\n", view.TurnCount, view.MaxTurns))

	if view.CurrentNode != nil {
		narration := "no"
		if view.CurrentNode.AudioBase64 != nil {
			narration = "yes"
		}
		content.WriteString("Narration:\n")
		content.WriteString(narration + "\n\n")

		if _, ok := view.CurrentNode.DrawingPrompt(); ok {
			content.WriteString("Drawing:\n")
			content.WriteString("✎ choice asks for a PNG\n\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• ↑/↓ Enter: Choose\n")
	content.WriteString("• 1-9: Quick choose\n")
	content.WriteString("• r: Restart\n")
	content.WriteString("• c: Copy story\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				if m.drawingMode {
					m.drawingInput.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to close the storybook?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep reading, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderOnboardingModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.phase == phaseSetup && m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to open the storybook: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Please wait"))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render(m.loadingLabel))
		content.WriteString("\n\n")
		content.WriteString(m.renderProgressBar())
	default:
		title := "How old is the reader?"
		if m.phase == phaseTheme {
			title = "Pick a theme"
		}
		content.WriteString(modalTitleStyle.Render(title))
		content.WriteString("\n\n")

		for i, item := range m.onboardingItems() {
			if i == m.selected {
				content.WriteString(selectedChoiceStyle.Render(fmt.Sprintf("▶ %s", item)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", item)))
			}
			content.WriteString("\n")
		}

		if m.err != nil {
			content.WriteString("\n")
			content.WriteString(errorStyle.Render(m.err.Error()))
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to go back"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.phase != phaseStory {
		return m.renderOnboardingModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	bottom := promptStyle.Render("Enter to choose • r restart • c copy")
	if m.drawingMode {
		bottom = lipgloss.JoinVertical(lipgloss.Left,
			drawingStyle.Render(*m.pendingChoice.DrawingPrompt),
			m.drawingInput.View(),
		)
	}

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", storyWidth-4)),
			bottom,
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 50 {
		usable = 50
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
