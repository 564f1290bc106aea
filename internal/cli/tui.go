package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// errAborted is returned by prompts the user leaves with q, esc or ctrl+c.
var errAborted = errors.New(errors.ErrCodeInvalidInput, "aborted")

// option is one entry of a selection prompt.
type option struct {
	Label   string
	Value   string
	Checked bool // initial state in multi-select prompts
}

// prompter asks the user for input. The interactive session only talks to
// the terminal through this interface.
type prompter interface {
	Select(ctx context.Context, title string, options []option) (string, error)
	MultiSelect(ctx context.Context, title string, options []option) ([]string, error)
	Input(ctx context.Context, title string, secret bool) (string, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
}

// teaPrompter implements prompter with bubbletea programs drawn on stderr.
type teaPrompter struct{}

func runModel[M tea.Model](ctx context.Context, m M) (M, error) {
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		if ctx.Err() != nil {
			return m, ctx.Err()
		}
		return m, errors.Wrap(errors.ErrCodeInternal, err, "prompt failed")
	}
	return final.(M), nil
}

func (teaPrompter) Select(ctx context.Context, title string, options []option) (string, error) {
	m, err := runModel(ctx, NewSelectModel(title, options))
	if err != nil {
		return "", err
	}
	if m.Chosen == nil {
		return "", errAborted
	}
	return m.Chosen.Value, nil
}

func (teaPrompter) MultiSelect(ctx context.Context, title string, options []option) ([]string, error) {
	m, err := runModel(ctx, NewMultiSelectModel(title, options))
	if err != nil {
		return nil, err
	}
	if !m.Done {
		return nil, errAborted
	}
	return m.Values(), nil
}

func (teaPrompter) Input(ctx context.Context, title string, secret bool) (string, error) {
	m, err := runModel(ctx, NewInputModel(title, secret))
	if err != nil {
		return "", err
	}
	if !m.Done {
		return "", errAborted
	}
	return strings.TrimSpace(m.Input.Value()), nil
}

func (teaPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	m, err := runModel(ctx, NewConfirmModel(title, def))
	if err != nil {
		return false, err
	}
	if !m.Done {
		return false, errAborted
	}
	return m.Value, nil
}

// =============================================================================
// SelectModel - Single choice
// =============================================================================

// SelectModel is the bubbletea model for picking one option.
type SelectModel struct {
	Title   string
	Options []option
	Cursor  int
	Chosen  *option
	Height  int
	Offset  int
}

// NewSelectModel creates a new select model.
func NewSelectModel(title string, options []option) SelectModel {
	return SelectModel{Title: title, Options: options, Height: 15}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Options)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Options) == 0 {
				return m, tea.Quit
			}
			opt := m.Options[m.Cursor]
			m.Chosen = &opt
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m SelectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Options))
	for i := m.Offset; i < end; i++ {
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + m.Options[i].Label))
		} else {
			b.WriteString(listNormalStyle.Render("  " + m.Options[i].Label))
		}
		b.WriteString("\n")
	}
	if len(m.Options) > m.Height {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("\n  [%d/%d]", m.Cursor+1, len(m.Options))))
	}
	return b.String()
}

// =============================================================================
// MultiSelectModel - Checklist with type-to-filter
// =============================================================================

// MultiSelectModel is the bubbletea model for picking any number of options.
// Typed characters narrow the list; space toggles the current option.
type MultiSelectModel struct {
	Title   string
	Options []option
	Checked []bool
	Filter  string
	Cursor  int // index into Visible()
	Done    bool
}

// NewMultiSelectModel creates a new multi-select model.
func NewMultiSelectModel(title string, options []option) MultiSelectModel {
	checked := make([]bool, len(options))
	for i, o := range options {
		checked[i] = o.Checked
	}
	return MultiSelectModel{Title: title, Options: options, Checked: checked}
}

// Visible returns the indexes of options matching the filter.
func (m MultiSelectModel) Visible() []int {
	var idx []int
	needle := strings.ToLower(m.Filter)
	for i, o := range m.Options {
		if needle == "" || strings.Contains(strings.ToLower(o.Label), needle) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Values returns the checked option values in option order.
func (m MultiSelectModel) Values() []string {
	var out []string
	for i, o := range m.Options {
		if m.Checked[i] {
			out = append(out, o.Value)
		}
	}
	return out
}

func (m MultiSelectModel) Init() tea.Cmd {
	return nil
}

func (m MultiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	visible := m.Visible()
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.Done = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.Cursor > 0 {
			m.Cursor--
		}
	case tea.KeyDown:
		if m.Cursor < len(visible)-1 {
			m.Cursor++
		}
	case tea.KeySpace:
		if m.Cursor < len(visible) {
			i := visible[m.Cursor]
			m.Checked[i] = !m.Checked[i]
		}
	case tea.KeyBackspace:
		if m.Filter != "" {
			r := []rune(m.Filter)
			m.Filter = string(r[:len(r)-1])
			m.Cursor = 0
		}
	case tea.KeyRunes:
		m.Filter += string(key.Runes)
		m.Cursor = 0
	}
	return m, nil
}

func (m MultiSelectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  type to filter  ⏎ confirm  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(StyleHighlight.Render("filter: " + m.Filter))
	}
	b.WriteString("\n")

	for pos, i := range m.Visible() {
		box := "[ ]"
		if m.Checked[i] {
			box = "[x]"
		}
		line := box + " " + m.Options[i].Label
		if pos == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// InputModel - Single line of text
// =============================================================================

// InputModel is the bubbletea model for free text input.
type InputModel struct {
	Title string
	Input textinput.Model
	Done  bool
}

// NewInputModel creates a focused input. Secret input is masked.
func NewInputModel(title string, secret bool) InputModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Focus()
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return InputModel{Title: title, Input: ti}
}

func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.Done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m InputModel) View() string {
	return StyleTitle.Render(m.Title) + "\n" + m.Input.View() + "\n"
}

// =============================================================================
// ConfirmModel - Yes or no
// =============================================================================

// ConfirmModel is the bubbletea model for a yes/no question.
type ConfirmModel struct {
	Title   string
	Default bool
	Value   bool
	Done    bool
}

// NewConfirmModel creates a confirm model; enter picks def.
func NewConfirmModel(title string, def bool) ConfirmModel {
	return ConfirmModel{Title: title, Default: def}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "y", "Y":
			m.Value, m.Done = true, true
			return m, tea.Quit
		case "n", "N":
			m.Value, m.Done = false, true
			return m, tea.Quit
		case "enter":
			m.Value, m.Done = m.Default, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	hint := "y/N"
	if m.Default {
		hint = "Y/n"
	}
	return StyleTitle.Render(m.Title) + " " + listDimStyle.Render("("+hint+")") + "\n"
}
