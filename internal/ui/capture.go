package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imarchand/pirobot-remote/internal/input"
)

// keyCaptureModel reads a single key press from the terminal.
type keyCaptureModel struct {
	prompt  string
	code    int
	got     bool
	aborted bool
}

func (m keyCaptureModel) Init() tea.Cmd {
	return nil
}

func (m keyCaptureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		m.aborted = true
		return m, tea.Quit
	}
	if code, ok := keyCode(key); ok {
		m.code = code
		m.got = true
		return m, tea.Quit
	}
	return m, nil
}

func (m keyCaptureModel) View() string {
	if m.got || m.aborted {
		return ""
	}
	return TitleStyle.Render(m.prompt) + "\n" + Muted("Press any key (ctrl+c to cancel)") + "\n"
}

// keyCode maps a terminal key press onto the binding key code space.
func keyCode(key tea.KeyMsg) (int, bool) {
	switch key.Type {
	case tea.KeyRunes:
		if len(key.Runes) == 1 {
			return input.KeyFromRune(key.Runes[0]), true
		}
		return 0, false
	case tea.KeyUp:
		return input.KeyUp, true
	case tea.KeyDown:
		return input.KeyDown, true
	case tea.KeyLeft:
		return input.KeyLeft, true
	case tea.KeyRight:
		return input.KeyRight, true
	case tea.KeyEnter:
		return input.KeyEnter, true
	case tea.KeyTab:
		return input.KeyTab, true
	case tea.KeySpace:
		return input.KeySpace, true
	case tea.KeyBackspace:
		return input.KeyBackspace, true
	case tea.KeyDelete:
		return input.KeyDelete, true
	case tea.KeyInsert:
		return input.KeyInsert, true
	case tea.KeyHome:
		return input.KeyHome, true
	case tea.KeyEnd:
		return input.KeyEnd, true
	case tea.KeyPgUp:
		return input.KeyPageUp, true
	case tea.KeyPgDown:
		return input.KeyPageDown, true
	case tea.KeyEscape:
		return input.KeyEscape, true
	case tea.KeyF1:
		return input.KeyF1, true
	case tea.KeyF2:
		return input.KeyF2, true
	case tea.KeyF3:
		return input.KeyF3, true
	case tea.KeyF4:
		return input.KeyF4, true
	case tea.KeyF5:
		return input.KeyF5, true
	case tea.KeyF6:
		return input.KeyF6, true
	case tea.KeyF7:
		return input.KeyF7, true
	case tea.KeyF8:
		return input.KeyF8, true
	case tea.KeyF9:
		return input.KeyF9, true
	case tea.KeyF10:
		return input.KeyF10, true
	case tea.KeyF11:
		return input.KeyF11, true
	case tea.KeyF12:
		return input.KeyF12, true
	default:
		return 0, false
	}
}

// CaptureKey prompts for a single key press and returns its key code.
// ok=false means the operator cancelled.
func CaptureKey(actionName string) (code int, ok bool, err error) {
	model := keyCaptureModel{prompt: fmt.Sprintf("Define key for %s", actionName)}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, false, fmt.Errorf("key capture failed: %w", err)
	}
	m, ok2 := final.(keyCaptureModel)
	if !ok2 || m.aborted || !m.got {
		return 0, false, nil
	}
	return m.code, true, nil
}
