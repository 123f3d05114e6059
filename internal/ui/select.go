package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/input"
)

// PadChoice is one selectable input device.
type PadChoice struct {
	GUID input.DeviceID
	Name string
}

// selectModel wraps a huh form in Bubble Tea for proper escape handling.
type selectModel struct {
	form    *huh.Form
	aborted bool
}

func (m selectModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, tea.Quit
	}

	return m, cmd
}

func (m selectModel) View() string {
	if m.form.State == huh.StateCompleted {
		return ""
	}
	return m.form.View()
}

func runSelect(form *huh.Form) (aborted bool, err error) {
	model := selectModel{form: form}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return false, fmt.Errorf("selection failed: %w", err)
	}
	if m, ok := final.(selectModel); ok && m.aborted {
		return true, nil
	}
	return false, nil
}

// SelectScope asks which device to configure. The keyboard is always
// offered; connected gamepads follow. Returns ok=false when the operator
// backs out.
func SelectScope(pads []PadChoice) (choice PadChoice, ok bool, err error) {
	options := []huh.Option[int]{huh.NewOption("Keyboard", -1)}
	for i, pad := range pads {
		options = append(options, huh.NewOption(pad.Name, i))
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Configure which device?").
				Options(options...).
				Value(&selected),
		),
	)

	aborted, err := runSelect(form)
	if err != nil || aborted {
		return PadChoice{}, false, err
	}
	if selected == -1 {
		return PadChoice{GUID: input.KeyboardDevice, Name: "Keyboard"}, true, nil
	}
	return pads[selected], true, nil
}

// SelectAction asks which action to rebind, grouped by category. Returns
// ok=false when the operator is done.
func SelectAction(actions []catalog.Action) (id string, ok bool, err error) {
	options := make([]huh.Option[string], 0, len(actions)+1)
	category := ""
	for _, a := range actions {
		label := a.DisplayName()
		if a.Category != category {
			category = a.Category
			label = fmt.Sprintf("[%s] %s", category, label)
		}
		options = append(options, huh.NewOption(label, a.ID))
	}
	options = append(options, huh.NewOption("Done", ""))

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Bind which action?").
				Options(options...).
				Value(&selected),
		),
	)

	aborted, err := runSelect(form)
	if err != nil || aborted {
		return "", false, err
	}
	if selected == "" {
		return "", false, nil
	}
	return selected, true, nil
}
