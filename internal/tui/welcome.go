package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type welcomeStage int

const (
	welcomeStageMenu welcomeStage = iota
	welcomeStageCredential
	welcomeStageInviteCode
)

// welcomeModel collects the passkey credential id and, for a device link,
// the invite code. Both paths register with the credential id; a synced
// passkey resolves to the same entity on every device, the invite only
// transfers the private key.
type welcomeModel struct {
	stage welcomeStage
	idx   int
	input textinput.Model

	choice     LoginChoice
	quitByUser bool
	errMsg     string
}

func newWelcomeModel() welcomeModel {
	in := textinput.New()
	in.CharLimit = 128
	return welcomeModel{input: in}
}

func (m welcomeModel) Init() tea.Cmd { return nil }

func (m welcomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.stage == welcomeStageMenu {
		switch {
		case key.Matches(keyMsg, keys.quit):
			m.quitByUser = true
			return m, tea.Quit
		case key.Matches(keyMsg, keys.up):
			if m.idx > 0 {
				m.idx--
			}
		case key.Matches(keyMsg, keys.down):
			if m.idx < 1 {
				m.idx++
			}
		case key.Matches(keyMsg, keys.enter):
			m.choice = LoginChoice{Register: m.idx == 0}
			m.errMsg = ""
			m.input.SetValue("")
			m.input.Placeholder = "идентификатор passkey"
			m.input.Focus()
			m.stage = welcomeStageCredential
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.esc):
		m.stage = welcomeStageMenu
		return m, nil
	case keyMsg.Type == tea.KeyCtrlC:
		m.quitByUser = true
		return m, tea.Quit
	case key.Matches(keyMsg, keys.enter):
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.errMsg = "значение не может быть пустым"
			return m, nil
		}
		m.errMsg = ""

		if m.stage == welcomeStageCredential {
			m.choice.CredentialID = value
			if m.choice.Register {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.input.Placeholder = "код привязки"
			m.stage = welcomeStageInviteCode
			return m, nil
		}

		m.choice.InviteCode = value
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m welcomeModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vault-sync") + "\n\n")

	switch m.stage {
	case welcomeStageMenu:
		options := []string{"Зарегистрировать новую сущность", "Привязать устройство по коду"}
		for i, opt := range options {
			cursor := "  "
			if i == m.idx {
				cursor = "> "
				opt = selectedStyle.Render(opt)
			}
			b.WriteString(cursor + opt + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("enter — выбрать, q — выход"))
	case welcomeStageCredential:
		b.WriteString("Идентификатор учётных данных (passkey):\n\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString("\n" + helpStyle.Render("enter — продолжить, esc — назад"))
	case welcomeStageInviteCode:
		b.WriteString("Код привязки с другого устройства:\n\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString("\n" + helpStyle.Render("enter — продолжить, esc — назад"))
	}

	if m.errMsg != "" {
		b.WriteString("\n\n" + errorStyle.Render(fmt.Sprintf("Ошибка: %s", m.errMsg)))
	}

	return appStyle.Render(b.String())
}
