// Package tui implements the interactive terminal client.
//
// The UI is a thin projection of one [client.Session]: every screen renders
// from the session's reduced state and every action goes through the
// session, so what the terminal shows is always what the server stream
// actually contains.
package tui

import (
	"context"
	"errors"

	"github.com/MKhiriev/vault-sync/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUserQuit = errors.New("вышел из программы")

// TUI drives the terminal client over an established session.
type TUI struct {
	session *client.Session
	version string
}

// New constructs the terminal client. The session must already hold keys
// (via Bootstrap or ConsumeInvite) before Run is called.
func New(session *client.Session, version string) *TUI {
	return &TUI{session: session, version: version}
}

// LoginChoice is the outcome of the welcome flow: either register a fresh
// entity with a credential id, or link this device with an invite code.
type LoginChoice struct {
	Register     bool
	CredentialID string
	InviteCode   string
}

// LoginFlow runs the welcome screen and returns the user's choice. The
// caller performs the actual Bootstrap / ConsumeInvite so key material never
// passes through the UI layer.
func LoginFlow(ctx context.Context) (LoginChoice, error) {
	finalModel, err := tea.NewProgram(newWelcomeModel(), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return LoginChoice{}, err
	}

	result, ok := finalModel.(welcomeModel)
	if !ok {
		return LoginChoice{}, tea.ErrProgramKilled
	}
	if result.quitByUser {
		return LoginChoice{}, ErrUserQuit
	}
	return result.choice, nil
}

// Run starts the main loop and blocks until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	model := newMainModel(ctx, t.session, t.version)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
