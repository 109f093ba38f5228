package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MKhiriev/vault-sync/internal/client"
	"github.com/MKhiriev/vault-sync/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type mainMode int

const (
	modeList mainMode = iota
	modeEdit
	modeConfirmDelete
	modeShareCreate
	modeShareConsume
	modeShareRecover
	modeInviteCreate
	modeShares
)

type propertyRow struct {
	name   string
	value  string
	source string // empty for own properties
}

type stateChangedMsg struct{}

type opDoneMsg struct {
	status string
	err    error
}

type sharesLoadedMsg struct {
	list models.ShareList
	err  error
}

type mainModel struct {
	ctx     context.Context
	session *client.Session
	version string

	mode   mainMode
	rows   []propertyRow
	idx    int
	status string
	errMsg string

	inputs    []textinput.Model
	focus     int
	editName  string // non-empty when editing an existing property
	deleting  string
	shareList models.ShareList
}

func newMainModel(ctx context.Context, session *client.Session, version string) mainModel {
	m := mainModel{ctx: ctx, session: session, version: version}
	m.rows = m.buildRows()
	return m
}

func (m mainModel) Init() tea.Cmd {
	return m.cmdWaitForUpdate()
}

// cmdWaitForUpdate blocks on the session's coalescing change signal; every
// stateChangedMsg re-arms it.
func (m mainModel) cmdWaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.session.Updates():
			return stateChangedMsg{}
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.rows = m.buildRows()
		if m.idx >= len(m.rows) {
			m.idx = max(0, len(m.rows)-1)
		}
		if lastErr := m.session.LastError(); lastErr != "" {
			m.errMsg = lastErr
		}
		return m, m.cmdWaitForUpdate()

	case opDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.status = msg.status
			m.errMsg = ""
		}
		return m, nil

	case sharesLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.mode = modeList
		} else {
			m.shareList = msg.list
			m.mode = modeShares
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m mainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeList {
		return m.handleListKey(msg)
	}
	if m.mode == modeConfirmDelete {
		switch {
		case key.Matches(msg, keys.yes):
			name := m.deleting
			m.mode = modeList
			return m, m.cmdDeleteProperty(name)
		case key.Matches(msg, keys.no), key.Matches(msg, keys.esc):
			m.mode = modeList
		}
		return m, nil
	}
	if m.mode == modeShares {
		if key.Matches(msg, keys.esc) || key.Matches(msg, keys.quit) {
			m.mode = modeList
		}
		return m, nil
	}

	// form modes
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, keys.esc):
		m.mode = modeList
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyEnter && m.focus < len(m.inputs)-1:
		m.inputs[m.focus].Blur()
		if msg.Type == tea.KeyShiftTab {
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
		} else {
			m.focus = (m.focus + 1) % len(m.inputs)
		}
		m.inputs[m.focus].Focus()
		return m, nil
	case msg.Type == tea.KeyEnter:
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m mainModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.idx > 0 {
			m.idx--
		}
	case key.Matches(msg, keys.down):
		if m.idx < len(m.rows)-1 {
			m.idx++
		}
	case key.Matches(msg, keys.new):
		m.editName = ""
		m.openForm(formInput("имя свойства", 64), formInput("значение", 256))
		m.mode = modeEdit
	case key.Matches(msg, keys.edit):
		if row, ok := m.selectedOwnRow(); ok {
			m.editName = row.name
			nameIn := formInput("имя свойства", 64)
			nameIn.SetValue(row.name)
			valueIn := formInput("значение", 256)
			valueIn.SetValue(row.value)
			m.openForm(nameIn, valueIn)
			m.focus = 1
			m.inputs[0].Blur()
			m.inputs[1].Focus()
			m.mode = modeEdit
		}
	case key.Matches(msg, keys.delete):
		if row, ok := m.selectedOwnRow(); ok {
			m.deleting = row.name
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, keys.share):
		codeIn := formInput("код (например X7K2)", 32)
		propIn := formInput("имя свойства", 64)
		if row, ok := m.selectedOwnRow(); ok {
			propIn.SetValue(row.name)
		}
		m.openForm(codeIn, propIn, formInput("TTL в секундах (пусто = по умолчанию)", 16))
		m.mode = modeShareCreate
	case key.Matches(msg, keys.link):
		m.openForm(formInput("код шаринга", 32))
		m.mode = modeShareConsume
	case key.Matches(msg, keys.recover):
		// после перезапуска гранты живы, а ключи нет: код вводится заново
		sourceIn := formInput("id источника", 64)
		if len(m.rows) > 0 && m.rows[m.idx].source != "" {
			sourceIn.SetValue(m.rows[m.idx].source)
		}
		m.openForm(sourceIn, formInput("код шаринга", 32))
		m.mode = modeShareRecover
	case key.Matches(msg, keys.invite):
		m.openForm(formInput("код привязки", 32), formInput("TTL в секундах (пусто = по умолчанию)", 16))
		m.mode = modeInviteCreate
	case key.Matches(msg, keys.list):
		return m, m.cmdLoadShares()
	case key.Matches(msg, keys.copy):
		if len(m.rows) > 0 {
			row := m.rows[m.idx]
			if err := clipboard.WriteAll(row.value); err != nil {
				m.errMsg = fmt.Sprintf("copy to clipboard: %v", err)
			} else {
				m.status = fmt.Sprintf("значение %q скопировано", row.name)
			}
		}
	}
	return m, nil
}

func (m *mainModel) openForm(inputs ...textinput.Model) {
	m.inputs = inputs
	m.focus = 0
	m.inputs[0].Focus()
	m.errMsg = ""
	m.status = ""
}

func (m mainModel) submitForm() (tea.Model, tea.Cmd) {
	values := make([]string, len(m.inputs))
	for i := range m.inputs {
		values[i] = strings.TrimSpace(m.inputs[i].Value())
	}

	switch m.mode {
	case modeEdit:
		name, value := values[0], values[1]
		if name == "" {
			m.errMsg = "имя свойства не может быть пустым"
			return m, nil
		}
		m.mode = modeList
		return m, m.cmdSetProperty(name, value)

	case modeShareCreate:
		code, property := values[0], values[1]
		if code == "" || property == "" {
			m.errMsg = "код и имя свойства обязательны"
			return m, nil
		}
		ttl, err := parseTTL(values[2])
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.mode = modeList
		return m, m.cmdCreateShare(code, property, ttl)

	case modeShareConsume:
		if values[0] == "" {
			m.errMsg = "код не может быть пустым"
			return m, nil
		}
		m.mode = modeList
		return m, m.cmdConsumeShare(values[0])

	case modeShareRecover:
		source, code := values[0], values[1]
		if source == "" || code == "" {
			m.errMsg = "id источника и код обязательны"
			return m, nil
		}
		m.mode = modeList
		return m, m.cmdRecoverShare(source, code)

	case modeInviteCreate:
		if values[0] == "" {
			m.errMsg = "код не может быть пустым"
			return m, nil
		}
		ttl, err := parseTTL(values[1])
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.mode = modeList
		return m, m.cmdCreateInvite(values[0], ttl)
	}

	m.mode = modeList
	return m, nil
}

// ── commands ────────────────────────────────────────────────────────────────

func (m mainModel) cmdSetProperty(name, value string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.SetProperty(name, toJSONValue(value)); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("свойство %q отправлено", name)}
	}
}

func (m mainModel) cmdDeleteProperty(name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.DeleteProperty(name); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("свойство %q удалено", name)}
	}
}

func (m mainModel) cmdCreateShare(code, property string, ttl int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.CreateShare(m.ctx, code, property, ttl); err != nil {
			return opDoneMsg{err: err}
		}
		if err := clipboard.WriteAll(code); err == nil {
			return opDoneMsg{status: fmt.Sprintf("шаринг %q создан, код в буфере обмена", property)}
		}
		return opDoneMsg{status: fmt.Sprintf("шаринг %q создан, код: %s", property, code)}
	}
}

func (m mainModel) cmdConsumeShare(code string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.session.ConsumeShare(m.ctx, code)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("подключено свойство %q от %s", resp.PropertyName, resp.SourceEntityID)}
	}
}

func (m mainModel) cmdRecoverShare(source, code string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.RecoverShareKey(m.ctx, source, code); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("ключ шаринга от %s восстановлен", source)}
	}
}

func (m mainModel) cmdCreateInvite(code string, ttl int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.CreateInvite(m.ctx, code, ttl); err != nil {
			return opDoneMsg{err: err}
		}
		if err := clipboard.WriteAll(code); err == nil {
			return opDoneMsg{status: "код привязки создан и скопирован в буфер обмена"}
		}
		return opDoneMsg{status: fmt.Sprintf("код привязки создан: %s", code)}
	}
}

func (m mainModel) cmdLoadShares() tea.Cmd {
	return func() tea.Msg {
		list, err := m.session.ListShares(m.ctx)
		return sharesLoadedMsg{list: list, err: err}
	}
}

// ── projection ──────────────────────────────────────────────────────────────

func (m mainModel) buildRows() []propertyRow {
	var rows []propertyRow

	if state := m.session.State(); state != nil {
		names := make([]string, 0, len(state.Properties))
		for name := range state.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, propertyRow{name: name, value: renderValue(state.Properties[name])})
		}
	}

	for _, source := range m.session.ShareSources() {
		values := m.session.SharedValues(source)
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, propertyRow{name: name, value: renderValue(values[name]), source: source})
		}
	}

	return rows
}

func (m mainModel) selectedOwnRow() (propertyRow, bool) {
	if len(m.rows) == 0 {
		return propertyRow{}, false
	}
	row := m.rows[m.idx]
	if row.source != "" {
		return propertyRow{}, false
	}
	return row, true
}

func renderValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// toJSONValue keeps already-valid JSON as is, anything else becomes a JSON
// string.
func toJSONValue(value string) json.RawMessage {
	if json.Valid([]byte(value)) && value != "" {
		return json.RawMessage(value)
	}
	quoted, _ := json.Marshal(value)
	return quoted
}

func parseTTL(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	ttl, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ttl < 0 {
		return 0, fmt.Errorf("TTL должен быть неотрицательным числом секунд")
	}
	return ttl, nil
}

func formInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}
