package tui

import (
	"fmt"
	"strings"
)

func (m mainModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("vault-sync %s — %s", m.version, m.session.EntityID())) + "\n\n")

	switch m.mode {
	case modeList, modeConfirmDelete:
		b.WriteString(m.viewList())
	case modeEdit:
		b.WriteString(m.viewForm("Свойство"))
	case modeShareCreate:
		b.WriteString(m.viewForm("Новый шаринг"))
	case modeShareConsume:
		b.WriteString(m.viewForm("Подключить шаринг"))
	case modeShareRecover:
		b.WriteString(m.viewForm("Восстановить ключ шаринга"))
	case modeInviteCreate:
		b.WriteString(m.viewForm("Код привязки устройства"))
	case modeShares:
		b.WriteString(m.viewShares())
	}

	if m.status != "" {
		b.WriteString("\n\n" + helpStyle.Render(m.status))
	}
	if m.errMsg != "" {
		b.WriteString("\n\n" + errorStyle.Render("Ошибка: "+m.errMsg))
	}

	if m.mode == modeConfirmDelete {
		b.WriteString("\n\n" + overlayBoxStyle.Render(
			fmt.Sprintf("Удалить свойство %q? (y/n)", m.deleting)))
	}

	return appStyle.Render(b.String())
}

func (m mainModel) viewList() string {
	var b strings.Builder

	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("Свойств пока нет. Нажмите n, чтобы добавить."))
	}

	for i, row := range m.rows {
		cursor := "  "
		line := fmt.Sprintf("%s = %s", row.name, row.value)
		if row.source != "" {
			line = sharedStyle.Render(fmt.Sprintf("%s = %s  (от %s)", row.name, row.value, row.source))
		}
		if i == m.idx {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(
		"n — новое, e — изменить, d — удалить, y — копировать,\n"+
			"s — поделиться, c — подключить шаринг, r — восстановить ключ,\n"+
			"i — код привязки, g — гранты, q — выход"))

	return b.String()
}

func (m mainModel) viewForm(title string) string {
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View() + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab — следующее поле, enter — отправить, esc — отмена"))
	return b.String()
}

func (m mainModel) viewShares() string {
	var b strings.Builder
	b.WriteString("Активные гранты\n\n")

	b.WriteString("Исходящие:\n")
	if len(m.shareList.Outgoing) == 0 {
		b.WriteString(helpStyle.Render("  нет\n"))
	}
	for _, out := range m.shareList.Outgoing {
		b.WriteString(fmt.Sprintf("  %s -> %s\n", out.PropertyName, out.TargetEntityID))
	}

	b.WriteString("\nВходящие:\n")
	if len(m.shareList.Incoming) == 0 {
		b.WriteString(helpStyle.Render("  нет\n"))
	}
	for _, in := range m.shareList.Incoming {
		b.WriteString(fmt.Sprintf("  %s <- %s\n", in.PropertyName, in.SourceEntityID))
	}

	b.WriteString("\n" + helpStyle.Render("esc — назад"))
	return b.String()
}
