package chattui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

var (
	tabStyle         = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	tabActiveStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("212"))
	badgeStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	listCursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	listEntryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	unreadCountStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	staffMsgStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	custMsgStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pendingMsgStyle  = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("39"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	hintStyle        = lipgloss.NewStyle().Faint(true)
	composeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("231"))
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	if m.selected != nil {
		b.WriteString(m.renderThread())
	} else {
		b.WriteString(m.renderList())
	}
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}
	b.WriteString("\n" + m.renderHints())
	return b.String()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, 4)
	for _, tab := range support.Statuses() {
		label := string(tab)
		if tab == m.tab {
			parts = append(parts, tabActiveStyle.Render("["+label+"]"))
			continue
		}
		parts = append(parts, tabStyle.Render(label))
	}
	if badge := m.eng.Store().UnreadBadge(); badge > 0 {
		parts = append(parts, badgeStyle.Render(fmt.Sprintf("● %d unread", badge)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderList() string {
	if len(m.conversations) == 0 {
		return hintStyle.Render("no conversations in this tab")
	}
	var b strings.Builder
	for i, conv := range m.conversations {
		line := conv.Participant.Name
		if line == "" {
			line = conv.ID
		}
		if conv.UnreadForStaff > 0 {
			line += " " + unreadCountStyle.Render(fmt.Sprintf("(%d)", conv.UnreadForStaff))
		}
		if n := len(conv.Messages); n > 0 {
			preview := conv.Messages[n-1].Content
			if len(preview) > 48 {
				preview = preview[:48] + "…"
			}
			line += hintStyle.Render("  " + preview)
		}
		if i == m.cursor {
			b.WriteString(listCursorStyle.Render("> " + line))
		} else {
			b.WriteString(listEntryStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderThread() string {
	conv := m.selected
	var b strings.Builder
	title := conv.Participant.Name
	if title == "" {
		title = conv.ID
	}
	b.WriteString(listCursorStyle.Render(title) + hintStyle.Render("  "+string(conv.Status)) + "\n\n")

	for _, message := range conv.Messages {
		prefix := conv.Participant.Name
		style := custMsgStyle
		if message.Author == support.AuthorStaff {
			prefix = "you"
			style = staffMsgStyle
		}
		if message.Pending() {
			style = pendingMsgStyle
			prefix += " (sending)"
		}
		stamp := message.CreatedAt.Local().Format("15:04")
		b.WriteString(style.Render(fmt.Sprintf("%s %s: %s", stamp, prefix, message.Content)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + composeStyle.Render("> "+m.compose+"▌"))
	return b.String()
}

func (m *Model) renderHints() string {
	if m.selected != nil {
		return hintStyle.Render("enter send · esc back · ctrl+c quit")
	}
	return hintStyle.Render("j/k move · enter open · 1/2/3 tabs · R resolve · A archive · O reopen · q quit")
}
