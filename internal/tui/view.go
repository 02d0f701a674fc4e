package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/internal/chat"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width > 0 && (m.width < minWindowWidth || m.height < minWindowHeight) {
		return fmt.Sprintf("Window too small (%dx%d). Resize to at least %dx%d.",
			m.width, m.height, minWindowWidth, minWindowHeight)
	}

	width := m.effectiveWidth()
	height := m.effectiveHeight()

	header := m.renderHeader(width)
	footer := m.renderFooter(width)
	paneHeight := maxInt(6, height-lipgloss.Height(header)-lipgloss.Height(footer))

	sidebar := m.renderSidebar(sidebarWidth, paneHeight)
	conversation := m.renderConversation(width-sidebarWidth, paneHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, conversation)

	if m.mode == modeHelp {
		body = m.renderHelp(width, paneHeight)
	}

	return strings.Join([]string{header, body, footer}, "\n")
}

func (m model) effectiveWidth() int {
	if m.width <= 0 {
		return minWindowWidth + 20
	}
	return m.width
}

func (m model) effectiveHeight() int {
	if m.height <= 0 {
		return minWindowHeight + 8
	}
	return m.height
}

func (m model) renderHeader(width int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Accent)).
		Bold(true).
		Render("parley")

	self := m.ctrl.Self()
	identity := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.TextMuted)).
		Render(" " + self.Username)

	var badge string
	if total := m.ctrl.UnreadTotal(); total > 0 {
		badge = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Unread)).
			Bold(true).
			Render(fmt.Sprintf("  %d unread", total))
	}

	link := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.TextMuted)).
		Render(fmt.Sprintf("  conv:%s notif:%s", m.mgr.ConversationState(), m.mgr.NotificationState()))

	line := title + identity + badge + link
	return lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color(m.palette.Panel)).
		Render(line)
}

func (m model) renderSidebar(width, height int) string {
	var lines []string
	lines = append(lines, m.renderTabBar(width-2))

	if m.mode == modeSearch || m.searchText != "" {
		prompt := "/" + m.searchText
		if m.mode == modeSearch {
			prompt += "_"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Focus)).
			Render(prompt))
	}

	entries := m.sidebarEntries(width - 4)
	if len(entries) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.TextMuted)).
			Render("  (empty)"))
	}
	lines = append(lines, entries...)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Border)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (m model) renderTabBar(width int) string {
	active := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Text)).
		Background(lipgloss.Color(m.palette.PanelAlt)).
		Bold(true).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.TextMuted)).
		Padding(0, 1)

	private := inactive.Render("Private")
	groups := inactive.Render("Groups")
	if m.tab == tabPrivate {
		private = active.Render("Private")
	} else {
		groups = active.Render("Groups")
	}
	bar := private + " " + groups
	return lipgloss.NewStyle().Width(width).Render(bar)
}

// sidebarEntries renders the roster for the current tab, most recently
// active first, with unread badges.
func (m model) sidebarEntries(width int) []string {
	var lines []string
	switch m.tab {
	case tabPrivate:
		for i, u := range m.visibleUsers() {
			lines = append(lines, m.rosterLine(i, u.Username, m.ctrl.Unread(chat.UserKey(u.ID)), width))
		}
	case tabGroups:
		for i, g := range m.visibleGroups() {
			lines = append(lines, m.rosterLine(i, g.Name, m.ctrl.Unread(chat.GroupKey(g.ID)), width))
		}
	}
	return lines
}

func (m model) rosterLine(idx int, name string, unread, width int) string {
	marker := "  "
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text))
	if idx == m.selectedIdx && m.focus == focusSidebar {
		marker = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Focus)).
			Bold(true).
			Render("> ")
		style = style.Background(lipgloss.Color(m.palette.PanelAlt))
	}

	var badge string
	if unread > 0 {
		badge = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Unread)).
			Bold(true).
			Render(fmt.Sprintf(" (%d)", unread))
	}

	return marker + style.Render(truncate(name, maxInt(4, width-6))) + badge
}

func (m model) renderConversation(width, height int) string {
	innerWidth := maxInt(10, width-4)

	var lines []string
	lines = append(lines, m.renderToasts(innerWidth)...)

	ref, ok := m.ctrl.ActiveRef()
	switch {
	case !ok:
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.TextMuted)).
			Render("Select a conversation. Enter opens, / searches, n creates a group, ? for help."))
	case m.ctrl.Err() != "":
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Error)).
			Render(m.ctrl.Err()))
	case !ref.Resolved:
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.TextMuted)).
			Render("Opening "+ref.DisplayName+"..."))
	default:
		lines = append(lines, m.renderTitle(ref, innerWidth))
		lines = append(lines, m.renderMessages(innerWidth, height-len(lines)-4)...)
	}

	composer := m.renderComposer(innerWidth)

	content := strings.Join(lines, "\n")
	pane := lipgloss.NewStyle().
		Width(width).
		Height(height-2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Border)).
		Padding(0, 1).
		Render(content)

	return pane + "\n" + composer
}

func (m model) renderTitle(ref chat.ConversationRef, width int) string {
	label := ref.DisplayName
	if ref.Kind == chat.KindGroup {
		label = "# " + label
	} else {
		label = "@ " + label
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color(m.palette.Accent)).
		Bold(true).
		Render(truncate(label, width))
}

// renderMessages renders the tail of the active conversation. Pending
// sends are dimmed until the server confirms them.
func (m model) renderMessages(width, maxLines int) []string {
	messages := m.ctrl.Messages()
	if maxLines > 0 && len(messages) > maxLines {
		messages = messages[len(messages)-maxLines:]
	}

	selfID := m.ctrl.Self().ID
	var lines []string
	for _, msg := range messages {
		stamp := msg.CreatedAt.Format("15:04")
		sender := msg.SenderName

		senderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text)).Bold(true)
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text))
		if msg.SenderID == selfID && selfID != 0 {
			senderStyle = senderStyle.Foreground(lipgloss.Color(m.palette.Accent))
		}

		suffix := ""
		if msg.Optimistic {
			textStyle = textStyle.Foreground(lipgloss.Color(m.palette.Optimistic))
			suffix = " ..."
		}

		line := fmt.Sprintf("%s %s: %s%s",
			lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted)).Render(stamp),
			senderStyle.Render(sender),
			textStyle.Render(truncate(msg.Text, maxInt(8, width-len(sender)-10))),
			suffix)
		lines = append(lines, line)
	}
	return lines
}

// renderToasts stacks the live transient notifications at the top of
// the conversation pane.
func (m model) renderToasts(width int) []string {
	toasts := m.ctrl.Toasts()
	if len(toasts) == 0 {
		return nil
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Unread)).
		Padding(0, 1)
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Unread)).Bold(true)
	body := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text))

	var lines []string
	for _, t := range toasts {
		content := title.Render(truncate(t.Title, width-4)) + "\n" +
			body.Render(truncate(t.Body, width-4))
		lines = append(lines, strings.Split(box.Render(content), "\n")...)
	}
	return lines
}

func (m model) renderComposer(width int) string {
	if m.mode == modeNewGroup {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Focus)).
			Render("New group name: " + m.newGroupName + "_")
	}
	if m.mode == modeAddMember {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Focus)).
			Render("Add member (username): " + m.memberName + "_")
	}

	prompt := "> "
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.TextMuted))
	text := m.composer
	if m.focus == focusComposer {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Text))
		text += "_"
	}
	return style.Render(prompt + truncate(text, maxInt(8, width-4)))
}

func (m model) renderFooter(width int) string {
	var text string
	switch {
	case m.statusText != "":
		text = m.statusText
	case m.focus == focusComposer:
		text = "enter send | esc back to roster"
	default:
		text = "enter open | tab switch | / search | n new group | i compose | x dismiss toast | q quit"
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color(m.palette.TextMuted)).
		Render(truncate(text, width))
}

func (m model) renderHelp(width, height int) string {
	lines := []string{
		"Keys",
		"",
		"  enter      open selected conversation / send message",
		"  tab        switch between Private and Groups",
		"  up/down    move selection (k/j also work)",
		"  /          filter the roster",
		"  n          create a group",
		"  a          add a member to the open group",
		"  i          focus the composer",
		"  esc        leave composer / close conversation / clear filter",
		"  x          dismiss the oldest toast",
		"  r          reload the roster",
		"  q, ctrl+c  quit",
		"",
		"Press any key to close.",
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Border)).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
