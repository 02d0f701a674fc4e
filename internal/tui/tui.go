// Package tui implements the terminal interface: the roster sidebar,
// the conversation pane with optimistic sends, the composer, and the
// toast stack. All synchronization state lives in the chat controller;
// the model routes events into it from the bubbletea update loop.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley/internal/api"
	"github.com/parleychat/parley/internal/channel"
	"github.com/parleychat/parley/internal/chat"
)

const (
	requestTimeout = 10 * time.Second
	pruneInterval  = time.Second

	minWindowWidth  = 60
	minWindowHeight = 16
	sidebarWidth    = 28
)

// Config controls TUI behavior.
type Config struct {
	Theme string
}

// Run starts the interface and blocks until the user quits.
func Run(ctrl *chat.Controller, client *api.Client, mgr *channel.Manager, cfg Config) error {
	model := newModel(ctrl, client, mgr, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type uiMode int

const (
	modeMain uiMode = iota
	modeSearch
	modeNewGroup
	modeAddMember
	modeHelp
)

type sidebarTab int

const (
	tabPrivate sidebarTab = iota
	tabGroups
)

type paneFocus int

const (
	focusSidebar paneFocus = iota
	focusComposer
)

type model struct {
	ctrl    *chat.Controller
	api     *api.Client
	mgr     *channel.Manager
	palette tuiPalette

	width  int
	height int

	mode        uiMode
	tab         sidebarTab
	focus       paneFocus
	selectedIdx int

	searchText    string
	composer      string
	newGroupName  string
	memberName    string
	memberGroupID int64

	statusText    string
	statusExpires time.Time

	quitting bool
}

type rosterMsg struct {
	users  []api.User
	groups []api.Group
	err    error
}

// historyMsg carries the result of a conversation open. The epoch ties
// it back to the selection that started the fetch; the controller
// discards it if the user has moved on since.
type historyMsg struct {
	epoch    chat.Epoch
	chatID   int64
	messages []chat.Message
	err      error
}

type channelEventMsg struct {
	ev channel.Event
}

type groupCreatedMsg struct {
	group *api.CreateGroupResponse
	err   error
}

type memberAddedMsg struct {
	username string
	err      error
}

type tickMsg time.Time

func newModel(ctrl *chat.Controller, client *api.Client, mgr *channel.Manager, cfg Config) model {
	return model{
		ctrl:    ctrl,
		api:     client,
		mgr:     mgr,
		palette: resolvePalette(cfg.Theme),
		mode:    modeMain,
		tab:     tabPrivate,
		focus:   focusSidebar,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchRosterCmd(), m.listenCmd(), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.ctrl.PruneToasts(time.Time(msg))
		if !m.statusExpires.IsZero() && time.Time(msg).After(m.statusExpires) {
			m.statusText = ""
		}
		return m, tickCmd()

	case rosterMsg:
		if msg.err != nil {
			m.setStatus("roster load failed: " + msg.err.Error())
			return m, nil
		}
		m.ctrl.SetRoster(rosterUsers(msg.users), rosterGroups(msg.groups))
		m.clampSelection()
		return m, nil

	case historyMsg:
		m.ctrl.CompleteSelect(msg.epoch, msg.chatID, msg.messages, msg.err)
		return m, nil

	case channelEventMsg:
		m.handleChannelEvent(msg.ev)
		return m, m.listenCmd()

	case groupCreatedMsg:
		if msg.err != nil {
			m.setStatus("group creation failed: " + msg.err.Error())
			return m, nil
		}
		m.ctrl.AddGroup(chat.Group{ID: msg.group.GroupID, Name: msg.group.GroupName})
		m.tab = tabGroups
		m.setStatus("created group " + msg.group.GroupName)
		return m, nil

	case memberAddedMsg:
		if msg.err != nil {
			m.setStatus("adding member failed: " + msg.err.Error())
			return m, nil
		}
		m.setStatus("added " + msg.username)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.mgr.Close()
			return m, tea.Quit
		}

		switch m.mode {
		case modeSearch:
			return m.updateSearchMode(msg)
		case modeNewGroup:
			return m.updateNewGroupMode(msg)
		case modeAddMember:
			return m.updateAddMemberMode(msg)
		case modeHelp:
			m.mode = modeMain
			return m, nil
		default:
			return m.updateMainMode(msg)
		}
	}

	return m, nil
}

// handleChannelEvent routes one inbound websocket event into the
// controller. Runs on the update goroutine, so controller mutations are
// serialized with key handling.
func (m *model) handleChannelEvent(ev channel.Event) {
	if ev.Kind == channel.EventClosed {
		if ev.Err != nil {
			m.setStatus(ev.Source.String() + " channel lost: " + ev.Err.Error())
		}
		return
	}

	switch ev.Source {
	case channel.SourceConversation:
		decoded, err := chat.DecodeMessageEvent(ev.Data)
		if err != nil {
			return
		}
		m.ctrl.HandleConversationEvent(decoded)
	case channel.SourceNotification:
		decoded, err := chat.DecodeNotificationEvent(ev.Data)
		if err != nil {
			return
		}
		m.ctrl.HandleNotificationEvent(decoded)
	}
}

func (m model) updateMainMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusComposer {
		return m.updateComposer(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		m.mgr.Close()
		return m, tea.Quit
	case "tab":
		if m.tab == tabPrivate {
			m.tab = tabGroups
		} else {
			m.tab = tabPrivate
		}
		m.selectedIdx = 0
		return m, nil
	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil
	case "down", "j":
		if m.selectedIdx < m.visibleCount()-1 {
			m.selectedIdx++
		}
		return m, nil
	case "enter":
		return m.openSelected()
	case "esc":
		if _, ok := m.ctrl.ActiveRef(); ok {
			m.ctrl.Deselect()
		}
		m.searchText = ""
		return m, nil
	case "/":
		m.mode = modeSearch
		return m, nil
	case "n":
		m.mode = modeNewGroup
		m.newGroupName = ""
		return m, nil
	case "a":
		if ref, ok := m.ctrl.ActiveRef(); ok && ref.Kind == chat.KindGroup {
			m.mode = modeAddMember
			m.memberName = ""
			m.memberGroupID = ref.ID
		}
		return m, nil
	case "i":
		if _, ok := m.ctrl.ActiveRef(); ok {
			m.focus = focusComposer
		}
		return m, nil
	case "x":
		m.dismissOldestToast()
		return m, nil
	case "r":
		return m, m.fetchRosterCmd()
	case "?":
		m.mode = modeHelp
		return m, nil
	}
	return m, nil
}

func (m model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusSidebar
		return m, nil
	case "enter":
		if m.ctrl.SendMessage(m.composer) {
			m.composer = ""
		}
		return m, nil
	case "backspace":
		if len(m.composer) > 0 {
			runes := []rune(m.composer)
			m.composer = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.composer += string(msg.Runes)
		if msg.Type == tea.KeySpace {
			m.composer += " "
		}
	}
	return m, nil
}

func (m model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMain
		m.searchText = ""
		m.selectedIdx = 0
		return m, nil
	case "enter":
		m.mode = modeMain
		m.selectedIdx = 0
		return m, nil
	case "backspace":
		if len(m.searchText) > 0 {
			runes := []rune(m.searchText)
			m.searchText = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.searchText += string(msg.Runes)
	}
	return m, nil
}

func (m model) updateNewGroupMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMain
		m.newGroupName = ""
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.newGroupName)
		m.mode = modeMain
		m.newGroupName = ""
		if name == "" {
			return m, nil
		}
		return m, m.createGroupCmd(name)
	case "backspace":
		if len(m.newGroupName) > 0 {
			runes := []rune(m.newGroupName)
			m.newGroupName = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.newGroupName += string(msg.Runes)
		if msg.Type == tea.KeySpace {
			m.newGroupName += " "
		}
	}
	return m, nil
}

func (m model) updateAddMemberMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMain
		m.memberName = ""
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.memberName)
		groupID := m.memberGroupID
		m.mode = modeMain
		m.memberName = ""
		if name == "" {
			return m, nil
		}
		user, ok := m.findUser(name)
		if !ok {
			m.setStatus("no user named " + name)
			return m, nil
		}
		return m, m.addMemberCmd(groupID, user)
	case "backspace":
		if len(m.memberName) > 0 {
			runes := []rune(m.memberName)
			m.memberName = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.memberName += string(msg.Runes)
	}
	return m, nil
}

func (m model) findUser(username string) (chat.User, bool) {
	for _, u := range m.ctrl.Users() {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return chat.User{}, false
}

// openSelected begins selecting the highlighted roster entry and kicks
// off its history fetch, tagged with the selection epoch.
func (m model) openSelected() (tea.Model, tea.Cmd) {
	switch m.tab {
	case tabPrivate:
		users := m.visibleUsers()
		if m.selectedIdx >= len(users) {
			return m, nil
		}
		u := users[m.selectedIdx]
		epoch := m.ctrl.BeginSelect(chat.DirectRef(u.ID, u.Username))
		m.focus = focusComposer
		return m, m.openDirectCmd(epoch, u.ID)
	case tabGroups:
		groups := m.visibleGroups()
		if m.selectedIdx >= len(groups) {
			return m, nil
		}
		g := groups[m.selectedIdx]
		epoch := m.ctrl.BeginSelect(chat.GroupRef(g.ID, g.Name))
		m.focus = focusComposer
		return m, m.openGroupCmd(epoch, g.ID)
	}
	return m, nil
}

func (m *model) dismissOldestToast() {
	toasts := m.ctrl.Toasts()
	if len(toasts) > 0 {
		m.ctrl.DismissToast(toasts[0].ID)
	}
}

func (m *model) setStatus(text string) {
	m.statusText = text
	m.statusExpires = time.Now().Add(5 * time.Second)
}

func (m *model) clampSelection() {
	if count := m.visibleCount(); m.selectedIdx >= count {
		m.selectedIdx = maxInt(0, count-1)
	}
}

func (m model) visibleUsers() []chat.User {
	return filterUsers(m.ctrl.Users(), m.searchText)
}

func (m model) visibleGroups() []chat.Group {
	return filterGroups(m.ctrl.Groups(), m.searchText)
}

func (m model) visibleCount() int {
	if m.tab == tabGroups {
		return len(m.visibleGroups())
	}
	return len(m.visibleUsers())
}

func filterUsers(users []chat.User, query string) []chat.User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users
	}
	out := make([]chat.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), query) {
			out = append(out, u)
		}
	}
	return out
}

func filterGroups(groups []chat.Group, query string) []chat.Group {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return groups
	}
	out := make([]chat.Group, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), query) {
			out = append(out, g)
		}
	}
	return out
}

func rosterUsers(users []api.User) []chat.User {
	out := make([]chat.User, 0, len(users))
	for _, u := range users {
		out = append(out, chat.User{ID: u.ID, Username: u.Username, AvatarURL: u.ProfilePicURL})
	}
	return out
}

func rosterGroups(groups []api.Group) []chat.Group {
	out := make([]chat.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, chat.Group{ID: g.ID, Name: g.Name})
	}
	return out
}

// wireHistory converts server history entries into message list entries.
func wireHistory(wire []api.WireMessage, now time.Time) []chat.Message {
	out := make([]chat.Message, 0, len(wire))
	for _, wm := range wire {
		out = append(out, chat.Message{
			ID:         wm.ID,
			SenderID:   wm.SenderID,
			SenderName: wm.Sender,
			Text:       wm.Text,
			CreatedAt:  chat.ParseEventTime(wm.CreatedAt, now),
		})
	}
	return out
}

func (m model) fetchRosterCmd() tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		users, err := client.GetUsers(ctx)
		if err != nil {
			return rosterMsg{err: err}
		}
		groups, err := client.GetGroups(ctx)
		if err != nil {
			return rosterMsg{err: err}
		}
		return rosterMsg{users: users, groups: groups}
	}
}

func (m model) openDirectCmd(epoch chat.Epoch, userID int64) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.StartDirectChat(ctx, userID)
		if err != nil {
			return historyMsg{epoch: epoch, err: err}
		}
		return historyMsg{
			epoch:    epoch,
			chatID:   resp.ChatID,
			messages: wireHistory(resp.Messages, time.Now()),
		}
	}
}

func (m model) openGroupCmd(epoch chat.Epoch, groupID int64) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.GroupMessages(ctx, groupID)
		if err != nil {
			return historyMsg{epoch: epoch, err: err}
		}
		return historyMsg{
			epoch:    epoch,
			chatID:   resp.GroupID,
			messages: wireHistory(resp.Messages, time.Now()),
		}
	}
}

func (m model) createGroupCmd(name string) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.CreateGroup(ctx, name)
		return groupCreatedMsg{group: resp, err: err}
	}
}

func (m model) addMemberCmd(groupID int64, user chat.User) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := client.AddUsersToGroup(ctx, groupID, []int64{user.ID})
		return memberAddedMsg{username: user.Username, err: err}
	}
}

// listenCmd delivers the next inbound channel event. Reissued after
// every delivery so the stream keeps draining.
func (m model) listenCmd() tea.Cmd {
	events := m.mgr.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return channelEventMsg{ev: ev}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pruneInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
