// Package tui is the interactive item list.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FACorreiaa/go-item-tracker/internal/client"
	"github.com/FACorreiaa/go-item-tracker/internal/client/ui"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

const msgNotLoggedIn = "Not logged in. Run `tracker login` first."

type view int

const (
	viewList view = iota
	viewFilter
	viewDetail
	viewForm
	viewConfirm
)

// statusCycle is the order the status filter steps through.
var statusCycle = []string{"", string(types.StatusActive), string(types.StatusDone)}

type (
	itemsMsg struct {
		items []types.Item
		err   error
	}
	detailMsg struct {
		item *types.Item
		err  error
	}
	savedMsg struct {
		item    *types.Item
		created bool
		err     error
	}
	deletedMsg struct {
		id  int64
		err error
	}
)

// listItem adapts an item to bubbles/list.Item.
type listItem struct{ item types.Item }

func (i listItem) Title() string { return i.item.Title }
func (i listItem) Description() string { return i.item.Description }
func (i listItem) FilterValue() string { return i.item.Title }

type itemDelegate struct{}

func (d itemDelegate) Height() int { return 1 }
func (d itemDelegate) Spacing() int { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+ui.ItemLine(it.item))
}

// form edits title, description and status. editing is 0 for a new item.
type form struct {
	editing int64
	inputs  []textinput.Model
	focus   int
}

const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
)

func newForm(it *types.Item) form {
	f := form{inputs: make([]textinput.Model, 3)}
	for i, placeholder := range []string{"Title", "Description", "active or done"} {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = placeholder
		f.inputs[i] = ti
	}
	f.inputs[fieldTitle].CharLimit = 200
	f.inputs[fieldStatus].SetValue(string(types.StatusActive))
	if it != nil {
		f.editing = it.ID
		f.inputs[fieldTitle].SetValue(it.Title)
		f.inputs[fieldDescription].SetValue(it.Description)
		f.inputs[fieldStatus].SetValue(string(it.Status))
	}
	f.inputs[fieldTitle].Focus()
	return f
}

func (f *form) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f form) input() types.ItemInput {
	return types.ItemInput{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		Status:      f.inputs[fieldStatus].Value(),
	}
}

type Model struct {
	ctx     context.Context
	session *client.Session

	list   list.Model
	items  []types.Item
	status int
	query  string
	filter textinput.Model

	view   view
	detail *types.Item
	form   form

	notice string
	err    string
	width  int
	height int
}

var (
	keyStatus = key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status"))
	keyFilter = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search"))
	keyAdd    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	keyEdit   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	keyDelete = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	keyReload = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
)

func New(ctx context.Context, s *client.Session) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding {
		return []key.Binding{keyStatus, keyFilter, keyAdd, keyEdit, keyDelete, keyReload}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "text in title or description"

	m := Model{ctx: ctx, session: s, list: l, filter: filter, width: 80, height: 24}
	m.list.Title = m.title()
	return m
}

// Run starts the interactive list in the alternate screen.
func Run(ctx context.Context, s *client.Session) error {
	_, err := tea.NewProgram(New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.load() }

func (m Model) statusFilter() string { return statusCycle[m.status] }

func (m Model) title() string {
	t := ui.Header(m.items)
	if s := m.statusFilter(); s != "" {
		t += "  " + ui.MutedStyle.Render("status="+s)
	}
	if m.query != "" {
		t += "  " + ui.MutedStyle.Render(fmt.Sprintf("q=%q", m.query))
	}
	return t
}

func (m Model) load() tea.Cmd {
	c, ctx, status, q := m.session.Client(), m.ctx, m.statusFilter(), m.query
	return func() tea.Msg {
		items, err := c.ListItems(ctx, status, q)
		return itemsMsg{items: items, err: err}
	}
}

func (m Model) fetch(id int64) tea.Cmd {
	c, ctx := m.session.Client(), m.ctx
	return func() tea.Msg {
		it, err := c.GetItem(ctx, id)
		return detailMsg{item: it, err: err}
	}
}

func (m Model) save(f form) tea.Cmd {
	c, ctx, in := m.session.Client(), m.ctx, f.input()
	return func() tea.Msg {
		if f.editing == 0 {
			it, err := c.CreateItem(ctx, in)
			return savedMsg{item: it, created: true, err: err}
		}
		it, err := c.UpdateItem(ctx, f.editing, in)
		return savedMsg{item: it, err: err}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	c, ctx := m.session.Client(), m.ctx
	return func() tea.Msg {
		return deletedMsg{id: id, err: c.DeleteItem(ctx, id)}
	}
}

func (m Model) selected() (types.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	return li.item, ok
}

// target is the item an edit or delete applies to.
func (m Model) target() (types.Item, bool) {
	if m.view == viewDetail && m.detail != nil {
		return *m.detail, true
	}
	return m.selected()
}

func (m *Model) loggedIn() bool {
	if m.session.User() == nil {
		m.err = msgNotLoggedIn
		return false
	}
	return true
}

func (m *Model) setItems(items []types.Item) tea.Cmd {
	m.items = items
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{item: it})
	}
	m.list.Title = m.title()
	return m.list.SetItems(li)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case itemsMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		return m, m.setItems(msg.items)

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.detail, m.view, m.err = msg.item, viewDetail, ""
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		if msg.created {
			// A new item opens in the detail view; the list refreshes behind it.
			m.notice, m.view, m.detail = fmt.Sprintf("created #%d", msg.item.ID), viewDetail, msg.item
			return m, m.load()
		}
		m.notice, m.view, m.detail = fmt.Sprintf("saved #%d", msg.item.ID), viewList, nil
		return m, m.load()

	case deletedMsg:
		m.view, m.detail = viewList, nil
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.notice, m.err = fmt.Sprintf("deleted #%d", msg.id), ""
		return m, m.load()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case viewFilter:
			return m.updateFilter(msg)
		case viewDetail:
			return m.updateDetail(msg)
		case viewForm:
			return m.updateForm(msg)
		case viewConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "s":
		m.status = (m.status + 1) % len(statusCycle)
		m.notice, m.err = "", ""
		return m, m.load()
	case "/":
		m.view = viewFilter
		m.filter.SetValue(m.query)
		m.filter.CursorEnd()
		return m, m.filter.Focus()
	case "r":
		m.notice, m.err = "", ""
		return m, m.load()
	case "enter":
		if it, ok := m.selected(); ok {
			return m, m.fetch(it.ID)
		}
		return m, nil
	case "a":
		if !m.loggedIn() {
			return m, nil
		}
		m.form, m.view, m.err = newForm(nil), viewForm, ""
		return m, textinput.Blink
	case "e":
		return m.startEdit()
	case "d":
		return m.startDelete()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	it, ok := m.target()
	if !ok || !m.loggedIn() {
		return m, nil
	}
	m.form, m.view, m.err = newForm(&it), viewForm, ""
	return m, textinput.Blink
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	it, ok := m.target()
	if !ok || !m.loggedIn() {
		return m, nil
	}
	m.detail, m.view, m.err = &it, viewConfirm, ""
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.query = strings.TrimSpace(m.filter.Value())
		m.filter.Blur()
		m.view = viewList
		return m, m.load()
	case "esc":
		m.filter.Blur()
		m.view = viewList
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.view, m.detail = viewList, nil
		return m, nil
	case "e":
		return m.startEdit()
	case "d":
		return m.startDelete()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view, m.err = viewList, ""
		return m, nil
	case "tab", "down":
		m.form.move(1)
		return m, nil
	case "shift+tab", "up":
		m.form.move(-1)
		return m, nil
	case "enter":
		return m, m.save(m.form)
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.remove(m.detail.ID)
	case "n", "N", "esc", "q":
		m.view, m.detail = viewList, nil
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	switch m.view {
	case viewDetail:
		b.WriteString(m.detailView())
	case viewForm:
		b.WriteString(m.formView())
	case viewConfirm:
		b.WriteString(m.list.View())
		b.WriteString("\n\n")
		b.WriteString(ui.ErrorStyle.Render(fmt.Sprintf("Delete #%d %q? [y/N]", m.detail.ID, m.detail.Title)))
	case viewFilter:
		b.WriteString(m.list.View())
		b.WriteString("\n\n")
		b.WriteString(m.filter.View())
	default:
		b.WriteString(m.list.View())
	}

	switch {
	case m.err != "":
		b.WriteString("\n" + ui.ErrorStyle.Render("✖ "+m.err))
	case m.notice != "":
		b.WriteString("\n" + ui.SuccessStyle.Render("✔ "+m.notice))
	}
	return ui.Panel(b.String())
}

func (m Model) detailView() string {
	it := m.detail
	lines := []string{
		ui.TitleStyle.Render(it.Title),
		ui.MutedStyle.Render(fmt.Sprintf("#%d", it.ID)) + "  " + ui.StatusLabel(it.Status),
		"",
	}
	if it.Description != "" {
		lines = append(lines, it.Description, "")
	}
	lines = append(lines,
		ui.MutedStyle.Render("created "+it.CreatedAt.Local().Format(time.DateTime)),
		ui.MutedStyle.Render("updated "+it.UpdatedAt.Local().Format(time.DateTime)),
		"",
		ui.HelpStyle.Render("e edit • d delete • esc back"),
	)
	return strings.Join(lines, "\n")
}

func (m Model) formView() string {
	heading := "Add new item"
	if m.form.editing != 0 {
		heading = fmt.Sprintf("Edit item #%d", m.form.editing)
	}
	lines := []string{ui.TitleStyle.Render(heading), ""}
	for i, label := range []string{"Title", "Description", "Status"} {
		lines = append(lines, ui.MutedStyle.Render(label), m.form.inputs[i].View())
	}
	lines = append(lines, "", ui.HelpStyle.Render("tab next field • enter save • esc cancel"))
	return strings.Join(lines, "\n")
}
