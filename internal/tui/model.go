// Package tui is the interactive terminal client. The URL store is the
// session location, persisted between runs by the caller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/urlstate"
)

// PageSizes are the sizes ctrl+s cycles through.
var PageSizes = []int{10, 20, 50}

type Options struct {
	Store    *urlstate.Store
	Searcher search.Searcher
	Config   search.Config
	Logger   *zap.Logger
}

// stateChangedMsg tells the model to re-read the pipeline state.
type stateChangedMsg struct{}

type notificationMsg search.Notification

type keyMap struct {
	Search   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	PageSize key.Binding
	Back     key.Binding
	Forward  key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.PrevPage, k.NextPage, k.PageSize, k.Back, k.Forward, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Refresh},
		{k.PrevPage, k.NextPage, k.PageSize},
		{k.Back, k.Forward},
		{k.Quit},
	}
}

var keys = keyMap{
	Search: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "search"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "prev page"),
	),
	PageSize: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "page size"),
	),
	Back: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "back"),
	),
	Forward: key.NewBinding(
		key.WithKeys("ctrl+]"),
		key.WithHelp("ctrl+]", "forward"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

// Model is the Bubble Tea model. It owns one pipeline over the given store
// and renders whatever the pipeline last published.
type Model struct {
	store    *urlstate.Store
	pipeline *search.Pipeline
	notifier *search.ChanNotifier
	log      *zap.Logger

	changed chan struct{}
	unsubs  []func()

	input   textinput.Model
	spinner spinner.Model
	pager   paginator.Model
	help    help.Model

	params  *search.Params
	result  *search.Result
	loading bool
	status  string
	notice  *search.Notification

	width int
}

// New builds the model; its fetches run under ctx.
func New(ctx context.Context, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "Search books"
	input.Prompt = "> "
	input.CharLimit = 256
	input.Width = 50
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	pager := paginator.New()
	pager.Type = paginator.Arabic

	notifier := search.NewChanNotifier(16, log)
	m := &Model{
		store:    opts.Store,
		notifier: notifier,
		log:      log,
		changed:  make(chan struct{}, 1),
		input:    input,
		spinner:  sp,
		pager:    pager,
		help:     help.New(),
	}
	m.pipeline = search.NewPipeline(ctx, opts.Store, opts.Searcher, notifier, opts.Config, log)

	m.unsubs = append(m.unsubs,
		m.pipeline.Reconciler.Subscribe(func(*search.Params) { m.signal() }),
		m.pipeline.Fetcher.Subscribe(func(search.Result) { m.signal() }),
		m.pipeline.Fetcher.SubscribeLoading(func(bool) { m.signal() }),
	)
	m.sync()
	return m
}

// signal coalesces change notifications; the model re-reads the full state
// on each stateChangedMsg so dropped signals lose nothing.
func (m *Model) signal() {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func waitForNotification(ch <-chan search.Notification) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg(<-ch)
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForChange(m.changed),
		waitForNotification(m.notifier.C()),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}
		return m, nil

	case stateChangedMsg:
		m.sync()
		return m, waitForChange(m.changed)

	case notificationMsg:
		n := search.Notification(msg)
		m.notice = &n
		return m, waitForNotification(m.notifier.C())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.pipeline.Reconciler.SetSearchText(v)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	r := m.pipeline.Reconciler

	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, keys.Search):
		m.report(r.Search())

	case key.Matches(msg, keys.NextPage):
		if m.params == nil || m.result == nil || m.params.Page >= m.result.TotalPages(m.params.PageSize) {
			return nil, true
		}
		m.report(r.SetPage(m.params.Page, m.params.PageSize))

	case key.Matches(msg, keys.PrevPage):
		if m.params == nil || m.params.Page <= 1 {
			return nil, true
		}
		m.report(r.SetPage(m.params.Page-2, m.params.PageSize))

	case key.Matches(msg, keys.PageSize):
		if m.params == nil {
			return nil, true
		}
		m.report(r.SetPage(0, nextPageSize(m.params.PageSize)))

	case key.Matches(msg, keys.Back):
		if !m.store.Back() {
			m.status = "No earlier search"
		}

	case key.Matches(msg, keys.Forward):
		if !m.store.Forward() {
			m.status = "No later search"
		}

	case key.Matches(msg, keys.Refresh):
		if !m.pipeline.Fetcher.Refresh() {
			m.status = "Nothing to refresh"
		}

	default:
		return nil, false
	}
	return nil, true
}

// report shows validation failures in the status line.
func (m *Model) report(_ search.Params, err error) {
	if err == nil {
		m.status = ""
		return
	}
	var verr *search.ValidationError
	if errors.As(err, &verr) {
		m.status = verr.Message
		return
	}
	m.log.Error("Search change failed", zap.Error(err))
	m.status = err.Error()
}

// sync copies the pipeline state into the model.
func (m *Model) sync() {
	params := m.pipeline.Reconciler.Current()
	if params != m.params {
		m.params = params
		if params != nil && params.SearchText != m.input.Value() {
			m.input.SetValue(params.SearchText)
			m.input.CursorEnd()
		}
	}

	if result, ok := m.pipeline.Fetcher.Latest(); ok {
		m.result = &result
	}
	m.loading = m.pipeline.Fetcher.IsLoading()

	if m.params != nil && m.result != nil {
		m.pager.PerPage = m.params.PageSize
		m.pager.SetTotalPages(m.result.TotalFound)
		m.pager.Page = m.params.Page - 1
	}
}

func nextPageSize(current int) int {
	for i, size := range PageSizes {
		if size == current {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return PageSizes[0]
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Book search"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(locationStyle.Render("?" + m.store.Encode()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + statusStyle.Render(" Searching..."))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	if m.result != nil && m.params != nil {
		b.WriteString(m.renderResult())
	}

	if m.notice != nil {
		style := warningStyle
		if m.notice.Level == search.LevelError {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice.Message))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if len(m.result.Items) == 0 {
		b.WriteString("No books found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d books found\n\n", m.result.TotalFound)
	offset := (m.params.Page - 1) * m.params.PageSize
	for i, book := range m.result.Items {
		line := indexStyle.Render(fmt.Sprintf("%d.", offset+i+1)) + bookTitleStyle.Render(book.Title)
		if len(book.Authors) > 0 {
			line += authorStyle.Render(" by " + strings.Join(book.Authors, ", "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.pager.TotalPages > 1 {
		b.WriteString("\n")
		b.WriteString("Page " + m.pager.View())
		b.WriteString("\n")
	}
	return b.String()
}

// Close stops the pipeline. Pending fetches are cancelled.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.pipeline.Close()
}

// Run blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run tui")
	}
	return nil
}
