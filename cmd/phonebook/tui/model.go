// Package tui is the interactive phonebook page: a filter, the add form and
// the contact list, rendered from store snapshots.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"phonebook/cmd/phonebook/ui"
	"phonebook/internal/contact"
	"phonebook/internal/phonebook"
)

type focus int

const (
	focusSearch focus = iota
	focusName
	focusNumber
	focusList
	focusCount
)

type op string

const (
	opLoad   op = "load"
	opSubmit op = "submit"
	opRemove op = "remove"
)

// storeChangedMsg means the store has a newer state than the model.
type storeChangedMsg struct{}

// opDoneMsg reports a finished reconciler call.
type opDoneMsg struct {
	op      op
	outcome phonebook.Outcome
	err     error
}

// Model is the bubbletea model for the page.
type Model struct {
	ctx         context.Context
	recon       *phonebook.Reconciler
	store       *phonebook.Store
	prompter    *Prompter
	changes     chan struct{}
	unsubscribe func()
	logger      *zap.Logger

	styles  ui.Styles
	layout  ui.LayoutConfig
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	search textinput.Model
	name   textinput.Model
	number textinput.Model

	state   phonebook.State
	focus   focus
	cursor  int
	busy    int
	pending *confirmRequestMsg
}

// Option configures a Model.
type Option func(*Model)

// WithStyles sets the color scheme.
func WithStyles(s ui.Styles) Option {
	return func(m *Model) { m.styles = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates the page. prompter must be the Confirmer recon was built with.
// ctx bounds every gateway call and pending prompt; cancel it after the
// program exits. Call Close when done.
func New(ctx context.Context, recon *phonebook.Reconciler, prompter *Prompter, opts ...Option) Model {
	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "filter by name"

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Arto Hellas"

	number := textinput.New()
	number.Prompt = ""
	number.Placeholder = "040-1234567"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		recon:    recon,
		store:    recon.Store(),
		prompter: prompter,
		changes:  make(chan struct{}, 1),
		logger:   zap.NewNop(),
		styles:   ui.DefaultStyles(),
		layout:   ui.NewLayoutConfig(80, 24),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		search:   search,
		name:     name,
		number:   number,
		busy:     1, // initial load
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.spinner.Style = m.styles.Spinner

	changes := m.changes
	m.unsubscribe = m.store.Subscribe(func(phonebook.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	m.state = m.store.State()
	m = m.setFocus(focusName)
	m = m.syncInputs()
	return m
}

// Close stops listening to the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns the snapshot the page is showing.
func (m Model) State() phonebook.State { return m.state }

// Init loads the collection and starts listening for store changes and
// confirmation requests.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.run(opLoad, func(ctx context.Context) (phonebook.Outcome, error) {
			return phonebook.OutcomeNoop, m.recon.Load(ctx)
		}),
		m.waitForChange(),
		m.prompter.wait(m.ctx),
	)
}

func (m Model) waitForChange() tea.Cmd {
	changes, ctx := m.changes, m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return storeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) run(kind op, fn func(ctx context.Context) (phonebook.Outcome, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		outcome, err := fn(ctx)
		return opDoneMsg{op: kind, outcome: outcome, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayoutConfig(msg.Width, msg.Height)
		m.help.Width = m.layout.ContentWidth()
		width := m.layout.ContentWidth() - 12
		m.search.Width = width
		m.name.Width = width
		m.number.Width = width
		return m, nil

	case storeChangedMsg:
		m = m.setState(m.store.State())
		return m, m.waitForChange()

	case confirmRequestMsg:
		req := msg
		m.pending = &req
		return m, nil

	case opDoneMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.logger.Debug("operation finished",
			zap.String("op", string(msg.op)),
			zap.String("outcome", msg.outcome.String()),
			zap.Error(msg.err))
		m = m.setState(m.store.State())
		return m, nil

	case spinner.TickMsg:
		if m.busy == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.pending != nil {
			m.pending.reply <- false
			m.pending = nil
		}
		return m, tea.Quit
	}

	// The modal swallows everything but its answers.
	if m.pending != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(true)
		case key.Matches(msg, m.keys.No):
			return m.answer(false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		return m.setFocus((m.focus + 1) % focusCount), nil
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus((m.focus + focusCount - 1) % focusCount), nil
	}

	if m.focus == focusList {
		visible := m.state.Visible()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(visible)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Delete):
			if m.cursor < len(visible) {
				return m.remove(visible[m.cursor].ID)
			}
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		if m.focus == focusSearch {
			return m.setFocus(focusList), nil
		}
		return m.submit()
	}

	return m.updateInputs(msg)
}

func (m Model) answer(ok bool) (tea.Model, tea.Cmd) {
	m.pending.reply <- ok
	m.pending = nil
	return m, m.prompter.wait(m.ctx)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	name, number := m.state.Draft.Name, m.state.Draft.Number
	recon := m.recon
	return m.start(m.run(opSubmit, func(ctx context.Context) (phonebook.Outcome, error) {
		return recon.Submit(ctx, name, number)
	}))
}

func (m Model) remove(id contact.ID) (tea.Model, tea.Cmd) {
	recon := m.recon
	return m.start(m.run(opRemove, func(ctx context.Context) (phonebook.Outcome, error) {
		return recon.Remove(ctx, id)
	}))
}

// start marks an operation in flight and spins while any is.
func (m Model) start(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy++
	if m.busy == 1 {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != m.state.Search {
			m = m.setState(m.store.Dispatch(phonebook.SearchEdited{Value: v}))
			m.cursor = 0
		}
	case focusName:
		m.name, cmd = m.name.Update(msg)
		if v := m.name.Value(); v != m.state.Draft.Name {
			m = m.setState(m.store.Dispatch(phonebook.NameEdited{Value: v}))
		}
	case focusNumber:
		m.number, cmd = m.number.Update(msg)
		if v := m.number.Value(); v != m.state.Draft.Number {
			m = m.setState(m.store.Dispatch(phonebook.NumberEdited{Value: v}))
		}
	}
	return m, cmd
}

func (m Model) setFocus(f focus) Model {
	m.focus = f
	inputs := map[focus]*textinput.Model{
		focusSearch: &m.search,
		focusName:   &m.name,
		focusNumber: &m.number,
	}
	for kind, in := range inputs {
		if kind == f {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	return m
}

func (m Model) setState(s phonebook.State) Model {
	m.state = s
	if n := len(s.Visible()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m.syncInputs()
}

// syncInputs copies buffers the store changed on its own (a cleared draft)
// into the text inputs.
func (m Model) syncInputs() Model {
	if m.name.Value() != m.state.Draft.Name {
		m.name.SetValue(m.state.Draft.Name)
	}
	if m.number.Value() != m.state.Draft.Number {
		m.number.SetValue(m.state.Draft.Number)
	}
	if m.search.Value() != m.state.Search {
		m.search.SetValue(m.state.Search)
	}
	return m
}
