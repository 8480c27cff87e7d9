package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"phonebook/internal/phonebook"
)

// confirmRequestMsg asks the page to show a yes/no modal. The answer goes
// back on reply, which is buffered so answering never blocks.
type confirmRequestMsg struct {
	prompt string
	reply  chan bool
}

// Prompter turns the reconciler's confirmation into a modal on the page.
// Confirm runs on the command goroutine and blocks until the user answers
// or ctx is done.
type Prompter struct {
	requests chan confirmRequestMsg
}

var _ phonebook.Confirmer = (*Prompter)(nil)

// NewPrompter creates an unbuffered prompt bridge.
func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan confirmRequestMsg)}
}

// Confirm shows prompt and waits for y or n.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequestMsg{prompt: prompt, reply: make(chan bool, 1)}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// wait delivers the next confirmation request to Update.
func (p *Prompter) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-p.requests:
			return req
		case <-ctx.Done():
			return nil
		}
	}
}
