package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
)

// Prompter asks the operator to confirm a command through a modal in the
// running program. Confirm is called from command goroutines and blocks only
// that goroutine; the update loop answers through the reply channel.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewPrompter creates a prompter with no program attached. Until Attach is
// called every question is declined.
func NewPrompter() *Prompter {
	return &Prompter{}
}

// Attach connects the prompter to a program, usually (*tea.Program).Send.
func (p *Prompter) Attach(send func(tea.Msg)) {
	p.mu.Lock()
	p.send = send
	p.mu.Unlock()
}

// Confirm posts question to the program and waits for the answer. A
// cancelled ctx declines.
func (p *Prompter) Confirm(ctx context.Context, question string) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()

	if send == nil {
		logger.Warn("confirmation requested without a UI", "question", question)
		return false
	}

	reply := make(chan bool, 1)
	send(ConfirmRequestMsg{Question: question, Reply: reply})

	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
