package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPrompter_Unattached(t *testing.T) {
	p := NewPrompter()
	if p.Confirm(context.Background(), "Delete?") {
		t.Error("an unattached prompter should decline")
	}
}

func TestPrompter_Reply(t *testing.T) {
	tests := []struct {
		name   string
		answer bool
	}{
		{"confirmed", true},
		{"declined", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompter()
			var asked string
			p.Attach(func(msg tea.Msg) {
				req, ok := msg.(ConfirmRequestMsg)
				if !ok {
					t.Errorf("unexpected message %T", msg)
					return
				}
				asked = req.Question
				req.Reply <- tt.answer
			})

			if got := p.Confirm(context.Background(), "Reset keyword statistics?"); got != tt.answer {
				t.Errorf("Confirm = %v, want %v", got, tt.answer)
			}
			if asked != "Reset keyword statistics?" {
				t.Errorf("question = %q", asked)
			}
		})
	}
}

func TestPrompter_CancelledContext(t *testing.T) {
	p := NewPrompter()
	p.Attach(func(tea.Msg) {}) // never answers

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if p.Confirm(ctx, "Stop automation?") {
		t.Error("a cancelled context should decline")
	}
}

func TestPrompter_ThroughModel(t *testing.T) {
	model := readyModel(nil)
	p := NewPrompter()

	msgs := make(chan tea.Msg, 1)
	p.Attach(func(msg tea.Msg) { msgs <- msg })

	result := make(chan bool, 1)
	go func() { result <- p.Confirm(context.Background(), "Delete account alice?") }()

	select {
	case msg := <-msgs:
		model.Update(msg)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for ConfirmRequestMsg")
	}
	model.Update(runeKey('y'))

	select {
	case ok := <-result:
		if !ok {
			t.Error("y should confirm through the model")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Confirm")
	}
}
