package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dp-desktop/client/internal/uithread"
)

// wakeMsg tells Update that posted functions are waiting.
type wakeMsg struct{}

// Dispatcher makes the bubbletea Update loop the UI goroutine: Post queues a
// function and wakes the program, and Update calls RunPending.
type Dispatcher struct {
	*uithread.Queue
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{Queue: uithread.NewQueue()}
}

// Wait is a command that completes once something has been posted.
func (d *Dispatcher) Wait() tea.Cmd {
	return func() tea.Msg {
		<-d.Wake()
		return wakeMsg{}
	}
}
