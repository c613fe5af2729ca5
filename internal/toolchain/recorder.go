package toolchain

import (
	"context"
	"sync"
)

// Handler produces the result of a recorded command.
type Handler func(cmd Command) (*Result, error)

// Recorder is a Runner that records every command instead of starting a
// process. Tests and dry runs use it to observe which tools a build would
// invoke.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	handlers map[string]Handler
}

// NewRecorder creates an empty Recorder. Commands without a handler succeed
// with empty output.
func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[string]Handler)}
}

// Handle registers the handler used for commands named name.
func (r *Recorder) Handle(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	h := r.handlers[cmd.Name]
	r.mu.Unlock()

	if h == nil {
		return &Result{Command: cmd}, nil
	}

	return h(cmd)
}

// Commands returns a copy of every recorded command in call order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Command, len(r.commands))
	copy(out, r.commands)

	return out
}

// Named returns the recorded commands with the given executable name.
func (r *Recorder) Named(name string) []Command {
	var out []Command
	for _, c := range r.Commands() {
		if c.Name == name {
			out = append(out, c)
		}
	}

	return out
}
