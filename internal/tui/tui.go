// Package tui renders a viewer session in the terminal with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/signalsfoundry/orrery/internal/session"
)

// NewProgram creates a program over sess on the alternate screen.
func NewProgram(ctx context.Context, sess *session.Session, interval time.Duration, opts ...tea.ProgramOption) *tea.Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(NewModel(ctx, sess, interval), allOpts...)
}

// Run blocks until the user quits or ctx ends.
func Run(ctx context.Context, sess *session.Session, interval time.Duration, opts ...tea.ProgramOption) error {
	if _, err := NewProgram(ctx, sess, interval, opts...).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
