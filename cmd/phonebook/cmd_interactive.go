package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"phonebook/cmd/phonebook/tui"
	"phonebook/cmd/phonebook/ui"
	"phonebook/internal/logging"
)

// runInteractive opens the page and blocks until the user quits or the
// process is interrupted. Pending notification timers and prompts are
// cancelled on the way out.
func runInteractive(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prompter := tui.NewPrompter()
	recon, err := newReconciler(prompter)
	if err != nil {
		return err
	}
	defer recon.Store().Close()

	model := tui.New(ctx, recon, prompter,
		tui.WithStyles(ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))),
		tui.WithLogger(logging.Get(logging.CategoryUI)),
	)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Unblocks in-flight gateway calls and prompts once the page is gone.
		defer cancel()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("interactive page failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}
