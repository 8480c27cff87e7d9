package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phonebook/cmd/phonebook/ui"
	"phonebook/internal/contact"
	"phonebook/internal/phonebook"
)

var (
	searchTerm string
	assumeYes  bool
)

// listCmd prints the collection
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	Long: `Fetches the collection and prints it in server order.

Example:
  phonebook list
  phonebook list --search da`,
	Args: cobra.NoArgs,
	RunE: listContacts,
}

// addCmd adds a contact or replaces the number of an existing one
var addCmd = &cobra.Command{
	Use:   "add NAME NUMBER",
	Short: "Add a contact, or replace the number of an existing name",
	Long: `Adds NAME with NUMBER. If NAME is already in the phonebook (ignoring
case) you are asked whether to replace the old number.

Example:
  phonebook add "Ada Lovelace" 040-123456
  phonebook add "ada lovelace" 040-654321 --yes`,
	Args: cobra.ExactArgs(2),
	RunE: addContact,
}

// deleteCmd removes a contact by id
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a contact by id",
	Long: `Deletes the contact with the given id after confirmation.
Ids are shown by "phonebook list".`,
	Args: cobra.ExactArgs(1),
	RunE: deleteContact,
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// confirmerFor asks on the command's terminal unless --yes was given.
func confirmerFor(cmd *cobra.Command) phonebook.Confirmer {
	if assumeYes {
		return phonebook.AlwaysConfirm
	}
	return newLineConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
}

// loadReconciler builds a reconciler and fetches the collection. A failed
// load has already been printed when the error is returned.
func loadReconciler(ctx context.Context, cmd *cobra.Command, confirm phonebook.Confirmer) (*phonebook.Reconciler, error) {
	recon, err := newReconciler(confirm)
	if err != nil {
		return nil, err
	}
	if err := recon.Load(ctx); err != nil {
		printNotifications(cmd, recon.Store().State())
		recon.Store().Close()
		return nil, reportedError{err}
	}
	return recon, nil
}

func listContacts(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	recon, err := loadReconciler(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer recon.Store().Close()

	visible := phonebook.Visible(recon.Store().State().Contacts, searchTerm)
	logger.Debug("listing contacts", zap.Int("visible", len(visible)), zap.String("search", searchTerm))

	table := ui.NewContactTable(visible)
	table.ShowIDs = true
	empty := "No contacts"
	if searchTerm != "" {
		empty = fmt.Sprintf("No contacts matching %q", searchTerm)
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(ui.NewStyles(ui.ThemeFor(cfg.UI.Theme)), 0, len(visible), empty))
	return nil
}

func addContact(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	recon, err := loadReconciler(ctx, cmd, confirmerFor(cmd))
	if err != nil {
		return err
	}
	defer recon.Store().Close()

	outcome, err := recon.Submit(ctx, args[0], args[1])
	return finish(cmd, recon, outcome, err)
}

func deleteContact(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	recon, err := loadReconciler(ctx, cmd, confirmerFor(cmd))
	if err != nil {
		return err
	}
	defer recon.Store().Close()

	id := contact.ID(args[0])
	outcome, err := recon.Remove(ctx, id)
	if outcome == phonebook.OutcomeNoop {
		fmt.Fprintf(cmd.OutOrStdout(), "No contact with id %s\n", id)
		return nil
	}
	return finish(cmd, recon, outcome, err)
}

// finish prints the notification an operation produced and turns failures
// into a non-zero exit.
func finish(cmd *cobra.Command, recon *phonebook.Reconciler, outcome phonebook.Outcome, err error) error {
	logger.Info("command finished", zap.String("outcome", outcome.String()), zap.Error(err))

	if outcome == phonebook.OutcomeCancelled {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
		return err
	}

	printNotifications(cmd, recon.Store().State())
	if err != nil {
		return reportedError{err}
	}
	return nil
}

func printNotifications(cmd *cobra.Command, st phonebook.State) {
	if st.Error.Active() {
		fmt.Fprintln(cmd.ErrOrStderr(), st.Error.Message)
	}
	if st.Success.Active() {
		fmt.Fprintln(cmd.OutOrStdout(), st.Success.Message)
	}
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// lineConfirmer asks on out and reads a y/N answer from in.
type lineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newLineConfirmer(in io.Reader, out io.Writer) lineConfirmer {
	return lineConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y" and "yes" in any case. Anything else, including EOF,
// is a no.
func (c lineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("failed to read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
