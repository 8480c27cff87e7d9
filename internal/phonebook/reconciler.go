package phonebook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"phonebook/internal/contact"
	"phonebook/internal/gateway"
	"phonebook/internal/notify"
)

// =============================================================================
// CONFIRMATION
// =============================================================================

// Confirmer asks the user a yes/no question and waits for the answer.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm answers yes without asking.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// OverwritePrompt is asked before replacing the number of an existing name.
func OverwritePrompt(name string) string {
	return fmt.Sprintf("%s is already added to the phonebook. Replace the old number with a new one?", name)
}

// DeletePrompt is asked before deleting a record.
func DeletePrompt(name string) string {
	return fmt.Sprintf("Delete %s?", name)
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome is how a Submit or Remove ended.
type Outcome int

const (
	// OutcomeNoop means there was nothing to do.
	OutcomeNoop Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeDeleted
	// OutcomeCancelled means the user declined the prompt.
	OutcomeCancelled
	// OutcomeInvalid means the draft was rejected before any call.
	OutcomeInvalid
	// OutcomeFailed means the gateway call failed.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Changed reports whether the collection was modified.
func (o Outcome) Changed() bool {
	return o == OutcomeCreated || o == OutcomeUpdated || o == OutcomeDeleted
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler decides between create and update, runs the gateway call and
// folds the result into the store. Each operation ends in at most one
// notification.
type Reconciler struct {
	gw      gateway.Gateway
	store   *Store
	confirm Confirmer
	logger  *zap.Logger
}

// NewReconciler wires a gateway to a store. A nil confirm answers yes.
func NewReconciler(gw gateway.Gateway, store *Store, confirm Confirmer, opts ...Option) *Reconciler {
	o := buildOptions(opts)
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Reconciler{
		gw:      gw,
		store:   store,
		confirm: confirm,
		logger:  o.logger,
	}
}

// Store returns the store the reconciler writes to.
func (r *Reconciler) Store() *Store { return r.store }

// Load replaces the collection with the gateway's.
func (r *Reconciler) Load(ctx context.Context) error {
	contacts, err := r.gw.GetAll(ctx)
	if err != nil {
		r.logger.Warn("load failed", zap.Error(err))
		r.notify(notify.Error, fmt.Sprintf("Error loading phonebook: %s", gateway.ErrorText(err)))
		return fmt.Errorf("load phonebook: %w", err)
	}
	r.store.Dispatch(Loaded{Contacts: contacts})
	r.logger.Info("phonebook loaded", zap.Int("contacts", len(contacts)))
	return nil
}

// Submit adds name/number, or replaces the number of the record with the
// same name after the user confirms.
func (r *Reconciler) Submit(ctx context.Context, name, number string) (Outcome, error) {
	payload := contact.Payload{Name: name, Number: number}
	if err := payload.Validate(); err != nil {
		r.notify(notify.Error, err.Error())
		return OutcomeInvalid, err
	}

	existing, found := r.store.State().FindByName(name)
	if !found {
		return r.create(ctx, payload)
	}

	ok, err := r.confirm.Confirm(ctx, OverwritePrompt(name))
	if err != nil {
		r.logger.Debug("overwrite prompt aborted", zap.String("name", name), zap.Error(err))
		return OutcomeCancelled, err
	}
	if !ok {
		r.logger.Debug("overwrite declined", zap.String("name", name))
		return OutcomeCancelled, nil
	}
	return r.update(ctx, existing.ID, payload)
}

func (r *Reconciler) create(ctx context.Context, p contact.Payload) (Outcome, error) {
	created, err := r.gw.Create(ctx, p)
	if err != nil {
		r.logger.Warn("create failed", zap.String("name", p.Name), zap.Error(err))
		r.notify(notify.Error, fmt.Sprintf("Error adding %s: %s", p.Name, gateway.ErrorText(err)))
		return OutcomeFailed, fmt.Errorf("add %s: %w", p.Name, err)
	}

	if _, dup := r.store.State().FindByID(created.ID); dup {
		r.logger.Warn("created id already in collection, keeping the existing record",
			zap.String("id", created.ID.String()), zap.String("name", p.Name))
	}
	r.store.Dispatch(Created{Contact: created})
	r.notify(notify.Success, fmt.Sprintf("Added %s", p.Name))
	r.store.Dispatch(DraftCleared{})
	r.logger.Info("contact created", zap.String("id", created.ID.String()), zap.String("name", p.Name))
	return OutcomeCreated, nil
}

func (r *Reconciler) update(ctx context.Context, id contact.ID, p contact.Payload) (Outcome, error) {
	updated, err := r.gw.Update(ctx, id, p)
	if err != nil {
		r.logger.Warn("update failed", zap.String("id", id.String()), zap.Error(err))
		r.notify(notify.Error, fmt.Sprintf("Error updating %s's phone number: %s", p.Name, gateway.ErrorText(err)))
		return OutcomeFailed, fmt.Errorf("update %s: %w", p.Name, err)
	}

	r.store.Dispatch(Updated{ID: id, Contact: updated})
	r.notify(notify.Success, fmt.Sprintf("Updated %s's phone number", p.Name))
	r.store.Dispatch(DraftCleared{})
	r.logger.Info("contact updated", zap.String("id", id.String()), zap.String("name", p.Name))
	return OutcomeUpdated, nil
}

// Remove deletes the record with id after the user confirms. An id that is
// not in the collection is treated as already removed.
func (r *Reconciler) Remove(ctx context.Context, id contact.ID) (Outcome, error) {
	existing, found := r.store.State().FindByID(id)
	if !found {
		return OutcomeNoop, nil
	}

	ok, err := r.confirm.Confirm(ctx, DeletePrompt(existing.Name))
	if err != nil {
		return OutcomeCancelled, err
	}
	if !ok {
		r.logger.Debug("delete declined", zap.String("id", id.String()))
		return OutcomeCancelled, nil
	}

	if err := r.gw.Remove(ctx, id); err != nil {
		r.logger.Warn("delete failed", zap.String("id", id.String()), zap.Error(err))
		r.notify(notify.Error, fmt.Sprintf("Error deleting %s: %s", existing.Name, gateway.ErrorText(err)))
		return OutcomeFailed, fmt.Errorf("delete %s: %w", existing.Name, err)
	}

	r.store.Dispatch(Deleted{ID: id})
	r.notify(notify.Success, fmt.Sprintf("Deleted %s", existing.Name))
	r.logger.Info("contact deleted", zap.String("id", id.String()), zap.String("name", existing.Name))
	return OutcomeDeleted, nil
}

func (r *Reconciler) notify(kind notify.Kind, message string) {
	r.store.Dispatch(Notified{Kind: kind, Message: message})
}
