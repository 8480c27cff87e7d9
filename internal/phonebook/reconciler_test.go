package phonebook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"phonebook/internal/contact"
	"phonebook/internal/gateway"
	"phonebook/internal/gateway/gatewaytest"
)

// fakeGateway is an in-memory Gateway that counts calls.
type fakeGateway struct {
	mu      sync.Mutex
	records []contact.Contact
	nextID  int
	calls   []string
	err     error

	// replies override the record the server sends back.
	createReply *contact.Contact
	updateReply *contact.Contact
}

func (f *fakeGateway) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) GetAll(ctx context.Context) ([]contact.Contact, error) {
	if err := f.record("getAll"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contact.Contact(nil), f.records...), nil
}

func (f *fakeGateway) Create(ctx context.Context, p contact.Payload) (contact.Contact, error) {
	if err := f.record("create"); err != nil {
		return contact.Contact{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := contact.Contact{ID: contact.ID("new-" + strconv.Itoa(f.nextID)), Name: p.Name, Number: p.Number}
	f.records = append(f.records, c)
	if f.createReply != nil {
		return *f.createReply, nil
	}
	return c, nil
}

func (f *fakeGateway) Update(ctx context.Context, id contact.ID, p contact.Payload) (contact.Contact, error) {
	if err := f.record("update:" + id.String()); err != nil {
		return contact.Contact{}, err
	}
	if f.updateReply != nil {
		return *f.updateReply, nil
	}
	return contact.Contact{ID: id, Name: p.Name, Number: p.Number}, nil
}

func (f *fakeGateway) Remove(ctx context.Context, id contact.ID) error {
	return f.record("remove:" + id.String())
}

// scriptedConfirmer answers every prompt with answer and remembers the prompts.
type scriptedConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (c *scriptedConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

func newTestReconciler(t *testing.T, gw gateway.Gateway, confirm Confirmer, contacts ...contact.Contact) *Reconciler {
	t.Helper()
	store := NewStore(WithNotificationDuration(time.Hour))
	t.Cleanup(store.Close)
	store.Dispatch(Loaded{Contacts: contacts})
	return NewReconciler(gw, store, confirm)
}

func TestSubmit_ConfirmedOverwriteUpdates(t *testing.T) {
	gw := &fakeGateway{}
	confirm := &scriptedConfirmer{answer: true}
	r := newTestReconciler(t, gw, confirm, ada)
	r.Store().Dispatch(NameEdited{Value: "Ada"})
	r.Store().Dispatch(NumberEdited{Value: "456"})

	outcome, err := r.Submit(context.Background(), "Ada", "456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	assert.Equal(t, []string{"update:1"}, gw.Calls())
	assert.Equal(t, []string{"Ada is already added to the phonebook. Replace the old number with a new one?"}, confirm.prompts)

	st := r.Store().State()
	if diff := cmp.Diff([]contact.Contact{{ID: "1", Name: "Ada", Number: "456"}}, st.Contacts); diff != "" {
		t.Errorf("collection mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Updated Ada's phone number", st.Success.Message)
	assert.False(t, st.Error.Active())
	assert.Equal(t, Draft{}, st.Draft)
}

func TestSubmit_MatchIsCaseInsensitive(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestReconciler(t, gw, AlwaysConfirm, ada, bob)

	outcome, err := r.Submit(context.Background(), "aDA", "777")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, []string{"update:1"}, gw.Calls())

	st := r.Store().State()
	assert.Len(t, st.Contacts, 2, "update must not change the collection size")
	assert.Equal(t, "777", st.Contacts[0].Number)
	assert.Equal(t, bob, st.Contacts[1])
}

func TestSubmit_UpdateReplyWithoutIDReplacesMatchedRecord(t *testing.T) {
	gw := &fakeGateway{updateReply: &contact.Contact{Name: "Ada", Number: "456"}}
	r := newTestReconciler(t, gw, AlwaysConfirm, ada, bob)

	outcome, err := r.Submit(context.Background(), "Ada", "456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	st := r.Store().State()
	if diff := cmp.Diff([]contact.Contact{{ID: "1", Name: "Ada", Number: "456"}, bob}, st.Contacts); diff != "" {
		t.Errorf("collection mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Updated Ada's phone number", st.Success.Message)
}

func TestSubmit_UpdateReplyWithOtherIDReplacesMatchedRecord(t *testing.T) {
	gw := &fakeGateway{updateReply: &contact.Contact{ID: "99", Name: "Ada", Number: "456"}}
	r := newTestReconciler(t, gw, AlwaysConfirm, ada, bob)

	_, err := r.Submit(context.Background(), "Ada", "456")
	require.NoError(t, err)

	st := r.Store().State()
	assert.Equal(t, []contact.Contact{{ID: "99", Name: "Ada", Number: "456"}, bob}, st.Contacts)
	_, stale := st.FindByID("1")
	assert.False(t, stale)
}

func TestSubmit_CreateReplyWithKnownIDIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewStore(WithNotificationDuration(time.Hour))
	t.Cleanup(store.Close)
	store.Dispatch(Loaded{Contacts: []contact.Contact{ada}})
	gw := &fakeGateway{createReply: &contact.Contact{ID: "1", Name: "Bob", Number: "999"}}
	r := NewReconciler(gw, store, nil, WithLogger(zap.New(core)))

	outcome, err := r.Submit(context.Background(), "Bob", "999")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	assert.Equal(t, []contact.Contact{ada}, store.State().Contacts)
	assert.Equal(t, "Added Bob", store.State().Success.Message)
	require.Equal(t, 1, logs.FilterMessage("created id already in collection, keeping the existing record").Len())
}

func TestSubmit_NewNameCreates(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestReconciler(t, gw, nil)

	outcome, err := r.Submit(context.Background(), "Bob", "999")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, []string{"create"}, gw.Calls())

	st := r.Store().State()
	require.Len(t, st.Contacts, 1)
	assert.NotEmpty(t, st.Contacts[0].ID)
	assert.Equal(t, "Bob", st.Contacts[0].Name)
	assert.Equal(t, "999", st.Contacts[0].Number)
	assert.Equal(t, "Added Bob", st.Success.Message)
}

func TestSubmit_DistinctCreatesGrowByOne(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestReconciler(t, gw, nil)

	names := []string{"Ada", "Bob", "Cid", "Dee"}
	for i, name := range names {
		outcome, err := r.Submit(context.Background(), name, "10"+name)
		require.NoError(t, err)
		require.Equal(t, OutcomeCreated, outcome)

		st := r.Store().State()
		require.Len(t, st.Contacts, i+1)
		last := st.Contacts[len(st.Contacts)-1]
		assert.Equal(t, name, last.Name)
		assert.Equal(t, "10"+name, last.Number)
	}
}

func TestSubmit_DeclinedOverwriteChangesNothing(t *testing.T) {
	gw := &fakeGateway{}
	confirm := &scriptedConfirmer{answer: false}
	r := newTestReconciler(t, gw, confirm, ada)
	r.Store().Dispatch(NameEdited{Value: "ada"})
	r.Store().Dispatch(NumberEdited{Value: "456"})
	before := r.Store().State()

	outcome, err := r.Submit(context.Background(), "ada", "456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)

	assert.Empty(t, gw.Calls())
	if diff := cmp.Diff(before, r.Store().State()); diff != "" {
		t.Errorf("state changed after declined prompt (-want +got):\n%s", diff)
	}
}

func TestSubmit_PromptErrorCancels(t *testing.T) {
	gw := &fakeGateway{}
	confirm := &scriptedConfirmer{err: context.Canceled}
	r := newTestReconciler(t, gw, confirm, ada)

	outcome, err := r.Submit(context.Background(), "Ada", "456")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Empty(t, gw.Calls())
}

func TestSubmit_MissingFieldsRejected(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestReconciler(t, gw, nil)
	r.Store().Dispatch(NumberEdited{Value: "123"})

	outcome, err := r.Submit(context.Background(), "  ", "123")
	require.Error(t, err)
	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Empty(t, gw.Calls())

	st := r.Store().State()
	assert.Equal(t, "name is required", st.Error.Message)
	assert.Equal(t, "123", st.Draft.Number, "drafts survive a rejected submit")
}

func TestSubmit_CreateFailure(t *testing.T) {
	gw := &fakeGateway{err: &gateway.Error{StatusCode: http.StatusBadRequest, Message: "name must be unique"}}
	r := newTestReconciler(t, gw, nil, ada)
	r.Store().Dispatch(NameEdited{Value: "Bob"})

	outcome, err := r.Submit(context.Background(), "Bob", "999")
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	st := r.Store().State()
	assert.Equal(t, []contact.Contact{ada}, st.Contacts)
	assert.Equal(t, "Error adding Bob: name must be unique", st.Error.Message)
	assert.False(t, st.Success.Active())
	assert.Equal(t, "Bob", st.Draft.Name)
}

func TestSubmit_UpdateFailure(t *testing.T) {
	gw := &fakeGateway{err: &gateway.Error{StatusCode: http.StatusNotFound, Message: "Information of Ada has already been removed from server"}}
	r := newTestReconciler(t, gw, AlwaysConfirm, ada)

	outcome, err := r.Submit(context.Background(), "Ada", "456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrNotFound))
	assert.Equal(t, OutcomeFailed, outcome)

	st := r.Store().State()
	assert.Equal(t, []contact.Contact{ada}, st.Contacts)
	assert.Equal(t, "Error updating Ada's phone number: Information of Ada has already been removed from server", st.Error.Message)
	assert.False(t, st.Success.Active())
}

func TestRemove_Confirmed(t *testing.T) {
	gw := &fakeGateway{}
	confirm := &scriptedConfirmer{answer: true}
	r := newTestReconciler(t, gw, confirm, ada, bob, cid)

	outcome, err := r.Remove(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, outcome)
	assert.Equal(t, []string{"Delete Bob?"}, confirm.prompts)
	assert.Equal(t, []string{"remove:2"}, gw.Calls())

	st := r.Store().State()
	assert.Equal(t, []contact.Contact{ada, cid}, st.Contacts)
	assert.Equal(t, "Deleted Bob", st.Success.Message)
}

func TestRemove_DeclinedMakesNoCall(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestReconciler(t, gw, &scriptedConfirmer{answer: false}, ada)
	before := r.Store().State()

	outcome, err := r.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Empty(t, gw.Calls())
	assert.Equal(t, before, r.Store().State())
}

func TestRemove_UnknownIDIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	confirm := &scriptedConfirmer{answer: true}
	r := newTestReconciler(t, gw, confirm, ada)

	outcome, err := r.Remove(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Empty(t, confirm.prompts)
	assert.Empty(t, gw.Calls())
}

func TestRemove_FailureKeepsRecord(t *testing.T) {
	gw := &fakeGateway{err: &gateway.Error{StatusCode: http.StatusInternalServerError, Message: "db offline"}}
	r := newTestReconciler(t, gw, AlwaysConfirm, ada)

	outcome, err := r.Remove(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	st := r.Store().State()
	assert.Equal(t, []contact.Contact{ada}, st.Contacts)
	assert.Equal(t, "Error deleting Ada: db offline", st.Error.Message)
	assert.False(t, st.Success.Active())
}

func TestLoad(t *testing.T) {
	gw := &fakeGateway{records: []contact.Contact{ada, bob}}
	r := newTestReconciler(t, gw, nil)

	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, []contact.Contact{ada, bob}, r.Store().State().Contacts)
}

func TestLoad_FailureNotifies(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	r := newTestReconciler(t, gw, nil)

	err := r.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error loading phonebook: connection refused", r.Store().State().Error.Message)
}

func TestOutcomesNeverNotifyBothKinds(t *testing.T) {
	failing := &gateway.Error{StatusCode: http.StatusBadRequest, Message: "nope"}

	tests := []struct {
		name string
		gw   *fakeGateway
		run  func(r *Reconciler) (Outcome, error)
	}{
		{"create ok", &fakeGateway{}, func(r *Reconciler) (Outcome, error) {
			return r.Submit(context.Background(), "Bob", "1")
		}},
		{"create failed", &fakeGateway{err: failing}, func(r *Reconciler) (Outcome, error) {
			return r.Submit(context.Background(), "Bob", "1")
		}},
		{"update ok", &fakeGateway{}, func(r *Reconciler) (Outcome, error) {
			return r.Submit(context.Background(), "Ada", "1")
		}},
		{"update failed", &fakeGateway{err: failing}, func(r *Reconciler) (Outcome, error) {
			return r.Submit(context.Background(), "Ada", "1")
		}},
		{"delete ok", &fakeGateway{}, func(r *Reconciler) (Outcome, error) {
			return r.Remove(context.Background(), "1")
		}},
		{"delete failed", &fakeGateway{err: failing}, func(r *Reconciler) (Outcome, error) {
			return r.Remove(context.Background(), "1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(t, tt.gw, AlwaysConfirm, ada)
			before := r.Store().State().Seq

			_, _ = tt.run(r)

			st := r.Store().State()
			assert.Equal(t, before+1, st.Seq, "exactly one notification per outcome")
			assert.NotEqual(t, st.Success.Active(), st.Error.Active())
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "created", OutcomeCreated.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "unknown", Outcome(99).String())
	assert.True(t, OutcomeDeleted.Changed())
	assert.False(t, OutcomeFailed.Changed())
}

// Against the REST client and the fake server, end to end.
func TestReconciler_OverHTTP(t *testing.T) {
	srv := gatewaytest.NewServer(t, ada, bob)
	client, err := gateway.New(srv.BaseURL())
	require.NoError(t, err)

	store := NewStore(WithNotificationDuration(time.Hour))
	defer store.Close()
	confirm := &scriptedConfirmer{answer: true}
	r := NewReconciler(client, store, confirm)
	ctx := context.Background()

	require.NoError(t, r.Load(ctx))
	store.Dispatch(SearchEdited{Value: "da"})
	assert.Equal(t, []contact.Contact{ada}, store.State().Visible())

	outcome, err := r.Submit(ctx, "Ada", "456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, srv.Records(), store.State().Contacts)

	outcome, err = r.Submit(ctx, "Cid", "555")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, srv.Records(), store.State().Contacts)

	confirm.answer = false
	outcome, err = r.Remove(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, 0, srv.CallCount(http.MethodDelete))

	confirm.answer = true
	srv.Remove("2")
	srv.FailNext(http.MethodDelete, http.StatusNotFound, "already gone")
	outcome, err = r.Remove(ctx, "2")
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, "Error deleting Bob: already gone", store.State().Error.Message)
	assert.Equal(t, "Added Cid", store.State().Success.Message, "success slot is untouched by a failure")
}
