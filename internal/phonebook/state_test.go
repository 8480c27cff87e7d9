package phonebook

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/internal/contact"
	"phonebook/internal/notify"
)

var (
	ada = contact.Contact{ID: "1", Name: "Ada", Number: "123"}
	bob = contact.Contact{ID: "2", Name: "Bob", Number: "999"}
	cid = contact.Contact{ID: "3", Name: "Cid", Number: "555"}
)

func TestReduce_Loaded(t *testing.T) {
	got := Reduce(State{Contacts: []contact.Contact{cid}}, Loaded{Contacts: []contact.Contact{ada, bob, ada}})
	if diff := cmp.Diff([]contact.Contact{ada, bob}, got.Contacts); diff != "" {
		t.Errorf("Loaded mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Drafts(t *testing.T) {
	s := Reduce(State{}, NameEdited{Value: "Ada"})
	s = Reduce(s, NumberEdited{Value: "12"})
	s = Reduce(s, SearchEdited{Value: "a"})
	assert.Equal(t, Draft{Name: "Ada", Number: "12"}, s.Draft)
	assert.Equal(t, "a", s.Search)

	s = Reduce(s, DraftCleared{})
	assert.Equal(t, Draft{}, s.Draft)
	assert.Equal(t, "a", s.Search, "search is not part of the draft")
}

func TestReduce_CreatedAppends(t *testing.T) {
	before := State{Contacts: []contact.Contact{ada}}
	after := Reduce(before, Created{Contact: bob})

	if diff := cmp.Diff([]contact.Contact{ada, bob}, after.Contacts); diff != "" {
		t.Errorf("Created mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, before.Contacts, 1, "input state must not change")
}

func TestReduce_CreatedKeepsIDsUnique(t *testing.T) {
	s := Reduce(State{Contacts: []contact.Contact{ada}}, Created{Contact: contact.Contact{ID: "1", Name: "Other"}})
	assert.Equal(t, []contact.Contact{ada}, s.Contacts)
}

func TestReduce_UpdatedInPlace(t *testing.T) {
	before := State{Contacts: []contact.Contact{ada, bob, cid}}
	changed := contact.Contact{ID: "2", Name: "Bob", Number: "000"}
	after := Reduce(before, Updated{ID: "2", Contact: changed})

	if diff := cmp.Diff([]contact.Contact{ada, changed, cid}, after.Contacts); diff != "" {
		t.Errorf("Updated mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, bob, before.Contacts[1], "input slice must not be written")
}

func TestReduce_UpdatedUnknownID(t *testing.T) {
	s := Reduce(State{Contacts: []contact.Contact{ada}}, Updated{ID: "9", Contact: contact.Contact{ID: "9", Name: "X"}})
	assert.Equal(t, []contact.Contact{ada}, s.Contacts)
}

func TestReduce_UpdatedKeysOnTargetID(t *testing.T) {
	before := State{Contacts: []contact.Contact{ada, bob}}

	s := Reduce(before, Updated{ID: "1", Contact: contact.Contact{Name: "Ada", Number: "456"}})
	assert.Equal(t, []contact.Contact{{ID: "1", Name: "Ada", Number: "456"}, bob}, s.Contacts)

	s = Reduce(before, Updated{ID: "1", Contact: contact.Contact{ID: "7", Name: "Ada", Number: "456"}})
	assert.Equal(t, []contact.Contact{{ID: "7", Name: "Ada", Number: "456"}, bob}, s.Contacts)
}

func TestReduce_DeletedRemovesOnlyThatID(t *testing.T) {
	before := State{Contacts: []contact.Contact{ada, bob, cid}}
	after := Reduce(before, Deleted{ID: "2"})

	if diff := cmp.Diff([]contact.Contact{ada, cid}, after.Contacts); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, after.Contacts, len(before.Contacts)-1)
	assert.Equal(t, []contact.Contact{ada, bob, cid}, before.Contacts)
}

func TestReduce_NotificationsUseSeparateSlots(t *testing.T) {
	s := Reduce(State{}, Notified{Kind: notify.Success, Message: "Added Bob"})
	s = Reduce(s, Notified{Kind: notify.Error, Message: "Error adding Cid: boom"})

	assert.Equal(t, notify.Notification{Message: "Added Bob", Seq: 1}, s.Success)
	assert.Equal(t, notify.Notification{Message: "Error adding Cid: boom", Seq: 2}, s.Error)
	assert.Equal(t, uint64(2), s.Seq)
	assert.Equal(t, s.Error, s.Notification(notify.Error))
	assert.Equal(t, s.Success, s.Notification(notify.Success))
}

func TestReduce_NotifiedReplacesSameKind(t *testing.T) {
	s := Reduce(State{}, Notified{Kind: notify.Success, Message: "Added Ada"})
	s = Reduce(s, Notified{Kind: notify.Success, Message: "Added Bob"})
	assert.Equal(t, "Added Bob", s.Success.Message)
	assert.False(t, s.Error.Active())
}

func TestReduce_StaleExpiryIgnored(t *testing.T) {
	s := Reduce(State{}, Notified{Kind: notify.Success, Message: "first"})
	first := s.Success.Seq
	s = Reduce(s, Notified{Kind: notify.Success, Message: "second"})

	s = Reduce(s, Expired{Kind: notify.Success, Seq: first})
	assert.Equal(t, "second", s.Success.Message, "a superseded clear must not erase the newer message")

	s = Reduce(s, Expired{Kind: notify.Success, Seq: s.Success.Seq})
	assert.False(t, s.Success.Active())
}

func TestReduce_ExpiredLeavesOtherKind(t *testing.T) {
	s := Reduce(State{}, Notified{Kind: notify.Error, Message: "boom"})
	s = Reduce(s, Notified{Kind: notify.Success, Message: "ok"})
	s = Reduce(s, Expired{Kind: notify.Error, Seq: s.Error.Seq})

	assert.False(t, s.Error.Active())
	assert.Equal(t, "ok", s.Success.Message)
}

func TestVisible(t *testing.T) {
	contacts := []contact.Contact{ada, bob}

	tests := []struct {
		name string
		term string
		want []contact.Contact
	}{
		{name: "substring", term: "da", want: []contact.Contact{ada}},
		{name: "case insensitive", term: "BO", want: []contact.Contact{bob}},
		{name: "empty term", term: "", want: []contact.Contact{ada, bob}},
		{name: "no match", term: "zed", want: []contact.Contact{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := State{Contacts: contacts, Search: tt.term}.Visible()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Visible(%q) mismatch (-want +got):\n%s", tt.term, diff)
			}
		})
	}
}

func TestVisible_KeepsCollectionOrder(t *testing.T) {
	contacts := []contact.Contact{
		{ID: "1", Name: "Zed"},
		{ID: "2", Name: "Aed"},
		{ID: "3", Name: "Med"},
	}
	got := Visible(contacts, "ed")
	assert.Equal(t, contacts, got)
}

func TestFindByName(t *testing.T) {
	s := State{Contacts: []contact.Contact{ada, bob}}

	got, ok := s.FindByName("ADA")
	require.True(t, ok)
	assert.Equal(t, ada, got)

	_, ok = s.FindByName("Adam")
	assert.False(t, ok)
}

func TestFindByID(t *testing.T) {
	s := State{Contacts: []contact.Contact{ada, bob}}

	got, ok := s.FindByID("2")
	require.True(t, ok)
	assert.Equal(t, bob, got)

	_, ok = s.FindByID("7")
	assert.False(t, ok)
}

func TestState_RoundTripsAsJSON(t *testing.T) {
	s := Reduce(State{Contacts: []contact.Contact{ada}, Draft: Draft{Name: "B"}, Search: "a"},
		Notified{Kind: notify.Error, Message: "boom"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(s, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
