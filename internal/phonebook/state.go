// Package phonebook holds the view state of the phonebook client, the pure
// reducer that evolves it, and the reconciliation logic that keeps it in step
// with the remote collection.
package phonebook

import (
	"phonebook/internal/contact"
	"phonebook/internal/notify"
)

// Draft is the uncommitted text of the add form.
type Draft struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// State is everything the page renders from.
type State struct {
	Contacts []contact.Contact   `json:"contacts"`
	Draft    Draft               `json:"draft"`
	Search   string              `json:"search"`
	Success  notify.Notification `json:"success"`
	Error    notify.Notification `json:"error"`
	// Seq numbers notifications; it only ever grows.
	Seq uint64 `json:"seq"`
}

// Notification returns the slot for kind.
func (s State) Notification(kind notify.Kind) notify.Notification {
	if kind == notify.Error {
		return s.Error
	}
	return s.Success
}

// Visible is the filtered view of the collection for the current search term.
func (s State) Visible() []contact.Contact {
	return Visible(s.Contacts, s.Search)
}

// FindByName returns the record whose name matches, ignoring case.
func (s State) FindByName(name string) (contact.Contact, bool) {
	for _, c := range s.Contacts {
		if contact.SameName(c.Name, name) {
			return c, true
		}
	}
	return contact.Contact{}, false
}

// FindByID returns the record with the given id.
func (s State) FindByID(id contact.ID) (contact.Contact, bool) {
	for _, c := range s.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return contact.Contact{}, false
}

// Visible returns the contacts whose name contains term, in collection order.
func Visible(contacts []contact.Contact, term string) []contact.Contact {
	out := make([]contact.Contact, 0, len(contacts))
	for _, c := range contacts {
		if contact.MatchesSearch(c, term) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is a state transition understood by Reduce.
type Event interface {
	isEvent()
}

type (
	// Loaded replaces the collection with the server's.
	Loaded struct{ Contacts []contact.Contact }
	// NameEdited sets the name draft.
	NameEdited struct{ Value string }
	// NumberEdited sets the number draft.
	NumberEdited struct{ Value string }
	// SearchEdited sets the filter term.
	SearchEdited struct{ Value string }
	// Created appends a record returned by the gateway.
	Created struct{ Contact contact.Contact }
	// Updated replaces the record with ID by Contact, in place. A returned
	// record without an id keeps ID.
	Updated struct {
		ID      contact.ID
		Contact contact.Contact
	}
	// Deleted removes a record by id.
	Deleted struct{ ID contact.ID }
	// DraftCleared empties both draft buffers.
	DraftCleared struct{}
	// Notified shows a message in the slot for Kind.
	Notified struct {
		Kind    notify.Kind
		Message string
	}
	// Expired clears the slot for Kind if it still shows notification Seq.
	Expired struct {
		Kind notify.Kind
		Seq  uint64
	}
)

func (Loaded) isEvent()       {}
func (NameEdited) isEvent()   {}
func (NumberEdited) isEvent() {}
func (SearchEdited) isEvent() {}
func (Created) isEvent()      {}
func (Updated) isEvent()      {}
func (Deleted) isEvent()      {}
func (DraftCleared) isEvent() {}
func (Notified) isEvent()     {}
func (Expired) isEvent()      {}

// =============================================================================
// REDUCER
// =============================================================================

// Reduce returns the state after e. It never modifies s.Contacts in place.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Loaded:
		s.Contacts = dedupe(e.Contacts)

	case NameEdited:
		s.Draft.Name = e.Value

	case NumberEdited:
		s.Draft.Number = e.Value

	case SearchEdited:
		s.Search = e.Value

	case Created:
		if _, exists := s.FindByID(e.Contact.ID); exists {
			return s
		}
		contacts := make([]contact.Contact, 0, len(s.Contacts)+1)
		contacts = append(contacts, s.Contacts...)
		s.Contacts = append(contacts, e.Contact)

	case Updated:
		replacement := e.Contact
		if replacement.ID == "" {
			replacement.ID = e.ID
		}
		contacts := make([]contact.Contact, len(s.Contacts))
		copy(contacts, s.Contacts)
		for i := range contacts {
			if contacts[i].ID == e.ID {
				contacts[i] = replacement
			}
		}
		s.Contacts = contacts

	case Deleted:
		contacts := make([]contact.Contact, 0, len(s.Contacts))
		for _, c := range s.Contacts {
			if c.ID != e.ID {
				contacts = append(contacts, c)
			}
		}
		s.Contacts = contacts

	case DraftCleared:
		s.Draft = Draft{}

	case Notified:
		s.Seq++
		n := notify.Notification{Message: e.Message, Seq: s.Seq}
		if e.Kind == notify.Error {
			s.Error = n
		} else {
			s.Success = n
		}

	case Expired:
		if e.Kind == notify.Error {
			if s.Error.Seq == e.Seq {
				s.Error = notify.Notification{}
			}
		} else if s.Success.Seq == e.Seq {
			s.Success = notify.Notification{}
		}
	}
	return s
}

// dedupe copies contacts, keeping the first record for each id.
func dedupe(contacts []contact.Contact) []contact.Contact {
	out := make([]contact.Contact, 0, len(contacts))
	seen := make(map[contact.ID]struct{}, len(contacts))
	for _, c := range contacts {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
