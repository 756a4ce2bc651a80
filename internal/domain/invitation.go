package domain

import (
	"slices"
	"strings"
	"time"
)

// InvitationType selects which response sections an invitation offers.
type InvitationType string

// Invitation types.
const (
	InvitationSingle        InvitationType = "single"
	InvitationSinglePlusOne InvitationType = "single-plus-one"
	InvitationCouple        InvitationType = "couple"
	InvitationFamily        InvitationType = "family"
	InvitationGroup         InvitationType = "group"
)

// InvitationTypes lists every valid invitation type.
var InvitationTypes = []InvitationType{
	InvitationSingle,
	InvitationSinglePlusOne,
	InvitationCouple,
	InvitationFamily,
	InvitationGroup,
}

// IsValid reports whether t is a known invitation type.
func (t InvitationType) IsValid() bool {
	return slices.Contains(InvitationTypes, t)
}

// HasSecondaryGuest reports whether invitations of this type name a second person.
func (t InvitationType) HasSecondaryGuest() bool {
	return t == InvitationCouple || t == InvitationFamily || t == InvitationGroup
}

// HasChildren reports whether invitations of this type may list children.
func (t InvitationType) HasChildren() bool {
	return t == InvitationFamily
}

// IsSingle reports whether the invitation addresses one person.
func (t InvitationType) IsSingle() bool {
	return t == InvitationSingle || t == InvitationSinglePlusOne
}

// ResubmissionPolicy decides what happens when an answered invitation is submitted again.
type ResubmissionPolicy string

// Resubmission policies.
const (
	// ResubmissionOverwrite accepts the new answer and replaces the previous one.
	ResubmissionOverwrite ResubmissionPolicy = "overwrite"
	// ResubmissionReject refuses the new answer with an AlreadySubmitted error.
	ResubmissionReject ResubmissionPolicy = "reject"
)

// IsValid reports whether p is a known policy.
func (p ResubmissionPolicy) IsValid() bool {
	return p == ResubmissionOverwrite || p == ResubmissionReject
}

// InvitedPerson is a named invitee.
type InvitedPerson struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InvitedChild is a child listed on a family invitation.
// A nil Age means the respondent is asked for it.
type InvitedChild struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

// Invitation is a personalized entry point to an event.
type Invitation struct {
	Record
	EventID        string         `json:"event_id"`
	InvitationType InvitationType `json:"invitation_type"`
	ShareCode      string         `json:"share_code"`

	PrimaryGuest   InvitedPerson  `json:"primary_guest"`
	SecondaryGuest *InvitedPerson `json:"secondary_guest,omitempty"`
	AllowPlusOne   bool           `json:"allow_plus_one"`
	Children       []InvitedChild `json:"children,omitempty"`

	// Only the RSVP submission flow changes these two fields.
	RSVPSubmitted bool       `json:"rsvp_submitted"`
	RSVPDate      *time.Time `json:"rsvp_date,omitempty"`
}

// PlusOneDefault returns the plus-one setting implied by the type alone.
// ok is false for types where the event's setting applies.
func (t InvitationType) PlusOneDefault() (allow, ok bool) {
	switch t {
	case InvitationSinglePlusOne:
		return true, true
	case InvitationCouple, InvitationFamily:
		return false, true
	}
	return false, false
}

// DefaultAllowPlusOne returns the plus-one setting a new invitation starts with.
// An explicit request value always wins; otherwise the type decides, and
// the event flag seeds the rest.
func DefaultAllowPlusOne(t InvitationType, requested *bool, event *Event) bool {
	if requested != nil {
		return *requested
	}
	if allow, ok := t.PlusOneDefault(); ok {
		return allow
	}
	return event != nil && event.AllowPlusOne
}

// Normalize enforces the structural invariants of the invitation type:
// a secondary guest only for couple, family and group, children only for family,
// and no children with blank names.
func (inv *Invitation) Normalize() {
	inv.PrimaryGuest = inv.PrimaryGuest.trimmed()

	if !inv.InvitationType.HasSecondaryGuest() {
		inv.SecondaryGuest = nil
	} else if inv.SecondaryGuest != nil {
		p := inv.SecondaryGuest.trimmed()
		if p.Name == "" && p.Email == "" && p.Phone == "" {
			inv.SecondaryGuest = nil
		} else {
			inv.SecondaryGuest = &p
		}
	}

	if !inv.InvitationType.HasChildren() {
		inv.Children = nil
		return
	}

	children := make([]InvitedChild, 0, len(inv.Children))
	for _, c := range inv.Children {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		children = append(children, c)
	}
	if len(children) == 0 {
		children = nil
	}
	inv.Children = children
}

// CanSubmit reports whether a response may be recorded under the given policy.
func (inv *Invitation) CanSubmit(policy ResubmissionPolicy) bool {
	return !inv.RSVPSubmitted || policy != ResubmissionReject
}

// MarkSubmitted moves the invitation to the submitted state.
func (inv *Invitation) MarkSubmitted(at time.Time) {
	inv.RSVPSubmitted = true
	inv.RSVPDate = &at
}

// DisplayName joins the primary and secondary names ("Ana & Rui").
func (inv *Invitation) DisplayName() string {
	if inv.SecondaryGuest != nil && inv.SecondaryGuest.Name != "" {
		return inv.PrimaryGuest.Name + " & " + inv.SecondaryGuest.Name
	}
	return inv.PrimaryGuest.Name
}

func (p InvitedPerson) trimmed() InvitedPerson {
	return InvitedPerson{
		Name:  strings.TrimSpace(p.Name),
		Email: strings.TrimSpace(p.Email),
		Phone: strings.TrimSpace(p.Phone),
	}
}
