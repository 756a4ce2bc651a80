package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// RSVPStatus is a guest's attendance answer.
type RSVPStatus string

// RSVP statuses.
const (
	RSVPPending   RSVPStatus = "pending"
	RSVPConfirmed RSVPStatus = "confirmed"
	RSVPDeclined  RSVPStatus = "declined"
	RSVPMaybe     RSVPStatus = "maybe"
)

// IsValid reports whether s is a known status.
func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPPending, RSVPConfirmed, RSVPDeclined, RSVPMaybe:
		return true
	}
	return false
}

// AnswerKey names an entry of a guest's custom answers.
type AnswerKey string

// Known custom answer keys. Anything else is rejected at the API boundary.
const (
	AnswerSecondaryAttending AnswerKey = "secondary_attending"
	AnswerSecondaryDietary   AnswerKey = "secondary_dietary"
	AnswerChildrenAges       AnswerKey = "children_ages"

	// Raw dietary input kept for support and debugging.
	AnswerPrimaryDietaryChoice   AnswerKey = "primary_dietary_choice"
	AnswerPrimaryDietaryOther    AnswerKey = "primary_dietary_other"
	AnswerPlusOneDietaryChoice   AnswerKey = "plus_one_dietary_choice"
	AnswerPlusOneDietaryOther    AnswerKey = "plus_one_dietary_other"
	AnswerSecondaryDietaryChoice AnswerKey = "secondary_dietary_choice"
	AnswerSecondaryDietaryOther  AnswerKey = "secondary_dietary_other"
	AnswerChildrenDietaryChoice  AnswerKey = "children_dietary_choice"
	AnswerChildrenDietaryOther   AnswerKey = "children_dietary_other"
)

var answerKeys = []AnswerKey{
	AnswerSecondaryAttending,
	AnswerSecondaryDietary,
	AnswerChildrenAges,
	AnswerPrimaryDietaryChoice,
	AnswerPrimaryDietaryOther,
	AnswerPlusOneDietaryChoice,
	AnswerPlusOneDietaryOther,
	AnswerSecondaryDietaryChoice,
	AnswerSecondaryDietaryOther,
	AnswerChildrenDietaryChoice,
	AnswerChildrenDietaryOther,
}

// IsKnown reports whether k belongs to the closed key set.
func (k AnswerKey) IsKnown() bool {
	return slices.Contains(answerKeys, k)
}

// CustomAnswers carries per-invitation-type response data that has no column of its own.
type CustomAnswers map[AnswerKey]string

// Validate returns an error naming every unknown key.
func (a CustomAnswers) Validate() error {
	var unknown []string
	for k := range a {
		if !k.IsKnown() {
			unknown = append(unknown, string(k))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown custom answer keys: %s", strings.Join(unknown, ", "))
}

// SetAudit records the raw dietary pair under the given keys.
func (a CustomAnswers) SetAudit(choiceKey, otherKey AnswerKey, v DietaryValue) {
	choice := v.Choice
	if choice == "" {
		choice = DietaryNone
	}
	a[choiceKey] = string(choice)
	if other := strings.TrimSpace(v.Other); other != "" {
		a[otherKey] = other
	}
}

// ChildAge is a child age supplied by the respondent, stored as JSON under children_ages.
type ChildAge struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
}

// Guest is one RSVP response, or a host-entered attendee.
type Guest struct {
	Record
	EventID      string `json:"event_id"`
	InvitationID string `json:"invitation_id,omitempty"`

	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	RSVPStatus RSVPStatus `json:"rsvp_status"`
	RSVPDate   *time.Time `json:"rsvp_date,omitempty"`

	PlusOne                    bool   `json:"plus_one"`
	PlusOneName                string `json:"plus_one_name,omitempty"`
	PlusOneConfirmed           bool   `json:"plus_one_confirmed"`
	PlusOneDietaryRestrictions string `json:"plus_one_dietary_restrictions,omitempty"`

	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	Allergies           string `json:"allergies,omitempty"`
	SongRequest         string `json:"song_request,omitempty"`

	ChildrenAttending           *int   `json:"children_attending,omitempty"`
	ChildrenDietaryRestrictions string `json:"children_dietary_restrictions,omitempty"`

	CustomAnswers CustomAnswers `json:"custom_answers,omitempty"`
	Notes         string        `json:"notes,omitempty"`

	TableNumber int    `json:"table_number,omitempty"`
	Group       string `json:"group,omitempty"`

	InvitationSent     bool       `json:"invitation_sent"`
	InvitationSentDate *time.Time `json:"invitation_sent_date,omitempty"`
	ReminderSent       bool       `json:"reminder_sent"`
	ReminderSentDate   *time.Time `json:"reminder_sent_date,omitempty"`
}

// HasPlusOne reports whether the guest brings a confirmed plus-one.
func (g *Guest) HasPlusOne() bool {
	return g.PlusOne && g.PlusOneConfirmed
}

// HasDietaryRestriction reports whether the primary respondent declared a restriction or allergy.
func (g *Guest) HasDietaryRestriction() bool {
	return strings.TrimSpace(g.DietaryRestrictions) != "" || strings.TrimSpace(g.Allergies) != ""
}
