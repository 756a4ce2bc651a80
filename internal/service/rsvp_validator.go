package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
)

// MaxChildAge is the oldest age a respondent may give for an invited child.
const MaxChildAge = 25

// ValidateRSVP checks a raw submission against the shape of its resolution
// and builds the guest record to persist. The guest has no id yet.
//
// Sections the shape does not offer are ignored, as is the plus-one of a
// respondent who declines. Every dietary value is stored normalized; the raw
// choice and free text only survive in the custom answers audit keys.
func ValidateRSVP(res *domain.Resolution, in domain.RawRSVPInput, now time.Time) (*domain.Guest, error) {
	if res == nil || res.Kind == domain.ResolvedNotFound {
		return nil, domainerrors.NotFound("invitation not found")
	}
	if !res.Available() {
		return nil, domainerrors.Integrity("invitation unavailable")
	}

	status, ok := in.Attending.Status()
	if !ok {
		return nil, domainerrors.FieldValidation("attending", "attending must be yes, no or maybe")
	}

	dietary := []struct {
		field string
		value domain.DietaryValue
	}{
		{"dietary", in.Dietary},
		{"plus_one_dietary", in.PlusOneDietary},
		{"secondary_dietary", in.SecondaryDietary},
		{"children_dietary", in.ChildrenDietary},
	}
	for _, d := range dietary {
		if !d.value.Choice.IsValid() {
			return nil, domainerrors.FieldValidation(d.field+".choice", d.field+" must be a known dietary choice")
		}
	}

	g := &domain.Guest{
		EventID:             res.Event.ID,
		Email:               strings.TrimSpace(in.Email),
		Phone:               strings.TrimSpace(in.Phone),
		RSVPStatus:          status,
		RSVPDate:            &now,
		DietaryRestrictions: in.Dietary.Normalize(),
		Allergies:           strings.TrimSpace(in.Allergies),
		SongRequest:         strings.TrimSpace(in.SongRequest),
		Notes:               strings.TrimSpace(in.Message),
		InvitationSent:      true,
		InvitationSentDate:  &now,
		ReminderSent:        false,
	}

	answers := domain.CustomAnswers{}
	answers.SetAudit(domain.AnswerPrimaryDietaryChoice, domain.AnswerPrimaryDietaryOther, in.Dietary)

	if inv := res.Invitation; res.Kind == domain.ResolvedInvitation {
		g.InvitationID = inv.ID
		g.Name = strings.TrimSpace(inv.PrimaryGuest.Name)
		if g.Email == "" {
			g.Email = inv.PrimaryGuest.Email
		}
		if g.Phone == "" {
			g.Phone = inv.PrimaryGuest.Phone
		}
	} else {
		g.Name = strings.TrimSpace(in.Name)
	}
	if g.Name == "" {
		return nil, domainerrors.FieldValidation("name", "name is required")
	}

	shape := res.Shape()

	if shape.ShowPlusOne && in.BringingPlusOne && status != domain.RSVPDeclined {
		g.PlusOne = true
		g.PlusOneConfirmed = true
		g.PlusOneName = strings.TrimSpace(in.PlusOneName)
		g.PlusOneDietaryRestrictions = in.PlusOneDietary.Normalize()
		answers.SetAudit(domain.AnswerPlusOneDietaryChoice, domain.AnswerPlusOneDietaryOther, in.PlusOneDietary)
	}

	if shape.ShowSecondaryGuest {
		attending := status == domain.RSVPConfirmed
		if in.SecondaryAttending != nil {
			attending = *in.SecondaryAttending
		}
		answers[domain.AnswerSecondaryAttending] = strconv.FormatBool(attending)
		if d := in.SecondaryDietary.Normalize(); d != "" {
			answers[domain.AnswerSecondaryDietary] = d
		}
		answers.SetAudit(domain.AnswerSecondaryDietaryChoice, domain.AnswerSecondaryDietaryOther, in.SecondaryDietary)
	}

	if shape.ShowChildren {
		if err := applyChildren(g, answers, res.Invitation.Children, in); err != nil {
			return nil, err
		}
	}

	g.CustomAnswers = answers
	return g, nil
}

// applyChildren fills the children section. Ages are required for every
// invited child without a preset age, unless no child attends.
func applyChildren(g *domain.Guest, answers domain.CustomAnswers, children []domain.InvitedChild, in domain.RawRSVPInput) error {
	count := len(children)
	if in.ChildrenAttending != nil {
		count = *in.ChildrenAttending
		if count < 0 || count > len(children) {
			return domainerrors.FieldValidation("children_attending",
				fmt.Sprintf("children_attending must be between 0 and %d", len(children)))
		}
	}
	g.ChildrenAttending = &count
	g.ChildrenDietaryRestrictions = in.ChildrenDietary.Normalize()
	answers.SetAudit(domain.AnswerChildrenDietaryChoice, domain.AnswerChildrenDietaryOther, in.ChildrenDietary)

	supplied := make(map[int]int, len(in.ChildrenAges))
	for _, a := range in.ChildrenAges {
		field := fmt.Sprintf("children_ages[%d]", a.Index)
		if a.Index < 0 || a.Index >= len(children) {
			return domainerrors.FieldValidation(field, "no invited child at this position")
		}
		if a.Age < 0 || a.Age > MaxChildAge {
			return domainerrors.FieldValidation(field, fmt.Sprintf("age must be between 0 and %d", MaxChildAge))
		}
		supplied[a.Index] = a.Age
	}

	if count == 0 {
		return nil
	}

	var ages []domain.ChildAge
	for i, c := range children {
		if c.Age != nil {
			continue
		}
		age, ok := supplied[i]
		if !ok {
			return domainerrors.FieldValidation(fmt.Sprintf("children_ages[%d]", i), "age is required for "+c.Name)
		}
		ages = append(ages, domain.ChildAge{Index: i, Name: c.Name, Age: age})
	}

	if len(ages) > 0 {
		data, err := json.Marshal(ages)
		if err != nil {
			return fmt.Errorf("encode children ages: %w", err)
		}
		answers[domain.AnswerChildrenAges] = string(data)
	}
	return nil
}
