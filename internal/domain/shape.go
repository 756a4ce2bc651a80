package domain

// Shape lists the optional response sections an RSVP form offers.
// Client rendering and server validation both derive it from ShapeFor.
type Shape struct {
	ShowSecondaryGuest bool `json:"show_secondary_guest"`
	ShowPlusOne        bool `json:"show_plus_one"`
	ShowChildren       bool `json:"show_children"`
}

// ShapeFor derives the response shape of an invitation.
// The event only contributes askChildrenInfo; the invitation's own
// allowPlusOne decides the plus-one section.
func ShapeFor(inv *Invitation, event *Event) Shape {
	if inv == nil {
		return Shape{}
	}
	askChildren := event != nil && event.AskChildrenInfo
	return Shape{
		ShowSecondaryGuest: inv.InvitationType.HasSecondaryGuest(),
		ShowPlusOne:        inv.InvitationType.IsSingle() && inv.AllowPlusOne,
		ShowChildren:       inv.InvitationType.HasChildren() && len(inv.Children) > 0 && askChildren,
	}
}

// LegacyShape is the shape of a response entered through an event share code.
func LegacyShape(event *Event) Shape {
	return Shape{
		ShowPlusOne: event != nil && event.AllowPlusOne,
	}
}
