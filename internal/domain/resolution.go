package domain

// ResolutionKind tags the outcome of resolving a share code.
type ResolutionKind string

// Resolution kinds.
const (
	ResolvedInvitation ResolutionKind = "invitation"
	ResolvedEvent      ResolutionKind = "event"
	ResolvedNotFound   ResolutionKind = "not_found"
)

// Resolution is the tagged result of looking up a share code.
//
// For ResolvedInvitation, Invitation is set and Event may be nil when the
// referenced event no longer exists. For ResolvedEvent only Event is set.
// For ResolvedNotFound both are nil.
type Resolution struct {
	Kind       ResolutionKind
	Invitation *Invitation
	Event      *Event
}

// NotFoundResolution is the result for an unknown code.
func NotFoundResolution() *Resolution {
	return &Resolution{Kind: ResolvedNotFound}
}

// InvitationResolution wraps an invitation and its (possibly missing) event.
func InvitationResolution(inv *Invitation, event *Event) *Resolution {
	return &Resolution{Kind: ResolvedInvitation, Invitation: inv, Event: event}
}

// EventResolution wraps a legacy event-level match.
func EventResolution(event *Event) *Resolution {
	return &Resolution{Kind: ResolvedEvent, Event: event}
}

// Available reports whether the resolution carries enough data to render a form.
func (r *Resolution) Available() bool {
	switch r.Kind {
	case ResolvedInvitation:
		return r.Invitation != nil && r.Event != nil
	case ResolvedEvent:
		return r.Event != nil
	}
	return false
}

// Shape returns the response shape for the resolution.
func (r *Resolution) Shape() Shape {
	switch r.Kind {
	case ResolvedInvitation:
		return ShapeFor(r.Invitation, r.Event)
	case ResolvedEvent:
		return LegacyShape(r.Event)
	}
	return Shape{}
}
