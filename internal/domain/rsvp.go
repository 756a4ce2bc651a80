package domain

// Attendance is the respondent's answer for the primary guest.
type Attendance string

// Attendance answers.
const (
	AttendingYes   Attendance = "yes"
	AttendingNo    Attendance = "no"
	AttendingMaybe Attendance = "maybe"
)

// Status maps the answer to a guest status. The second result is false for unknown answers.
func (a Attendance) Status() (RSVPStatus, bool) {
	switch a {
	case AttendingYes:
		return RSVPConfirmed, true
	case AttendingNo:
		return RSVPDeclined, true
	case AttendingMaybe:
		return RSVPMaybe, true
	}
	return "", false
}

// SuppliedAge is an age the respondent gives for an invited child, by position.
type SuppliedAge struct {
	Index int `json:"index"`
	Age   int `json:"age"`
}

// RawRSVPInput is a guest's submission before validation.
type RawRSVPInput struct {
	// Legacy mode only. Invitation mode takes the name from the invitation.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Attending Attendance `json:"attending"`

	BringingPlusOne bool         `json:"bringing_plus_one,omitempty"`
	PlusOneName     string       `json:"plus_one_name,omitempty"`
	PlusOneDietary  DietaryValue `json:"plus_one_dietary,omitzero"`

	Dietary     DietaryValue `json:"dietary,omitzero"`
	Allergies   string       `json:"allergies,omitempty"`
	SongRequest string       `json:"song_request,omitempty"`
	Message     string       `json:"message,omitempty"`

	SecondaryAttending *bool        `json:"secondary_attending,omitempty"`
	SecondaryDietary   DietaryValue `json:"secondary_dietary,omitzero"`

	ChildrenAttending *int          `json:"children_attending,omitempty"`
	ChildrenAges      []SuppliedAge `json:"children_ages,omitempty"`
	ChildrenDietary   DietaryValue  `json:"children_dietary,omitzero"`
}
