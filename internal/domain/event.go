package domain

import (
	"slices"

	"golang.org/x/text/language"
)

// EventType classifies the occasion.
type EventType string

// Event types.
const (
	EventTypeWedding     EventType = "wedding"
	EventTypeEngagement  EventType = "engagement"
	EventTypeBirthday    EventType = "birthday"
	EventTypeBabyShower  EventType = "baby-shower"
	EventTypeAnniversary EventType = "anniversary"
	EventTypeGraduation  EventType = "graduation"
	EventTypeCorporate   EventType = "corporate"
	EventTypeOther       EventType = "other"
)

// EventTypes lists every valid event type in display order.
var EventTypes = []EventType{
	EventTypeWedding,
	EventTypeEngagement,
	EventTypeBirthday,
	EventTypeBabyShower,
	EventTypeAnniversary,
	EventTypeGraduation,
	EventTypeCorporate,
	EventTypeOther,
}

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	return slices.Contains(EventTypes, t)
}

// Theme is the visual style of the invitation card.
type Theme string

// Invitation themes.
const (
	ThemeElegant  Theme = "elegant"
	ThemeMinimal  Theme = "minimal"
	ThemeFloral   Theme = "floral"
	ThemeRustic   Theme = "rustic"
	ThemeModern   Theme = "modern"
	ThemeRomantic Theme = "romantic"
	ThemeTropical Theme = "tropical"
	ThemeClassic  Theme = "classic"
)

// Themes lists every valid theme.
var Themes = []Theme{
	ThemeElegant, ThemeMinimal, ThemeFloral, ThemeRustic,
	ThemeModern, ThemeRomantic, ThemeTropical, ThemeClassic,
}

// IsValid reports whether t is a known theme.
func (t Theme) IsValid() bool {
	return slices.Contains(Themes, t)
}

// DefaultLanguage is used when an event does not specify one.
const DefaultLanguage = "pt-PT"

// Coordinates is a venue location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Venue describes where the event takes place.
type Venue struct {
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	City        string       `json:"city"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	MapsURL     string       `json:"maps_url,omitempty"`
}

// ScheduleItem is one entry of the event programme.
type ScheduleItem struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Event is a host-created occasion. Its ShareCode is the legacy RSVP entry point.
type Event struct {
	Record
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	EventType   EventType `json:"event_type"`

	// Date and time fields are kept as the host entered them (ISO date, HH:MM).
	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	EndDate string `json:"end_date,omitempty"`
	EndTime string `json:"end_time,omitempty"`

	Venue      Venue          `json:"venue"`
	Hosts      []string       `json:"hosts"`
	CoverImage string         `json:"cover_image,omitempty"`
	Theme      Theme          `json:"theme"`
	Language   string         `json:"language"`
	Schedule   []ScheduleItem `json:"schedule,omitempty"`

	RSVPDeadline string `json:"rsvp_deadline,omitempty"`
	MaxGuests    int    `json:"max_guests,omitempty"`

	AllowPlusOne           bool `json:"allow_plus_one"`
	AskDietaryRestrictions bool `json:"ask_dietary_restrictions"`
	AskSongRequest         bool `json:"ask_song_request"`
	AskChildrenInfo        bool `json:"ask_children_info"`

	ShareCode string `json:"share_code"`
}

// CanonicalLanguage parses a BCP 47 tag and returns its canonical form.
// An empty tag yields DefaultLanguage.
func CanonicalLanguage(tag string) (string, error) {
	if tag == "" {
		return DefaultLanguage, nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
