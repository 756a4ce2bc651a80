// Package search keeps an in-memory full-text index of guests so hosts can
// find respondents by name, plus-one name or note, ignoring case and accents.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// Index field names.
const (
	fieldEventID     = "event_id"
	fieldName        = "name"
	fieldPlusOneName = "plus_one_name"
	fieldNotes       = "notes"
	fieldStatus      = "rsvp_status"
)

// GuestDocument is the indexed view of a guest. Text fields are folded.
type GuestDocument struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	PlusOneName string `json:"plus_one_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"rsvp_status"`
}

// NewGuestDocument builds the index document for g.
func NewGuestDocument(g *domain.Guest) *GuestDocument {
	return &GuestDocument{
		ID:          g.ID,
		EventID:     g.EventID,
		Name:        Fold(g.Name),
		PlusOneName: Fold(g.PlusOneName),
		Notes:       Fold(g.Notes),
		Status:      string(g.RSVPStatus),
	}
}

// ToMap converts the document to the field layout used by the mapping.
func (d *GuestDocument) ToMap() map[string]any {
	return map[string]any{
		fieldEventID:     d.EventID,
		fieldName:        d.Name,
		fieldPlusOneName: d.PlusOneName,
		fieldNotes:       d.Notes,
		fieldStatus:      d.Status,
	}
}

// Fold lower-cases s and strips diacritics, so "Gonçalves" and "goncalves"
// index to the same terms.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
