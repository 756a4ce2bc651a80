package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/id"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

// codeAttempts bounds share code generation when a code is already taken.
const codeAttempts = 5

// EventService manages host events.
type EventService struct {
	cols      *store.Collections
	index     *search.GuestIndex
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventService creates a new event service.
func NewEventService(cols *store.Collections, index *search.GuestIndex, validator *validation.Validator, logger *slog.Logger) *EventService {
	return &EventService{
		cols:      cols,
		index:     index,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// VenueInput is the venue part of an event request.
type VenueInput struct {
	Name        string              `json:"name,omitempty" validate:"max=200"`
	Address     string              `json:"address,omitempty" validate:"max=500"`
	City        string              `json:"city,omitempty" validate:"max=200"`
	Country     string              `json:"country,omitempty" validate:"max=100"`
	Coordinates *domain.Coordinates `json:"coordinates,omitempty"`
	MapsURL     string              `json:"maps_url,omitempty" validate:"omitempty,url"`
}

// ScheduleInput is one programme entry of an event request.
type ScheduleInput struct {
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Icon        string `json:"icon,omitempty" validate:"max=50"`
}

// CreateEventRequest contains the data needed to create an event.
type CreateEventRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Subtitle    string           `json:"subtitle,omitempty" validate:"max=200"`
	Description string           `json:"description,omitempty" validate:"max=5000"`
	EventType   domain.EventType `json:"event_type" validate:"required,event_type"`

	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	EndDate string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndTime string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`

	Venue      VenueInput      `json:"venue,omitempty"`
	Hosts      []string        `json:"hosts,omitempty" validate:"max=10,dive,required,max=200"`
	CoverImage string          `json:"cover_image,omitempty" validate:"omitempty,url"`
	Theme      domain.Theme    `json:"theme,omitempty" validate:"omitempty,theme"`
	Language   string          `json:"language,omitempty" validate:"omitempty,language"`
	Schedule   []ScheduleInput `json:"schedule,omitempty" validate:"max=50,dive"`

	RSVPDeadline string `json:"rsvp_deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxGuests    int    `json:"max_guests,omitempty" validate:"gte=0"`

	AllowPlusOne           bool `json:"allow_plus_one,omitempty"`
	AskDietaryRestrictions bool `json:"ask_dietary_restrictions,omitempty"`
	AskSongRequest         bool `json:"ask_song_request,omitempty"`
	AskChildrenInfo        bool `json:"ask_children_info,omitempty"`
}

// UpdateEventRequest is a partial event update. Nil fields are left unchanged.
// The share code cannot be changed.
type UpdateEventRequest struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Subtitle    *string           `json:"subtitle,omitempty" validate:"omitempty,max=200"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=5000"`
	EventType   *domain.EventType `json:"event_type,omitempty" validate:"omitempty,event_type"`

	Date    *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time    *string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	EndDate *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndTime *string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`

	Venue      *VenueInput      `json:"venue,omitempty"`
	Hosts      *[]string        `json:"hosts,omitempty" validate:"omitempty,max=10,dive,required,max=200"`
	CoverImage *string          `json:"cover_image,omitempty" validate:"omitempty,url"`
	Theme      *domain.Theme    `json:"theme,omitempty" validate:"omitempty,theme"`
	Language   *string          `json:"language,omitempty" validate:"omitempty,language"`
	Schedule   *[]ScheduleInput `json:"schedule,omitempty" validate:"omitempty,max=50,dive"`

	RSVPDeadline *string `json:"rsvp_deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaxGuests    *int    `json:"max_guests,omitempty" validate:"omitempty,gte=0"`

	AllowPlusOne           *bool `json:"allow_plus_one,omitempty"`
	AskDietaryRestrictions *bool `json:"ask_dietary_restrictions,omitempty"`
	AskSongRequest         *bool `json:"ask_song_request,omitempty"`
	AskChildrenInfo        *bool `json:"ask_children_info,omitempty"`
}

// CreateEvent creates an event with a fresh share code.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lang, err := domain.CanonicalLanguage(req.Language)
	if err != nil {
		return nil, domainerrors.FieldValidation("language", "language must be a valid language tag")
	}
	theme := req.Theme
	if theme == "" {
		theme = domain.ThemeElegant
	}

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate event id")
	}

	now := s.now().UTC()
	event := &domain.Event{
		Record:                 domain.Record{ID: eventID, CreatedAt: now, UpdatedAt: now},
		Title:                  strings.TrimSpace(req.Title),
		Subtitle:               strings.TrimSpace(req.Subtitle),
		Description:            strings.TrimSpace(req.Description),
		EventType:              req.EventType,
		Date:                   req.Date,
		Time:                   req.Time,
		EndDate:                req.EndDate,
		EndTime:                req.EndTime,
		Venue:                  req.Venue.toDomain(),
		Hosts:                  hostsOrEmpty(req.Hosts),
		CoverImage:             req.CoverImage,
		Theme:                  theme,
		Language:               lang,
		Schedule:               scheduleToDomain(req.Schedule),
		RSVPDeadline:           req.RSVPDeadline,
		MaxGuests:              req.MaxGuests,
		AllowPlusOne:           req.AllowPlusOne,
		AskDietaryRestrictions: req.AskDietaryRestrictions,
		AskSongRequest:         req.AskSongRequest,
		AskChildrenInfo:        req.AskChildrenInfo,
	}

	for attempt := 1; ; attempt++ {
		event.ShareCode, err = id.EventCode()
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate share code")
		}
		err = s.cols.Events.Insert(ctx, event.ID, event)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == codeAttempts {
			return nil, storeError(err, "event")
		}
		s.logger.DebugContext(ctx, "event share code taken, regenerating", "attempt", attempt)
	}

	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "code", event.ShareCode)
	return event, nil
}

// ListEvents returns every event, newest first.
func (s *EventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := readWithRetry(ctx, s.logger, "list events", func(ctx context.Context) ([]*domain.Event, error) {
		return s.cols.Events.Find(ctx, nil)
	})
	if err != nil {
		return nil, storeError(err, "events")
	}
	slices.SortFunc(events, func(a, b *domain.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return events, nil
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := readWithRetry(ctx, s.logger, "get event", func(ctx context.Context) (*domain.Event, error) {
		return s.cols.Events.Get(ctx, eventID)
	})
	if err != nil {
		return nil, storeError(err, "event")
	}
	return event, nil
}

// UpdateEvent applies a partial update.
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, req UpdateEventRequest) (*domain.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := store.Patch{}
	setString := func(field string, v *string) {
		if v != nil {
			patch[field] = strings.TrimSpace(*v)
		}
	}
	setBool := func(field string, v *bool) {
		if v != nil {
			patch[field] = *v
		}
	}

	setString("title", req.Title)
	setString("subtitle", req.Subtitle)
	setString("description", req.Description)
	setString("date", req.Date)
	setString("time", req.Time)
	setString("end_date", req.EndDate)
	setString("end_time", req.EndTime)
	setString("cover_image", req.CoverImage)
	setString("rsvp_deadline", req.RSVPDeadline)
	if req.EventType != nil {
		patch["event_type"] = *req.EventType
	}
	if req.Theme != nil {
		patch["theme"] = *req.Theme
	}
	if req.Language != nil {
		lang, err := domain.CanonicalLanguage(*req.Language)
		if err != nil {
			return nil, domainerrors.FieldValidation("language", "language must be a valid language tag")
		}
		patch["language"] = lang
	}
	if req.Venue != nil {
		patch["venue"] = req.Venue.toDomain()
	}
	if req.Hosts != nil {
		patch["hosts"] = hostsOrEmpty(*req.Hosts)
	}
	if req.Schedule != nil {
		patch["schedule"] = scheduleToDomain(*req.Schedule)
	}
	if req.MaxGuests != nil {
		patch["max_guests"] = *req.MaxGuests
	}
	setBool("allow_plus_one", req.AllowPlusOne)
	setBool("ask_dietary_restrictions", req.AskDietaryRestrictions)
	setBool("ask_song_request", req.AskSongRequest)
	setBool("ask_children_info", req.AskChildrenInfo)

	if title, ok := patch["title"].(string); ok && title == "" {
		return nil, domainerrors.FieldValidation("title", "title is required")
	}

	event, err := s.cols.Events.Update(ctx, eventID, patch)
	if err != nil {
		return nil, storeError(err, "event")
	}

	s.logger.InfoContext(ctx, "event updated", "event_id", eventID, "fields", len(patch))
	return event, nil
}

// DeleteEvent removes an event together with its invitations and guests.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}

	filter := store.Filter{store.FieldEventID: eventID}

	guests, err := readWithRetry(ctx, s.logger, "list event guests", func(ctx context.Context) ([]*domain.Guest, error) {
		return s.cols.Guests.Find(ctx, filter)
	})
	if err != nil {
		return storeError(err, "guests")
	}
	guestIDs := make([]string, 0, len(guests))
	for _, g := range guests {
		if err := s.cols.Guests.Delete(ctx, g.ID); err != nil {
			return storeError(err, "guest")
		}
		guestIDs = append(guestIDs, g.ID)
	}
	if err := s.index.DeleteGuests(guestIDs); err != nil {
		s.logger.WarnContext(ctx, "failed to remove guests from search index", "event_id", eventID, "error", err)
	}

	invitations, err := readWithRetry(ctx, s.logger, "list event invitations", func(ctx context.Context) ([]*domain.Invitation, error) {
		return s.cols.Invitations.Find(ctx, filter)
	})
	if err != nil {
		return storeError(err, "invitations")
	}
	for _, inv := range invitations {
		if err := s.cols.Invitations.Delete(ctx, inv.ID); err != nil {
			return storeError(err, "invitation")
		}
	}

	if err := s.cols.Events.Delete(ctx, eventID); err != nil {
		return storeError(err, "event")
	}

	s.logger.InfoContext(ctx, "event deleted",
		"event_id", eventID,
		"guests", len(guests),
		"invitations", len(invitations),
	)
	return nil
}

func (v VenueInput) toDomain() domain.Venue {
	return domain.Venue{
		Name:        strings.TrimSpace(v.Name),
		Address:     strings.TrimSpace(v.Address),
		City:        strings.TrimSpace(v.City),
		Country:     strings.TrimSpace(v.Country),
		Coordinates: v.Coordinates,
		MapsURL:     v.MapsURL,
	}
}

func hostsOrEmpty(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func scheduleToDomain(items []ScheduleInput) []domain.ScheduleItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.ScheduleItem, len(items))
	for i, item := range items {
		out[i] = domain.ScheduleItem{
			ID:          id.MustGenerate("sched"),
			Time:        item.Time,
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Icon:        item.Icon,
		}
	}
	return out
}
