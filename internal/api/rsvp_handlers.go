package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/logger"
	"github.com/digitalrsvp/rsvp-server/internal/service"
)

func (s *Server) registerRSVPRoutes() {
	limited := huma.Middlewares{rateLimitMiddleware(s.api, s.rsvpLimiter, s.logger)}

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupRSVP",
		Method:      http.MethodGet,
		Path:        "/api/v1/rsvp/{code}",
		Summary:     "Resolve share code",
		Description: "Resolves an invitation or event share code and returns what the RSVP form needs. Invitation codes win over event codes.",
		Tags:        []string{"RSVP"},
		Middlewares: limited,
	}, s.handleLookupRSVP)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitRSVP",
		Method:        http.MethodPost,
		Path:          "/api/v1/rsvp/{code}",
		Summary:       "Submit RSVP",
		Description:   "Validates a response for the share code and stores it as a guest. For invitations the invitation is marked as answered.",
		Tags:          []string{"RSVP"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   limited,
	}, s.handleSubmitRSVP)
}

// === DTOs ===

// CodeInput is the share code path parameter.
type CodeInput struct {
	Code string `path:"code" maxLength:"64" doc:"Invitation or event share code, case-insensitive"`
}

// LookupOutput wraps the lookup result for Huma.
type LookupOutput struct {
	Body service.LookupResult
}

// DietaryInput is a dietary answer. An empty choice means none.
type DietaryInput struct {
	Choice domain.DietaryChoice `json:"choice,omitempty" doc:"One of none, vegetarian, vegan, gluten-free, lactose-free, nut-allergy, seafood-allergy, halal, kosher, other"`
	Other  string               `json:"other,omitempty" maxLength:"500" doc:"Free text, used when choice is other"`
}

func (d *DietaryInput) toDomain() domain.DietaryValue {
	if d == nil {
		return domain.DietaryValue{}
	}
	return domain.DietaryValue{Choice: d.Choice, Other: d.Other}
}

// ChildAgeInput is an age supplied for an invited child.
type ChildAgeInput struct {
	Index int `json:"index" doc:"Position of the child on the invitation"`
	Age   int `json:"age" doc:"Age in years"`
}

// SubmitRSVPRequest is the public RSVP form.
type SubmitRSVPRequest struct {
	Name  string `json:"name,omitempty" maxLength:"200" doc:"Respondent name, required for event codes only"`
	Email string `json:"email,omitempty" maxLength:"254"`
	Phone string `json:"phone,omitempty" maxLength:"50"`

	Attending domain.Attendance `json:"attending" doc:"Primary guest answer: yes, no or maybe"`

	BringingPlusOne bool          `json:"bringing_plus_one,omitempty"`
	PlusOneName     string        `json:"plus_one_name,omitempty" maxLength:"200"`
	PlusOneDietary  *DietaryInput `json:"plus_one_dietary,omitempty"`

	Dietary     *DietaryInput `json:"dietary,omitempty"`
	Allergies   string        `json:"allergies,omitempty" maxLength:"500"`
	SongRequest string        `json:"song_request,omitempty" maxLength:"200"`
	Message     string        `json:"message,omitempty" maxLength:"2000"`

	SecondaryAttending *bool         `json:"secondary_attending,omitempty" doc:"Defaults to the primary answer being yes"`
	SecondaryDietary   *DietaryInput `json:"secondary_dietary,omitempty"`

	ChildrenAttending *int            `json:"children_attending,omitempty" doc:"Defaults to the number of invited children"`
	ChildrenAges      []ChildAgeInput `json:"children_ages,omitempty" maxItems:"20"`
	ChildrenDietary   *DietaryInput   `json:"children_dietary,omitempty"`
}

func (r SubmitRSVPRequest) toDomain() domain.RawRSVPInput {
	in := domain.RawRSVPInput{
		Name:               r.Name,
		Email:              r.Email,
		Phone:              r.Phone,
		Attending:          r.Attending,
		BringingPlusOne:    r.BringingPlusOne,
		PlusOneName:        r.PlusOneName,
		PlusOneDietary:     r.PlusOneDietary.toDomain(),
		Dietary:            r.Dietary.toDomain(),
		Allergies:          r.Allergies,
		SongRequest:        r.SongRequest,
		Message:            r.Message,
		SecondaryAttending: r.SecondaryAttending,
		SecondaryDietary:   r.SecondaryDietary.toDomain(),
		ChildrenAttending:  r.ChildrenAttending,
		ChildrenDietary:    r.ChildrenDietary.toDomain(),
	}
	for _, a := range r.ChildrenAges {
		in.ChildrenAges = append(in.ChildrenAges, domain.SuppliedAge{Index: a.Index, Age: a.Age})
	}
	return in
}

// SubmitRSVPInput wraps the submission for Huma.
type SubmitRSVPInput struct {
	Code string `path:"code" maxLength:"64" doc:"Invitation or event share code, case-insensitive"`
	Body SubmitRSVPRequest
}

// SubmitRSVPOutput wraps the stored response for Huma.
type SubmitRSVPOutput struct {
	Body service.SubmitResult
}

// === Handlers ===

func (s *Server) handleLookupRSVP(ctx context.Context, input *CodeInput) (*LookupOutput, error) {
	ctx = logger.WithAttrs(ctx, slog.String("code", service.NormalizeCode(input.Code)))

	result, err := s.services.RSVP.Lookup(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	return &LookupOutput{Body: *result}, nil
}

func (s *Server) handleSubmitRSVP(ctx context.Context, input *SubmitRSVPInput) (*SubmitRSVPOutput, error) {
	ctx = logger.WithAttrs(ctx, slog.String("code", service.NormalizeCode(input.Code)))

	result, err := s.services.RSVP.Submit(ctx, input.Code, input.Body.toDomain())
	if err != nil {
		return nil, err
	}
	return &SubmitRSVPOutput{Body: *result}, nil
}
