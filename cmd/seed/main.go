// Package main seeds a store with a demo event and one invitation of each type.
//
// Usage:
//
//	DB_PATH=~/rsvp-server/data/db go run ./cmd/seed
//	go run ./cmd/seed --sqlite ~/rsvp-server/data/rsvp.db --public-url https://rsvp.example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/search"
	"github.com/digitalrsvp/rsvp-server/internal/service"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/store/sqlite"
	"github.com/digitalrsvp/rsvp-server/internal/validation"
)

var (
	sqlitePath = flag.String("sqlite", "", "Seed this SQLite file instead of the Badger store at DB_PATH")
	publicURL  = flag.String("public-url", "http://localhost:8080", "Base URL printed with each share link")
)

func main() {
	flag.Parse()

	backend, err := openBackend()
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	validator := validation.New()
	cols := backend.Collections()

	index, err := search.NewGuestIndex(nil)
	if err != nil {
		log.Fatalf("Failed to create search index: %v", err)
	}
	defer index.Close()

	events := service.NewEventService(cols, index, validator, logger)
	invitations := service.NewInvitationService(cols, validator, logger, *publicURL)

	event, err := events.CreateEvent(ctx, service.CreateEventRequest{
		Title:     "Casamento Ana & Rui",
		EventType: domain.EventTypeWedding,
		Date:      "2026-09-12",
		Time:      "16:00",
		Venue: service.VenueInput{
			Name:    "Quinta do Lago",
			City:    "Sintra",
			Country: "Portugal",
		},
		Hosts:                  []string{"Ana Sousa", "Rui Sousa"},
		RSVPDeadline:           "2026-08-15",
		AllowPlusOne:           true,
		AskDietaryRestrictions: true,
		AskSongRequest:         true,
		AskChildrenInfo:        true,
	})
	if err != nil {
		log.Fatalf("Failed to create event: %v", err)
	}

	fmt.Printf("Event %q (%s)\n", event.Title, event.ID)
	fmt.Printf("  event code  %s  %s/rsvp/%s\n", event.ShareCode, *publicURL, event.ShareCode)

	seven := 7
	for _, req := range demoInvitations(event.ID, &seven) {
		inv, err := invitations.CreateInvitation(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create %s invitation: %v", req.InvitationType, err)
		}
		fmt.Printf("  %-16s %s  %s\n", inv.InvitationType, inv.ShareCode, inv.ShareURL)
	}
}

func openBackend() (store.Backend, error) {
	if *sqlitePath != "" {
		return sqlite.Open(*sqlitePath, nil)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/rsvp-server/data/db")
	}
	fmt.Printf("Opening database at: %s\n", dbPath)
	return store.New(dbPath, nil)
}

func demoInvitations(eventID string, childAge *int) []service.CreateInvitationRequest {
	return []service.CreateInvitationRequest{
		{
			EventID:        eventID,
			InvitationType: domain.InvitationSingle,
			PrimaryGuest:   service.PersonInput{Name: "Marta Lopes", Email: "marta@example.com"},
		},
		{
			EventID:        eventID,
			InvitationType: domain.InvitationSinglePlusOne,
			PrimaryGuest:   service.PersonInput{Name: "Tiago Ferreira"},
		},
		{
			EventID:        eventID,
			InvitationType: domain.InvitationCouple,
			PrimaryGuest:   service.PersonInput{Name: "Inês Costa"},
			SecondaryGuest: &service.PersonInput{Name: "Pedro Costa"},
		},
		{
			EventID:        eventID,
			InvitationType: domain.InvitationFamily,
			PrimaryGuest:   service.PersonInput{Name: "Helena Martins"},
			SecondaryGuest: &service.PersonInput{Name: "Jorge Martins"},
			Children: []service.ChildInput{
				{Name: "Beatriz", Age: childAge},
				{Name: "Duarte"},
			},
		},
		{
			EventID:        eventID,
			InvitationType: domain.InvitationGroup,
			PrimaryGuest:   service.PersonInput{Name: "Equipa do escritório"},
		},
	}
}
