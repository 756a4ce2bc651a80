// Package main dumps the stored events, invitations and guests.
//
// Usage:
//
//	DB_PATH=~/rsvp-server/data/db go run ./cmd/dbinspect
//	go run ./cmd/dbinspect --sqlite ~/rsvp-server/data/rsvp.db --event evt-abc --full
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kr/pretty"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
	"github.com/digitalrsvp/rsvp-server/internal/store/sqlite"
)

var (
	sqlitePath = flag.String("sqlite", "", "Inspect this SQLite file instead of the Badger store at DB_PATH")
	eventID    = flag.String("event", "", "Only show this event's invitations and guests")
	full       = flag.Bool("full", false, "Print every document in full")
)

func main() {
	flag.Parse()

	backend, err := openBackend()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	cols := backend.Collections()

	var filter store.Filter
	if *eventID != "" {
		filter = store.Filter{store.FieldEventID: *eventID}
	}

	events, err := cols.Events.Find(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to list events: %v", err)
	}
	invitations, err := cols.Invitations.Find(ctx, filter)
	if err != nil {
		log.Fatalf("Failed to list invitations: %v", err)
	}
	guests, err := cols.Guests.Find(ctx, filter)
	if err != nil {
		log.Fatalf("Failed to list guests: %v", err)
	}

	fmt.Printf("=== Database Inspection (%s) ===\n\n", backend.Name())

	for _, e := range events {
		if *eventID != "" && e.ID != *eventID {
			continue
		}
		fmt.Printf("Event: %s\n", e.Title)
		fmt.Printf("  ID: %s  Code: %s  Date: %s\n", e.ID, e.ShareCode, e.Date)
		if *full {
			pretty.Println(e)
		}
	}
	fmt.Println()

	eventIDs := make(map[string]bool, len(events))
	for _, e := range events {
		eventIDs[e.ID] = true
	}

	orphans := 0
	for _, inv := range invitations {
		marker := ""
		if !eventIDs[inv.EventID] {
			marker = "  (MISSING EVENT)"
			orphans++
		}
		fmt.Printf("Invitation %s [%s] %s submitted=%t%s\n",
			inv.ShareCode, inv.InvitationType, inv.PrimaryGuest.Name, inv.RSVPSubmitted, marker)
		if *full {
			pretty.Println(inv)
		}
	}
	fmt.Println()

	for _, g := range guests {
		fmt.Printf("Guest %s: %s (%s)\n", g.ID, g.Name, g.RSVPStatus)
		if *full {
			pretty.Println(g)
		}
	}

	stats := domain.AggregateStats(guests)

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Events: %d\n", len(events))
	fmt.Printf("Invitations: %d (%d without an event)\n", len(invitations), orphans)
	fmt.Printf("Guests: %d\n", len(guests))
	fmt.Printf("%# v\n", pretty.Formatter(stats))
}

func openBackend() (store.Backend, error) {
	if *sqlitePath != "" {
		return sqlite.Open(*sqlitePath, nil)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/rsvp-server/data/db")
	}
	return store.New(dbPath, nil)
}
