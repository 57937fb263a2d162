// Command timeline-seed populates an entity store with a small demo
// workspace: a company, two contacts, a deal with stage history, and a
// spread of activity records, so the API has something to serve out of
// the box.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/evercore/timeline/internal/storage/sqlite"
	"github.com/evercore/timeline/pkg/types"
)

func main() {
	dataPath := flag.String("db", "./data/timeline.db", "Path to the SQLite database")
	workspace := flag.String("workspace", "demo", "Workspace id to seed")
	flag.Parse()

	if dir := filepath.Dir(*dataPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	store, err := sqlite.NewStore(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	put := func(record *types.Record) *types.Record {
		record.WorkspaceID = *workspace
		if err := store.Put(ctx, record); err != nil {
			log.Fatalf("Failed to seed %s: %v", record.ID, err)
		}
		return record
	}
	link := func(from, to string) {
		if err := store.Link(ctx, *workspace, from, to); err != nil {
			log.Fatalf("Failed to link %s -> %s: %v", from, to, err)
		}
	}
	id := func(prefix string) string {
		return fmt.Sprintf("%s:%s", prefix, uuid.New().String()[:8])
	}

	company := put(&types.Record{
		ID: id("company"), Type: types.KindCompany,
		CreatedAt: now.AddDate(0, -6, 0),
		Data:      map[string]interface{}{"name": "Northwind Trading", "domain": "northwind.example"},
	})

	ana := put(&types.Record{
		ID: id("contact"), Type: types.KindContact,
		CreatedAt: now.AddDate(0, -5, 0),
		Data: map[string]interface{}{
			"name":       "Ana Silva",
			"email":      "ana@northwind.example",
			"companyId":  company.ID,
			"enrichedAt": now.AddDate(0, -5, 3).Format(time.RFC3339),
		},
	})
	ben := put(&types.Record{
		ID: id("contact"), Type: types.KindContact,
		CreatedAt: now.AddDate(0, -4, 0),
		Data: map[string]interface{}{
			"name":      "Ben Okafor",
			"email":     "ben@northwind.example",
			"companyId": company.ID,
		},
	})

	deal := put(&types.Record{
		ID: id("deal"), Type: types.KindDeal,
		CreatedAt: now.AddDate(0, -3, 0),
		Data: map[string]interface{}{
			"name":  "Northwind platform rollout",
			"value": 86000,
			"stage": "proposal",
			"stageHistory": []interface{}{
				map[string]interface{}{
					"stage": "qualification", "fromStage": "prospecting",
					"timestamp": now.AddDate(0, -2, -15).Format(time.RFC3339),
				},
				map[string]interface{}{
					"stage": "proposal", "fromStage": "qualification",
					"timestamp": now.AddDate(0, -1, 0).Format(time.RFC3339),
				},
			},
		},
	})
	link(company.ID, deal.ID)
	link(ana.ID, deal.ID)

	// A month of back-and-forth.
	emails := []struct {
		subject string
		from    string
		to      string
		daysAgo int
	}{
		{"Platform rollout intro", "rep@evercore.example", "ana@northwind.example", 28},
		{"Re: Platform rollout intro", "ana@northwind.example", "rep@evercore.example", 27},
		{"Pricing breakdown", "rep@evercore.example", "ana@northwind.example", 14},
		{"Re: Pricing breakdown", "ana@northwind.example", "rep@evercore.example", 12},
		{"Security questionnaire", "ben@northwind.example", "rep@evercore.example", 6},
	}
	for _, e := range emails {
		sent := now.AddDate(0, 0, -e.daysAgo)
		put(&types.Record{
			ID: id("email"), Type: types.KindEmail,
			CreatedAt: sent,
			Data: map[string]interface{}{
				"subject": e.subject,
				"from":    e.from,
				"to":      []interface{}{e.to},
				"sentAt":  sent.Format(time.RFC3339),
			},
		})
	}

	meeting := put(&types.Record{
		ID: id("meeting"), Type: types.KindMeeting,
		CreatedAt: now,
		Data: map[string]interface{}{
			"title":     "Rollout kickoff",
			"startTime": now.AddDate(0, 0, 3).Format(time.RFC3339),
			"attendees": []interface{}{"ana@northwind.example", "ben@northwind.example", "rep@evercore.example"},
		},
	})
	link(ana.ID, meeting.ID)

	put(&types.Record{
		ID: id("invoice"), Type: types.KindInvoice,
		CreatedAt: now.AddDate(0, 0, -10),
		Data: map[string]interface{}{
			"number": "INV-1041", "amount": 4300, "status": "paid",
			"issuedAt": now.AddDate(0, 0, -10).Format(time.RFC3339),
		},
		Metadata: map[string]interface{}{"companyId": company.ID},
	})

	put(&types.Record{
		ID: id("ticket"), Type: types.KindTicket,
		CreatedAt: now.AddDate(0, 0, -4),
		Data: map[string]interface{}{
			"subject": "SSO login loop", "status": "open", "priority": "high",
		},
		Metadata: map[string]interface{}{"contactId": ben.ID},
	})

	log.Printf("Seeded workspace %q in %s", *workspace, *dataPath)
	log.Printf("Try: curl 'http://127.0.0.1:7430/api/timeline/contact/%s?workspace=%s'", ana.ID, *workspace)
}
