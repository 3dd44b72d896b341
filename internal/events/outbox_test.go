package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOutbox(t *testing.T) (*Outbox, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewOutbox(db, node), db
}

func countEvents(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Table("portal_events").Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func TestPublishStoresEvent(t *testing.T) {
	outbox, db := setupOutbox(t)

	payload := SignupCreatedPayload{
		Email:          "frodo@theshire.com",
		CreatedAt:      "2021-03-01T12:00:00Z",
		APIs:           "facilities,health",
		KongConsumerID: "TheFellowshipBaggins",
	}
	err := outbox.Publish(context.Background(), Event{
		Type:      EventSignupCreated,
		Payload:   payload.ToMap(),
		DedupeKey: "frodo@theshire.com|2021-03-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := countEvents(t, db); got != 1 {
		t.Errorf("events = %d, want 1", got)
	}
}

func TestPublishDedupes(t *testing.T) {
	outbox, db := setupOutbox(t)

	event := Event{
		Type:      EventSignupCreated,
		Payload:   map[string]any{"email": "sam@theshire.com"},
		DedupeKey: "sam@theshire.com|2021-03-01T12:00:00Z",
	}
	for i := 0; i < 3; i++ {
		if err := outbox.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := countEvents(t, db); got != 1 {
		t.Errorf("events = %d, want 1 after dedupe", got)
	}
}

func TestPublishRejectsMissingType(t *testing.T) {
	outbox, _ := setupOutbox(t)

	err := outbox.Publish(context.Background(), Event{DedupeKey: "x"})
	if err == nil {
		t.Fatal("expected error for missing event type")
	}
}
