package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"go.uber.org/zap"
)

type fakeRepo struct {
	records []signupdomain.Signup
	scanErr error
	prevErr error
}

func (f *fakeRepo) Create(_ context.Context, record *signupdomain.Signup) error {
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRepo) Scan(_ context.Context, _ signupdomain.ScanFilter) ([]signupdomain.Signup, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.records, nil
}

func (f *fakeRepo) FindPrevious(_ context.Context, email string, before time.Time) ([]signupdomain.Signup, error) {
	if f.prevErr != nil {
		return nil, f.prevErr
	}
	var out []signupdomain.Signup
	for _, record := range f.records {
		if record.Email == email && record.CreatedAt.Before(before) {
			out = append(out, record)
		}
	}
	return out, nil
}

func testCatalog() catalog.Catalog {
	return catalog.New([]catalog.API{
		{ID: "facilities", Name: "VA Facilities API", Auth: catalog.KeyAuth, ACLGroup: "va_facilities"},
		{ID: "benefits", Name: "Benefits Intake API", Auth: catalog.KeyAuth, ACLGroup: "vba_documents"},
		{ID: "health", Name: "Health API", Auth: catalog.OAuth, AuthServerID: "aus1"},
	})
}

func newService(repo *fakeRepo) *Service {
	return &Service{
		log:     zap.NewNop(),
		store:   repo,
		catalog: testCatalog(),
	}
}

func at(day, hour int) time.Time {
	return time.Date(2020, 3, day, hour, 0, 0, 0, time.UTC)
}

func window(start, end time.Time) reportdomain.Window {
	return reportdomain.Window{Start: &start, End: &end}
}

func TestUniqueSignupsGroupsByEmail(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "vet@example.com", APIs: "health,facilities", CreatedAt: at(10, 14)},
		{Email: "vet@example.com", APIs: "facilities,benefits", CreatedAt: at(10, 9)},
		{Email: "new@example.com", APIs: "benefits", CreatedAt: at(11, 9)},
		{Email: "outside@example.com", APIs: "benefits", CreatedAt: at(20, 9)},
	}}
	svc := newService(repo)

	unique, err := svc.UniqueSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if err != nil {
		t.Fatalf("unique signups: %v", err)
	}
	if len(unique) != 2 {
		t.Fatalf("expected 2 unique signups, got %d", len(unique))
	}

	vet := unique[0]
	if vet.Email != "vet@example.com" {
		t.Fatalf("expected earliest-first order, got %q first", vet.Email)
	}
	if !vet.CreatedAt.Equal(at(10, 9)) {
		t.Fatalf("expected earliest created_at pinned, got %v", vet.CreatedAt)
	}
	if vet.APIs != "benefits,facilities,health" {
		t.Fatalf("expected sorted api union, got %q", vet.APIs)
	}
}

func TestCountSignupsBrandNewUser(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "new@example.com", APIs: "facilities", CreatedAt: at(10, 9)},
	}}
	svc := newService(repo)

	result, err := svc.CountSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected total 1, got %d", result.Total)
	}
	if result.APIs["facilities"] != 1 {
		t.Fatalf("expected facilities +1, got %d", result.APIs["facilities"])
	}
	if result.APIs["health"] != 0 {
		t.Fatalf("expected health 0, got %d", result.APIs["health"])
	}
}

func TestCountSignupsExistingUserNewAPIOnly(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		// Previous signup outside the window.
		{Email: "vet@example.com", APIs: "facilities", CreatedAt: at(1, 9)},
		// In-window signup re-requesting facilities plus health.
		{Email: "vet@example.com", APIs: "facilities,health", CreatedAt: at(10, 9)},
	}}
	svc := newService(repo)

	result, err := svc.CountSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("existing user must not count as new, got total %d", result.Total)
	}
	if result.APIs["health"] != 1 {
		t.Fatalf("expected health +1, got %d", result.APIs["health"])
	}
	if result.APIs["facilities"] != 0 {
		t.Fatalf("expected facilities +0, got %d", result.APIs["facilities"])
	}
}

func TestCountSignupsTotalBoundedByUnique(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "a@example.com", APIs: "facilities", CreatedAt: at(10, 9)},
		{Email: "a@example.com", APIs: "health", CreatedAt: at(10, 11)},
		{Email: "b@example.com", APIs: "benefits", CreatedAt: at(11, 9)},
	}}
	svc := newService(repo)

	w := window(at(10, 0), at(12, 0))
	unique, err := svc.UniqueSignups(context.Background(), w)
	if err != nil {
		t.Fatalf("unique signups: %v", err)
	}
	result, err := svc.CountSignups(context.Background(), w)
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	if result.Total > len(unique) {
		t.Fatalf("total %d exceeds unique signups %d", result.Total, len(unique))
	}
}

func TestCountSignupsFailsOnCatalogDrift(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "vet@example.com", APIs: "timeTravel", CreatedAt: at(10, 9)},
	}}
	svc := newService(repo)

	_, err := svc.CountSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if !errors.Is(err, catalog.ErrUnknownAPI) {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func TestCountSignupsPropagatesReadErrors(t *testing.T) {
	repo := &fakeRepo{
		records: []signupdomain.Signup{
			{Email: "vet@example.com", APIs: "facilities", CreatedAt: at(10, 9)},
		},
		prevErr: signupdomain.ErrStoreRead,
	}
	svc := newService(repo)

	_, err := svc.CountSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if !errors.Is(err, signupdomain.ErrStoreRead) {
		t.Fatalf("expected store read error, got %v", err)
	}
}

func TestUnboundedWindowCountsEveryone(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "a@example.com", APIs: "facilities", CreatedAt: at(1, 9)},
		{Email: "a@example.com", APIs: "health", CreatedAt: at(10, 9)},
		{Email: "b@example.com", APIs: "benefits", CreatedAt: at(11, 9)},
	}}
	svc := newService(repo)

	result, err := svc.CountSignups(context.Background(), reportdomain.Window{})
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected every distinct email counted, got %d", result.Total)
	}
	if result.APIs["facilities"] != 1 || result.APIs["health"] != 1 || result.APIs["benefits"] != 1 {
		t.Fatalf("unexpected api counts %v", result.APIs)
	}
}

func TestCountSignupsFailsOnDriftInHistory(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		// History rows carry an id the catalog no longer knows.
		{Email: "vet@example.com", APIs: "dragons", CreatedAt: at(1, 9)},
		{Email: "vet@example.com", APIs: "facilities", CreatedAt: at(10, 9)},
	}}
	svc := newService(repo)

	_, err := svc.CountSignups(context.Background(), window(at(10, 0), at(12, 0)))
	if !errors.Is(err, catalog.ErrUnknownAPI) {
		t.Fatalf("expected catalog error for drifted history, got %v", err)
	}
}

func TestConsumerViewMergesHistory(t *testing.T) {
	repo := &fakeRepo{records: []signupdomain.Signup{
		{Email: "vet@example.com", APIs: "facilities", CreatedAt: at(1, 9)},
		{Email: "vet@example.com", APIs: "health", CreatedAt: at(10, 9)},
		{Email: "new@example.com", APIs: "benefits", CreatedAt: at(11, 9)},
	}}
	svc := newService(repo)

	consumers, err := svc.ConsumerView(context.Background())
	if err != nil {
		t.Fatalf("consumer view: %v", err)
	}
	if len(consumers) != 2 {
		t.Fatalf("expected one record per email, got %d", len(consumers))
	}
	var vet *signupdomain.Signup
	for i := range consumers {
		if consumers[i].Email == "vet@example.com" {
			vet = &consumers[i]
		}
	}
	if vet == nil {
		t.Fatal("merged view missing vet@example.com")
	}
	if vet.APIList()[0] != "health" {
		t.Fatalf("expected latest signup's apis first, got %q", vet.APIs)
	}
	if len(vet.APIList()) != 2 {
		t.Fatalf("expected api union across signups, got %q", vet.APIs)
	}
}

func TestConsumerViewPropagatesScanErrors(t *testing.T) {
	repo := &fakeRepo{scanErr: signupdomain.ErrStoreRead}
	svc := newService(repo)

	if _, err := svc.ConsumerView(context.Background()); !errors.Is(err, signupdomain.ErrStoreRead) {
		t.Fatalf("expected store read error, got %v", err)
	}
}
