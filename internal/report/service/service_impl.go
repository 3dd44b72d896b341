// Package service implements signup report aggregation over the raw signup
// log.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// previousLookupConcurrency bounds the per-signup history fan-out.
const previousLookupConcurrency = 8

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   signupdomain.Repository
	Catalog catalog.Catalog
}

type Service struct {
	log     *zap.Logger
	store   signupdomain.Repository
	catalog catalog.Catalog
}

func New(p Params) reportdomain.Service {
	return &Service{
		log:     p.Log.Named("report.service"),
		store:   p.Store,
		catalog: p.Catalog,
	}
}

// UniqueSignups groups in-window records by email. Each group's signup pins
// the earliest created_at and unions every record's api set, sorted.
func (s *Service) UniqueSignups(ctx context.Context, window reportdomain.Window) ([]signupdomain.Signup, error) {
	records, err := s.store.Scan(ctx, signupdomain.ScanFilter{})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*signupdomain.Signup)
	var order []string
	for _, record := range records {
		if !window.Contains(record.CreatedAt) {
			continue
		}
		existing, ok := grouped[record.Email]
		if !ok {
			copied := record
			grouped[record.Email] = &copied
			order = append(order, record.Email)
			continue
		}
		existing.APIs = signupdomain.JoinAPIs(signupdomain.SortedUnion(existing.APIs, record.APIs))
		if record.CreatedAt.Before(existing.CreatedAt) {
			existing.CreatedAt = record.CreatedAt
		}
	}

	unique := make([]signupdomain.Signup, 0, len(grouped))
	for _, email := range order {
		signup := *grouped[email]
		signup.APIs = signupdomain.JoinAPIs(signupdomain.SortedUnion(signup.APIs))
		unique = append(unique, signup)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].CreatedAt.Before(unique[j].CreatedAt)
	})
	return unique, nil
}

// PreviousSignups looks back over the full history, regardless of any window
// the signup was computed for.
func (s *Service) PreviousSignups(ctx context.Context, signup signupdomain.Signup) ([]signupdomain.Signup, error) {
	return s.store.FindPrevious(ctx, signup.Email, signup.CreatedAt)
}

// ConsumerView merges the full signup history into one record per email.
func (s *Service) ConsumerView(ctx context.Context) ([]signupdomain.Signup, error) {
	records, err := s.store.Scan(ctx, signupdomain.ScanFilter{})
	if err != nil {
		return nil, err
	}
	return reportdomain.MergeSignups(records), nil
}

// CountSignups computes the window's count result. Per unique signup: no
// previous records means a brand-new user (total), and each api not present
// in any previous record counts toward that api. Accumulation is commutative,
// so the concurrent fan-out cannot affect the result.
func (s *Service) CountSignups(ctx context.Context, window reportdomain.Window) (*reportdomain.CountResult, error) {
	unique, err := s.UniqueSignups(ctx, window)
	if err != nil {
		return nil, err
	}

	result := &reportdomain.CountResult{APIs: make(map[string]int)}
	for _, id := range s.catalog.IDs() {
		result.APIs[id] = 0
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(previousLookupConcurrency)

	for _, signup := range unique {
		signup := signup
		group.Go(func() error {
			previous, err := s.PreviousSignups(groupCtx, signup)
			if err != nil {
				return err
			}

			seen := make(map[string]struct{})
			for _, record := range previous {
				for _, id := range record.APIList() {
					if _, ok := s.catalog.Lookup(id); !ok {
						return fmt.Errorf("%w: %s (email %s)", catalog.ErrUnknownAPI, id, signup.Email)
					}
					seen[id] = struct{}{}
				}
			}

			var newAPIs []string
			for _, id := range signup.APIList() {
				if _, ok := s.catalog.Lookup(id); !ok {
					// Catalog drift is a bug, not a countable condition.
					return fmt.Errorf("%w: %s (email %s)", catalog.ErrUnknownAPI, id, signup.Email)
				}
				if _, ok := seen[id]; !ok {
					newAPIs = append(newAPIs, id)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if len(previous) == 0 {
				result.Total++
			}
			for _, id := range newAPIs {
				result.APIs[id]++
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
