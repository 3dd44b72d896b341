package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/apierr"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeSignupService struct {
	result *signupdomain.Result
	err    error
	got    signupdomain.Submission
}

func (f *fakeSignupService) Apply(_ context.Context, sub signupdomain.Submission) (*signupdomain.Result, error) {
	f.got = sub
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReportService struct {
	result *reportdomain.CountResult
	err    error
	window reportdomain.Window
}

func (f *fakeReportService) UniqueSignups(_ context.Context, _ reportdomain.Window) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (f *fakeReportService) PreviousSignups(_ context.Context, _ signupdomain.Signup) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (f *fakeReportService) ConsumerView(_ context.Context) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (f *fakeReportService) CountSignups(_ context.Context, window reportdomain.Window) (*reportdomain.CountResult, error) {
	f.window = window
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(t *testing.T, signupSvc signupdomain.Service, reportSvc reportdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		cfg:       config.Config{AdminToken: "secret", Port: "8080"},
		log:       zap.NewNop(),
		engine:    gin.New(),
		signupSvc: signupSvc,
		reportSvc: reportSvc,
		limiter:   newRateLimiter(100, time.Minute),
	}
	s.RegisterAPIRoutes()
	return s
}

func TestCreateDeveloperApplication(t *testing.T) {
	svc := &fakeSignupService{result: &signupdomain.Result{
		Email: "frodo@theshire.com",
		Token: "key-123",
	}}
	s := newTestServer(t, svc, &fakeReportService{})

	body := `{
		"email": "frodo@theshire.com",
		"firstName": "Frodo",
		"lastName": "Baggins",
		"organization": "The Fellowship",
		"apis": "facilities,benefits",
		"termsOfService": true
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/developer_application", strings.NewReader(body))
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token":"key-123"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if svc.got.Email != "frodo@theshire.com" || !svc.got.TermsOfServiceAccepted {
		t.Errorf("submission = %+v", svc.got)
	}
}

func TestCreateDeveloperApplicationValidation(t *testing.T) {
	s := newTestServer(t, &fakeSignupService{}, &fakeReportService{})

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"apis": "facilities", "termsOfService": true}`},
		{"missing apis", `{"email": "a@b.com", "termsOfService": true}`},
		{"terms not accepted", `{"email": "a@b.com", "apis": "facilities"}`},
		{"malformed json", `{"email": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/developer_application", strings.NewReader(tc.body))
			s.engine.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateDeveloperApplicationFatalError(t *testing.T) {
	svc := &fakeSignupService{err: apierr.Tag(signupdomain.ActionKongConsumer, context.DeadlineExceeded)}
	s := newTestServer(t, svc, &fakeReportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/developer_application",
		strings.NewReader(`{"email": "a@b.com", "apis": "facilities", "termsOfService": true}`))
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), signupdomain.ActionKongConsumer) {
		t.Errorf("body = %s, want action tag", rec.Body.String())
	}
}

func TestSignupsReportRequiresAdminToken(t *testing.T) {
	s := newTestServer(t, &fakeSignupService{}, &fakeReportService{
		result: &reportdomain.CountResult{Total: 2, APIs: map[string]int{"facilities": 2}},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/signups", nil)
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/reports/signups", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/reports/signups", nil)
	req.Header.Set("Authorization", "Bearer secret")
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSignupsReportWindowParsing(t *testing.T) {
	report := &fakeReportService{result: &reportdomain.CountResult{APIs: map[string]int{}}}
	s := newTestServer(t, &fakeSignupService{}, report)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/reports/signups?start=2021-03-01T00:00:00Z&end=2021-03-08T00:00:00Z", nil)
	req.Header.Set("Authorization", "Bearer secret")
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if report.window.Start == nil || !report.window.Start.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window start = %v", report.window.Start)
	}
	if report.window.End == nil || !report.window.End.Equal(time.Date(2021, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window end = %v", report.window.End)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/reports/signups?start=yesterday", nil)
	req.Header.Set("Authorization", "Bearer secret")
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid start: status = %d, want 400", rec.Code)
	}
}

func TestSignupRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeSignupService{result: &signupdomain.Result{Email: "a@b.com"}}, &fakeReportService{})
	s.limiter = newRateLimiter(2, time.Minute)

	body := `{"email": "a@b.com", "apis": "facilities", "termsOfService": true}`
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/developer_application", strings.NewReader(body))
		s.engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/developer_application", strings.NewReader(body))
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
