// Package service implements the signup provisioning workflow: gateway
// consumer, identity-provider application, record persistence, and the
// non-fatal notification fan-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/apierr"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/clock"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/events"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/kong"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/notify"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/metrics"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/okta"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ChannelSender posts one message to the support channel.
type ChannelSender interface {
	SendMessage(ctx context.Context, text, title string) error
}

// EmailSender delivers the welcome template to the applicant.
type EmailSender interface {
	SendWelcome(ctx context.Context, email notify.WelcomeEmail) error
}

// EventPublisher records a domain event in the outbox.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// consumerNamePattern strips everything but word characters from the
// gateway consumer name.
var consumerNamePattern = regexp.MustCompile(`\W+`)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Clock   clock.Clock
	GenID   *snowflake.Node
	Store   signupdomain.Repository
	Catalog catalog.Catalog
	Kong    kong.Client
	Okta    okta.Client            `optional:"true"`
	Slack   ChannelSender          `optional:"true"`
	Email   EmailSender            `optional:"true"`
	Outbox  EventPublisher         `optional:"true"`
	Metrics *metrics.SignupMetrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	cfg     config.Config
	clock   clock.Clock
	genID   *snowflake.Node
	store   signupdomain.Repository
	catalog catalog.Catalog
	kong    kong.Client
	okta    okta.Client
	slack   ChannelSender
	email   EmailSender
	outbox  EventPublisher
	metrics *metrics.SignupMetrics

	// wg tracks in-flight notification goroutines so shutdown and tests can
	// wait for them.
	wg sync.WaitGroup
}

func NewService(p Params) signupdomain.Service {
	return &Service{
		log:     p.Log.Named("signup.service"),
		cfg:     p.Config,
		clock:   p.Clock,
		genID:   p.GenID,
		store:   p.Store,
		catalog: p.Catalog,
		kong:    p.Kong,
		okta:    p.Okta,
		slack:   p.Slack,
		email:   p.Email,
		outbox:  p.Outbox,
		metrics: p.Metrics,
	}
}

// Apply runs the provisioning workflow for one developer application. The
// gateway, identity-provider, and persistence steps are fatal in order;
// notifications after persistence never fail the signup.
func (s *Service) Apply(ctx context.Context, sub signupdomain.Submission) (*signupdomain.Result, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}

	requested := sub.APIList()
	keyAuthAPIs, err := s.catalog.KeyAuthAPIs(requested)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", signupdomain.ErrInvalidSubmission, err)
	}
	oauthAPIs, err := s.catalog.OAuthAPIs(requested)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", signupdomain.ErrInvalidSubmission, err)
	}

	record := signupdomain.Signup{
		ID:                     s.genID.Generate(),
		Email:                  sub.Email,
		CreatedAt:              s.clock.Now(),
		APIs:                   signupdomain.JoinAPIs(requested),
		Organization:           optional(sub.Organization),
		FirstName:              optional(sub.FirstName),
		LastName:               optional(sub.LastName),
		Description:            optional(sub.Description),
		OAuthRedirectURI:       optional(sub.OAuthRedirectURI),
		TermsOfServiceAccepted: sub.TermsOfServiceAccepted,
	}
	if record.Description == nil {
		record.Description = optional(signupdomain.DefaultDescription)
	}

	result := &signupdomain.Result{Email: sub.Email}

	if len(keyAuthAPIs) > 0 {
		username := ConsumerName(sub.Organization, sub.LastName)
		credential, err := s.provisionKong(ctx, username, keyAuthAPIs)
		if err != nil {
			s.failProvisioning(signupdomain.ActionKongConsumer)
			return nil, apierr.Tag(signupdomain.ActionKongConsumer, err)
		}
		record.KongConsumerID = optional(username)
		result.Token = credential.Key
	}

	if len(oauthAPIs) > 0 && s.okta != nil && sub.OAuthRedirectURI != "" {
		app, err := s.provisionOkta(ctx, sub, oauthAPIs)
		if err != nil {
			s.failProvisioning(signupdomain.ActionOktaSave)
			return nil, apierr.Tag(signupdomain.ActionOktaSave, err)
		}
		record.OktaApplicationID = optional(app.ID)
		record.OktaClientID = optional(app.ClientID)
		result.ClientID = app.ClientID
		result.ClientSecret = app.ClientSecret
	}

	if err := s.store.Create(ctx, &record); err != nil {
		s.failProvisioning(signupdomain.ActionDatabaseSave)
		return nil, apierr.Tag(signupdomain.ActionDatabaseSave, err)
	}

	s.recordSuccess(record, len(oauthAPIs) > 0)
	s.publishCreated(ctx, record)
	s.notify(ctx, record, *result)

	return result, nil
}

func (s *Service) validate(sub signupdomain.Submission) error {
	if sub.Email == "" {
		return fmt.Errorf("%w: missing email", signupdomain.ErrInvalidSubmission)
	}
	if !sub.TermsOfServiceAccepted {
		return fmt.Errorf("%w: terms of service not accepted", signupdomain.ErrInvalidSubmission)
	}
	if len(sub.APIList()) == 0 {
		return fmt.Errorf("%w: no apis requested", signupdomain.ErrInvalidSubmission)
	}
	return nil
}

// provisionKong ensures the consumer exists, grants the missing ACL groups,
// and issues a fresh key-auth credential. Every grant completes before the
// credential is issued.
func (s *Service) provisionKong(ctx context.Context, username string, apis []catalog.API) (*kong.Credential, error) {
	consumer, err := s.kong.EnsureConsumer(ctx, username)
	if err != nil {
		return nil, err
	}

	granted, err := s.kong.ListACLs(ctx, consumer.Username)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(granted))
	for _, group := range granted {
		have[group] = struct{}{}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, api := range apis {
		if _, ok := have[api.ACLGroup]; ok {
			continue
		}
		aclGroup := api.ACLGroup
		group.Go(func() error {
			return s.kong.AddACL(groupCtx, consumer.Username, aclGroup)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return s.kong.CreateKeyAuth(ctx, consumer.Username)
}

// provisionOkta creates the OAuth application, assigns it to the portal
// group, and registers its client id with the default policy of every
// requested authorization server.
func (s *Service) provisionOkta(ctx context.Context, sub signupdomain.Submission, apis []catalog.API) (*okta.Application, error) {
	app, err := s.okta.CreateApplication(ctx, okta.AppSettings{
		Label:       fmt.Sprintf("%s %s", sub.FirstName, sub.LastName),
		RedirectURI: sub.OAuthRedirectURI,
		Type:        okta.AppType(sub.OAuthApplicationType),
	})
	if err != nil {
		return nil, err
	}

	if groupID := s.cfg.Okta.ApplicationGroupID; groupID != "" {
		if err := s.okta.AssignGroup(ctx, app.ID, groupID); err != nil {
			return nil, err
		}
	}

	for _, api := range apis {
		policies, err := s.okta.ListPolicies(ctx, api.AuthServerID)
		if err != nil {
			return nil, err
		}
		policy, err := okta.DefaultPolicy(policies)
		if err != nil {
			return nil, fmt.Errorf("authorization server %s: %w", api.AuthServerID, err)
		}
		policy.Conditions.Clients.Include = append(policy.Conditions.Clients.Include, app.ClientID)
		if err := s.okta.UpdatePolicy(ctx, api.AuthServerID, policy.ID, policy); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func (s *Service) recordSuccess(record signupdomain.Signup, oauth bool) {
	s.metrics.IncProvisioned(oauth)
	for _, api := range record.APIList() {
		s.metrics.IncAPIGranted(api)
	}
	s.log.Info("signup provisioned",
		zap.String("email", record.Email),
		zap.Strings("apis", record.APIList()),
		zap.Bool("oauth", oauth),
	)
}

func (s *Service) failProvisioning(action string) {
	s.metrics.IncProvisioningFailure(action)
}

func (s *Service) publishCreated(ctx context.Context, record signupdomain.Signup) {
	if s.outbox == nil {
		return
	}
	payload := events.SignupCreatedPayload{
		Email:     record.Email,
		CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		APIs:      record.APIs,
	}
	if record.KongConsumerID != nil {
		payload.KongConsumerID = *record.KongConsumerID
	}
	if record.OktaApplicationID != nil {
		payload.OktaApplicationID = *record.OktaApplicationID
	}
	event := events.Event{
		Type:      events.EventSignupCreated,
		Payload:   payload.ToMap(),
		DedupeKey: fmt.Sprintf("%s|%s", record.Email, payload.CreatedAt),
	}
	if err := s.outbox.Publish(ctx, event); err != nil {
		s.log.Warn("signup event not recorded", zap.String("email", record.Email), zap.Error(err))
	}
}

// notify fans the welcome email and the support-channel message out in the
// background. Failures are logged and counted, never returned.
func (s *Service) notify(ctx context.Context, record signupdomain.Signup, result signupdomain.Result) {
	ctx = context.WithoutCancel(ctx)

	if s.email != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sendWelcome(ctx, record, result)
		}()
	}
	if s.slack != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sendSlack(ctx, record)
		}()
	}
}

func (s *Service) sendWelcome(ctx context.Context, record signupdomain.Signup, result signupdomain.Result) {
	apis, err := notify.APIList(s.catalog, record.APIList())
	if err != nil {
		// Persisted identifiers were validated against the same catalog.
		apis = record.APIs
	}
	mail := notify.WelcomeEmail{
		Recipient:    record.Email,
		APIs:         apis,
		Token:        result.Token,
		ClientID:     result.ClientID,
		ClientSecret: result.ClientSecret,
	}
	if record.FirstName != nil {
		mail.FirstName = *record.FirstName
	}
	if err := s.email.SendWelcome(ctx, mail); err != nil {
		if errors.Is(err, notify.ErrEmailDisabled) {
			return
		}
		s.metrics.IncNotificationFailure("email")
		s.log.Error(signupdomain.ActionWelcomeEmail,
			zap.String("email", record.Email), zap.Error(err))
	}
}

func (s *Service) sendSlack(ctx context.Context, record signupdomain.Signup) {
	text, err := notify.SignupMessage(s.catalog, record)
	if err != nil {
		s.metrics.IncNotificationFailure("slack")
		s.log.Error(signupdomain.ActionSlackMessage,
			zap.String("email", record.Email), zap.Error(err))
		return
	}
	if err := s.slack.SendMessage(ctx, text, "New signup"); err != nil {
		if errors.Is(err, notify.ErrSlackDisabled) {
			return
		}
		s.metrics.IncNotificationFailure("slack")
		s.log.Error(signupdomain.ActionSlackMessage,
			zap.String("email", record.Email), zap.Error(err))
	}
}

// Wait blocks until every in-flight notification has finished.
func (s *Service) Wait() { s.wg.Wait() }

// ConsumerName derives the gateway consumer name from the applicant's
// organization and last name, keeping word characters only.
func ConsumerName(organization, lastName string) string {
	return consumerNamePattern.ReplaceAllString(organization+lastName, "")
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
