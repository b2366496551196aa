package store

import (
	"context"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	VerbRead   = "read"
	VerbList   = "list"
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"

	// Wildcard matches any kind or any verb in RoleAuthorizer rules.
	Wildcard = "*"
)

// Authorizer decides whether the caller in ctx may apply verbs to a kind.
type Authorizer interface {
	Authorize(ctx context.Context, kind model.ResourceKind, verbs ...string) error
}

type AuthorizerFunc func(ctx context.Context, kind model.ResourceKind, verbs ...string) error

func (f AuthorizerFunc) Authorize(ctx context.Context, kind model.ResourceKind, verbs ...string) error {
	return f(ctx, kind, verbs...)
}

// AllowAll authorizes everything.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, model.ResourceKind, ...string) error { return nil })

// RoleAuthorizer grants verbs per kind, e.g.
//
//	RoleAuthorizer{Rules: map[string][]string{"node": {"read", "list"}, "*": {"read"}}}
type RoleAuthorizer struct {
	Rules map[string][]string
}

func (a *RoleAuthorizer) Authorize(_ context.Context, kind model.ResourceKind, verbs ...string) error {
	for _, verb := range verbs {
		if !a.allows(string(kind), verb) && !a.allows(Wildcard, verb) {
			return errors.Wrapf(ErrAccessDenied, "verb [%s] on kind [%s]", verb, kind)
		}
	}
	return nil
}

func (a *RoleAuthorizer) allows(kind, verb string) bool {
	for _, granted := range a.Rules[kind] {
		if granted == verb || granted == Wildcard {
			return true
		}
	}
	return false
}

type ServiceConfig struct {
	Backend    ResourceStore
	Authorizer Authorizer
	Logger     logrus.FieldLogger
}

func (c *ServiceConfig) CheckAndSetDefaults() error {
	if c.Backend == nil {
		return errors.New("backend is missing")
	}
	if c.Authorizer == nil {
		c.Authorizer = AllowAll
	}
	if c.Logger == nil {
		c.Logger = logrus.WithField("component", "resource-service")
	}
	return nil
}

// Service gates a ResourceStore behind verb checks:
// list needs read and list, get needs read, upsert needs create and update,
// delete needs delete.
type Service struct {
	backend    ResourceStore
	authorizer Authorizer
	log        logrus.FieldLogger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Service{
		backend:    cfg.Backend,
		authorizer: cfg.Authorizer,
		log:        cfg.Logger,
	}, nil
}

func (s *Service) List(ctx context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error) {
	if err := s.authorizer.Authorize(ctx, kind, VerbRead, VerbList); err != nil {
		return nil, err
	}
	resp, err := s.backend.List(ctx, clusterId, kind, req)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Debug("list failed")
		return nil, errors.Wrapf(err, "listing %s in cluster [%s]", kind, clusterId)
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, clusterId string, kind model.ResourceKind, name string) (*model.Resource, error) {
	if err := s.authorizer.Authorize(ctx, kind, VerbRead); err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, clusterId, kind, name)
}

func (s *Service) Upsert(ctx context.Context, clusterId string, r model.Resource) (*model.Resource, error) {
	if err := s.authorizer.Authorize(ctx, r.Kind, VerbCreate, VerbUpdate); err != nil {
		return nil, err
	}
	stored, err := s.backend.Upsert(ctx, clusterId, r)
	if err != nil {
		return nil, err
	}
	s.log.WithField("cluster", clusterId).WithField("resource", stored.Key()).Info("resource upserted")
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, clusterId string, kind model.ResourceKind, name string) error {
	if err := s.authorizer.Authorize(ctx, kind, VerbDelete); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, clusterId, kind, name); err != nil {
		return err
	}
	s.log.WithField("cluster", clusterId).WithField("resource", string(kind)+"/"+name).Info("resource deleted")
	return nil
}

func (s *Service) Clusters() []string {
	return s.backend.Clusters()
}
