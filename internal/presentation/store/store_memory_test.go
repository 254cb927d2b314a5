package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultflow/internal/presentation/cycle"
	"vaultflow/internal/presentation/models"
	"vaultflow/internal/sentinel"
	id "vaultflow/pkg/domain"
)

type InMemoryCycleStoreSuite struct {
	suite.Suite
	store *InMemoryCycleStore
	ctx   context.Context
}

func TestInMemoryCycleStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCycleStoreSuite))
}

func (s *InMemoryCycleStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func newCycle() *models.Cycle {
	now := time.Now()
	return &models.Cycle{
		SessionID:          id.NewSessionID(),
		DefinitionID:       "userProfile",
		CallbackURL:        "https://site.example/callback",
		State:              cycle.StateIdle,
		ExtensionInstalled: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *InMemoryCycleStoreSuite) TestSaveAndFind() {
	c := newCycle()
	c.Data = models.Claims{"name": "Ada"}
	s.Require().NoError(s.store.Save(s.ctx, c))

	found, err := s.store.FindBySession(s.ctx, c.SessionID)
	s.Require().NoError(err)
	s.Equal(c, found)
}

func (s *InMemoryCycleStoreSuite) TestFindMissing() {
	_, err := s.store.FindBySession(s.ctx, id.NewSessionID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *InMemoryCycleStoreSuite) TestCallerMutationsDoNotLeak() {
	c := newCycle()
	c.Data = models.Claims{"name": "Ada"}
	s.Require().NoError(s.store.Save(s.ctx, c))

	c.Data["name"] = "Grace"
	c.State = cycle.StateFailed

	found, err := s.store.FindBySession(s.ctx, c.SessionID)
	s.Require().NoError(err)
	s.Equal("Ada", found.Data["name"])
	s.Equal(cycle.StateIdle, found.State)

	found.Data["name"] = "Linus"
	again, err := s.store.FindBySession(s.ctx, c.SessionID)
	s.Require().NoError(err)
	s.Equal("Ada", again.Data["name"])
}

func (s *InMemoryCycleStoreSuite) TestSaveNil() {
	s.Error(s.store.Save(s.ctx, nil))
}
