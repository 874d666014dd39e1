package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kitstock/pkg/derrors"
)

type ScenarioServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *ScenarioServiceSuite) SetupTest() {
	s.svc = NewService(NewInMemoryStore())
	s.ctx = context.Background()
}

func TestScenarioServiceSuite(t *testing.T) {
	suite.Run(t, new(ScenarioServiceSuite))
}

func (s *ScenarioServiceSuite) TestCreateAndGet() {
	_, err := s.svc.Create(s.ctx, Scenario{ID: 1, Name: "Field hospital north", Active: true})
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Field hospital north", got.Name)
	s.True(got.Active)
}

func (s *ScenarioServiceSuite) TestCreateRejectsBadInput() {
	_, err := s.svc.Create(s.ctx, Scenario{ID: 0, Name: "bad"})
	s.True(derrors.HasCode(err, derrors.CodeValidation))

	_, err = s.svc.Create(s.ctx, Scenario{ID: 100, Name: "bad"})
	s.True(derrors.HasCode(err, derrors.CodeValidation))

	_, err = s.svc.Create(s.ctx, Scenario{ID: 5, Name: "   "})
	s.True(derrors.HasCode(err, derrors.CodeValidation))
}

func (s *ScenarioServiceSuite) TestCreateRejectsDuplicateID() {
	_, err := s.svc.Create(s.ctx, Scenario{ID: 1, Name: "first"})
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, Scenario{ID: 1, Name: "second"})
	s.True(derrors.HasCode(err, derrors.CodeConflict))
}

func (s *ScenarioServiceSuite) TestActiveCap() {
	for id := 1; id <= MaxActive; id++ {
		_, err := s.svc.Create(s.ctx, Scenario{ID: id, Name: "sc", Active: true})
		s.Require().NoError(err)
	}

	_, err := s.svc.Create(s.ctx, Scenario{ID: MaxActive + 1, Name: "one too many", Active: true})
	s.True(derrors.HasCode(err, derrors.CodeConflict))

	// Inactive creation is still allowed, and activation is blocked.
	_, err = s.svc.Create(s.ctx, Scenario{ID: MaxActive + 1, Name: "parked"})
	s.Require().NoError(err)
	err = s.svc.Activate(s.ctx, MaxActive+1)
	s.True(derrors.HasCode(err, derrors.CodeConflict))

	// Retiring one frees a slot.
	s.Require().NoError(s.svc.Deactivate(s.ctx, 1))
	s.Require().NoError(s.svc.Activate(s.ctx, MaxActive+1))
}

func (s *ScenarioServiceSuite) TestGetUnknown() {
	_, err := s.svc.Get(s.ctx, 42)
	s.True(derrors.HasCode(err, derrors.CodeNotFound))
}
