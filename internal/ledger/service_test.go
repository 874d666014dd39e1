package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kitstock/internal/address"
	"kitstock/pkg/derrors"
)

type LedgerSuite struct {
	suite.Suite
	svc   *Service
	store *InMemoryStore
	ctx   context.Context
}

func (s *LedgerSuite) SetupTest() {
	s.store = NewInMemoryStore()
	svc, err := NewService(s.store)
	s.Require().NoError(err)
	s.svc = svc
	s.ctx = context.Background()
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func bulkAddr(item string, qty int, expiry address.Expiry) address.StockAddress {
	return address.StockAddress{
		Scenario: 1,
		Item:     item,
		StdQty:   qty,
		Expiry:   expiry,
	}
}

func (s *LedgerSuite) TestReceiveCreatesLine() {
	addr := bulkAddr("DINJATRS1V", 50, "2027-06-30")

	line, err := s.svc.Receive(s.ctx, addr, 50)
	s.Require().NoError(err)
	s.Equal(50, line.QtyIn)
	s.Equal(0, line.QtyOut)
	s.Equal(50, line.Final())
}

func (s *LedgerSuite) TestReceiveAccumulates() {
	addr := bulkAddr("DEXTSCALP1", 100, address.NoExpiry)

	_, err := s.svc.Receive(s.ctx, addr, 30)
	s.Require().NoError(err)
	line, err := s.svc.Receive(s.ctx, addr, 20)
	s.Require().NoError(err)

	s.Equal(50, line.QtyIn)
	s.Equal(0, line.QtyOut)
}

func (s *LedgerSuite) TestWithdrawNeverTouchesQtyIn() {
	addr := bulkAddr("DINJATRS1V", 50, "2027-06-30")
	_, err := s.svc.Receive(s.ctx, addr, 50)
	s.Require().NoError(err)

	line, err := s.svc.Withdraw(s.ctx, addr, 20)
	s.Require().NoError(err)
	s.Equal(50, line.QtyIn)
	s.Equal(20, line.QtyOut)
	s.Equal(30, line.Final())
}

func (s *LedgerSuite) TestWithdrawUnknownAddress() {
	addr := bulkAddr("DINJATRS1V", 50, "2027-06-30")

	_, err := s.svc.Withdraw(s.ctx, addr, 5)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeUnknownAddress))
}

func (s *LedgerSuite) TestNonPositiveQuantitiesRejected() {
	addr := bulkAddr("DEXTSCALP1", 100, address.NoExpiry)

	_, err := s.svc.Receive(s.ctx, addr, 0)
	s.True(derrors.HasCode(err, derrors.CodeValidation))

	_, err = s.svc.Withdraw(s.ctx, addr, -3)
	s.True(derrors.HasCode(err, derrors.CodeValidation))
}

func (s *LedgerSuite) TestFinalQuantityMissingLineIsZero() {
	qty, err := s.svc.FinalQuantity(s.ctx, bulkAddr("DINJATRS1V", 50, address.NoExpiry))
	s.Require().NoError(err)
	s.Equal(0, qty)
}

func (s *LedgerSuite) TestDistinctExpiriesAreDistinctLines() {
	early := bulkAddr("DINJATRS1V", 50, "2026-12-31")
	late := bulkAddr("DINJATRS1V", 50, "2027-06-30")

	_, err := s.svc.Receive(s.ctx, early, 10)
	s.Require().NoError(err)
	_, err = s.svc.Receive(s.ctx, late, 40)
	s.Require().NoError(err)

	qty, err := s.svc.FinalQuantity(s.ctx, early)
	s.Require().NoError(err)
	s.Equal(10, qty)

	lines, err := s.svc.ListScenario(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(lines, 2)
}

func (s *LedgerSuite) TestTrackedAndBulkAreDistinctLines() {
	bulk := bulkAddr("DINJATRS1V", 50, "2027-06-30")
	tracked := bulk
	tracked.Kit = "KMEDMTRAU1"
	tracked.KitInstance = 1

	_, err := s.svc.Receive(s.ctx, bulk, 100)
	s.Require().NoError(err)
	_, err = s.svc.Receive(s.ctx, tracked, 50)
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, tracked)
	s.Require().NoError(err)
	s.Equal(50, got.QtyIn)
	s.True(got.Address.Tracked())
}

func (s *LedgerSuite) TestGetUnknownAddress() {
	_, err := s.svc.Get(s.ctx, bulkAddr("DINJATRS1V", 50, address.NoExpiry))
	s.True(derrors.HasCode(err, derrors.CodeUnknownAddress))
}
