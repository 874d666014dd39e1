//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"kitstock/internal/address"
	"kitstock/internal/ledger"
	"kitstock/pkg/platform/sentinel"
	"kitstock/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = ledger.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "stock_lines")
	s.Require().NoError(err)
}

func testAddr(item string, expiry address.Expiry) address.StockAddress {
	return address.StockAddress{
		Scenario: 1,
		Item:     item,
		StdQty:   50,
		Expiry:   expiry,
	}
}

func (s *PostgresStoreSuite) TestUpsertRoundTrip() {
	ctx := context.Background()
	line := ledger.StockLine{
		Address: testAddr("DINJATRS1V", "2027-06-30"),
		QtyIn:   50,
		QtyOut:  20,
	}

	s.Require().NoError(s.store.Upsert(ctx, line))

	got, err := s.store.Get(ctx, line.Address)
	s.Require().NoError(err)
	s.Equal(line.Address, got.Address)
	s.Equal(50, got.QtyIn)
	s.Equal(20, got.QtyOut)
	s.Equal(30, got.Final())
}

func (s *PostgresStoreSuite) TestGetMissingLine() {
	ctx := context.Background()

	_, err := s.store.Get(ctx, testAddr("DEXTSCALP1", address.NoExpiry))
	s.Require().True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestUpsertOverwritesCounters() {
	ctx := context.Background()
	addr := testAddr("DEXTSCALP1", address.NoExpiry)

	s.Require().NoError(s.store.Upsert(ctx, ledger.StockLine{Address: addr, QtyIn: 10}))
	s.Require().NoError(s.store.Upsert(ctx, ledger.StockLine{Address: addr, QtyIn: 30, QtyOut: 5}))

	got, err := s.store.Get(ctx, addr)
	s.Require().NoError(err)
	s.Equal(30, got.QtyIn)
	s.Equal(5, got.QtyOut)
}

func (s *PostgresStoreSuite) TestTrackedFormSurvivesRoundTrip() {
	ctx := context.Background()
	addr := address.StockAddress{
		Scenario:       2,
		Kit:            "KMEDMTRAU1",
		Module:         "MMEDMDRE1",
		Item:           "DINJATRS1V",
		StdQty:         50,
		Expiry:         "2027-06-30",
		KitInstance:    1,
		ModuleInstance: 2,
	}

	s.Require().NoError(s.store.Upsert(ctx, ledger.StockLine{Address: addr, QtyIn: 50}))

	got, err := s.store.Get(ctx, addr)
	s.Require().NoError(err)
	s.Equal(addr, got.Address)
	s.True(got.Address.Tracked())
}

func (s *PostgresStoreSuite) TestListScenarioIsScoped() {
	ctx := context.Background()
	one := testAddr("DINJATRS1V", "2027-06-30")
	other := one
	other.Scenario = 2

	s.Require().NoError(s.store.Upsert(ctx, ledger.StockLine{Address: one, QtyIn: 10}))
	s.Require().NoError(s.store.Upsert(ctx, ledger.StockLine{Address: other, QtyIn: 99}))

	lines, err := s.store.ListScenario(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(lines, 1)
	s.Equal(10, lines[0].QtyIn)
}

func (s *PostgresStoreSuite) TestConcurrentUpsertsKeepOneRow() {
	ctx := context.Background()
	addr := testAddr("DINJATRS1V", "2027-06-30")
	const goroutines = 20

	var wg sync.WaitGroup
	for i := 1; i <= goroutines; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			err := s.store.Upsert(ctx, ledger.StockLine{Address: addr, QtyIn: qty})
			s.Require().NoError(err)
		}(i)
	}
	wg.Wait()

	lines, err := s.store.ListScenario(ctx, 1)
	s.Require().NoError(err)
	s.Len(lines, 1)
}
