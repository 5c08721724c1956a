// Package storetest holds the behavioral suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
)

// Suite exercises a store.Store. Open must return an empty store; it is
// called once per test with that test's *testing.T.
type Suite struct {
	suite.Suite
	Open func(t *testing.T) store.Store

	st  store.Store
	ctx context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.st = s.Open(s.T())
}

func (s *Suite) TearDownTest() {
	s.Require().NoError(s.st.Close())
}

func (s *Suite) insert(address string, status house.Status) string {
	id, err := s.st.Insert(s.ctx, store.Fields{Address: address, Status: status})
	s.Require().NoError(err)
	s.Require().NotEmpty(id)
	return id
}

func (s *Suite) TestInsertAndGet() {
	id := s.insert("123 Main St", house.StatusUnvisited)

	h, err := s.st.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(house.House{ID: id, Address: "123 Main St", Status: house.StatusUnvisited}, h)
}

func (s *Suite) TestInsertAssignsUniqueIDs() {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := s.insert("1 Loop Rd", house.StatusUnvisited)
		s.False(seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func (s *Suite) TestInsertRejectsInvalid() {
	_, err := s.st.Insert(s.ctx, store.Fields{Address: "", Status: house.StatusUnvisited})
	s.Equal(store.KindInvalid, store.KindOf(err))

	_, err = s.st.Insert(s.ctx, store.Fields{Address: "1 Main St", Status: "Maybe"})
	s.Equal(store.KindInvalid, store.KindOf(err))

	all, err := s.st.Query(s.ctx, store.Filter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *Suite) TestGetNotFound() {
	_, err := s.st.Get(s.ctx, "missing")
	s.Require().Error(err)
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *Suite) TestUpdateStatus() {
	id := s.insert("9 Oak Ave", house.StatusUnvisited)

	s.Require().NoError(s.st.UpdateStatus(s.ctx, id, house.StatusNoAnswer))

	h, err := s.st.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(house.StatusNoAnswer, h.Status)
	s.Equal("9 Oak Ave", h.Address)
}

func (s *Suite) TestUpdateStatusIdempotent() {
	id := s.insert("9 Oak Ave", house.StatusUnvisited)

	s.Require().NoError(s.st.UpdateStatus(s.ctx, id, house.StatusAccepted))
	s.Require().NoError(s.st.UpdateStatus(s.ctx, id, house.StatusAccepted))

	h, err := s.st.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(house.StatusAccepted, h.Status)
}

func (s *Suite) TestUpdateStatusNotFound() {
	err := s.st.UpdateStatus(s.ctx, "missing", house.StatusAccepted)
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *Suite) TestUpdateStatusInvalid() {
	id := s.insert("9 Oak Ave", house.StatusUnvisited)

	err := s.st.UpdateStatus(s.ctx, id, "Maybe")
	s.Equal(store.KindInvalid, store.KindOf(err))

	h, err := s.st.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(house.StatusUnvisited, h.Status)
}

func (s *Suite) TestDelete() {
	id := s.insert("5 Pine Ct", house.StatusUnvisited)

	s.Require().NoError(s.st.Delete(s.ctx, id))

	_, err := s.st.Get(s.ctx, id)
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)

	err = s.st.Delete(s.ctx, id)
	s.True(errors.Is(err, store.ErrNotFound), "second delete got %v", err)
}

func (s *Suite) TestQueryActiveFilter() {
	a := s.insert("1 A St", house.StatusUnvisited)
	b := s.insert("2 B St", house.StatusUnvisited)
	c := s.insert("3 C St", house.StatusNoAnswer)
	d := s.insert("4 D St", house.StatusNoAnswer)
	s.Require().NoError(s.st.UpdateStatus(s.ctx, b, house.StatusAccepted))
	s.Require().NoError(s.st.UpdateStatus(s.ctx, d, house.StatusDeclined))

	got, err := s.st.Query(s.ctx, store.ActiveFilter())
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(a, got[0].ID)
	s.Equal(c, got[1].ID)
	for _, h := range got {
		s.True(h.Status.IsActive(), "inactive status %q returned", h.Status)
	}
}

func (s *Suite) TestQueryInsertionOrder() {
	ids := []string{
		s.insert("1 First St", house.StatusUnvisited),
		s.insert("2 Second St", house.StatusUnvisited),
		s.insert("3 Third St", house.StatusUnvisited),
	}

	got, err := s.st.Query(s.ctx, store.Filter{})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	for i, h := range got {
		s.Equal(ids[i], h.ID)
	}
}

func (s *Suite) TestQueryEmpty() {
	got, err := s.st.Query(s.ctx, store.ActiveFilter())
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *Suite) TestQueryRejectsInvalidFilter() {
	_, err := s.st.Query(s.ctx, store.Filter{AnyStatus: []house.Status{"Maybe"}})
	require.Equal(s.T(), store.KindInvalid, store.KindOf(err))
}
