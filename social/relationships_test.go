package social

import (
	"context"
	"testing"

	"clipshare/db"
	"clipshare/models"
	"clipshare/mq"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUnfollowScenario(t *testing.T) {
	for _, mode := range []WriteMode{WriteTransaction, WriteSaga} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode, "alice", "bob")
			alice := as("alice")

			require.NoError(t, f.mgr.UpdateRelationship(alice, "bob", true))

			followers, err := f.mgr.GetRelationships(alice, "bob", models.Followers)
			require.NoError(t, err)
			assert.Equal(t, []string{"alice"}, followers)

			following, err := f.mgr.GetRelationships(alice, "alice", models.Following)
			require.NoError(t, err)
			assert.Equal(t, []string{"bob"}, following)

			require.NoError(t, f.mgr.UpdateRelationship(alice, "bob", false))

			followers, err = f.mgr.GetRelationships(alice, "bob", models.Followers)
			require.NoError(t, err)
			assert.Equal(t, []string{}, followers)

			following, err = f.mgr.GetRelationships(alice, "alice", models.Following)
			require.NoError(t, err)
			assert.Empty(t, following)

			evs := f.events.Events()
			require.Len(t, evs, 2)
			assert.Equal(t, mq.EventFollowed, evs[0].Type)
			assert.Equal(t, mq.EventUnfollowed, evs[1].Type)
			assert.Equal(t, "bob", evs[0].Target)
		})
	}
}

func TestFollowIsDeduplicated(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice", "bob")
	alice := as("alice")

	require.NoError(t, f.mgr.UpdateRelationship(alice, "bob", true))
	require.NoError(t, f.mgr.UpdateRelationship(alice, "BOB", true))

	followers, err := f.mgr.GetRelationships(alice, "bob", models.Followers)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)
	assert.Len(t, f.events.Events(), 1)
}

func TestUnfollowWithoutListsIsNoop(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice", "bob")
	require.NoError(t, f.mgr.UpdateRelationship(as("alice"), "bob", false))
	assert.Empty(t, f.events.Events())
}

func TestFollowNormalizesBothSides(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice", "bob")
	require.NoError(t, f.mgr.UpdateRelationship(as("Alice"), "  Bob ", true))

	ok, err := f.mgr.IsValidRelationship(as("ALICE"), "bob", models.Followers)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSelfFollowAllowed(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice")
	require.NoError(t, f.mgr.UpdateRelationship(as("alice"), "alice", true))

	followers, err := f.mgr.GetRelationships(context.Background(), "alice", models.Followers)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice")
	err := f.mgr.UpdateRelationship(as("alice"), "ghost", true)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateRelationshipNeedsSession(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice", "bob")
	err := f.mgr.UpdateRelationship(context.Background(), "bob", true)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = f.mgr.IsValidRelationship(context.Background(), "bob", models.Followers)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestIsValidRelationshipIsStable(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice", "bob")
	alice := as("alice")
	require.NoError(t, f.mgr.UpdateRelationship(alice, "bob", true))

	first, err := f.mgr.IsValidRelationship(alice, "bob", models.Followers)
	require.NoError(t, err)
	second, err := f.mgr.IsValidRelationship(alice, "bob", models.Followers)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, first, second)

	ok, err := f.mgr.IsValidRelationship(as("bob"), "alice", models.Followers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetRelationshipsRejectsUnknownType(t *testing.T) {
	f := newFixture(t, WriteTransaction, "alice")
	_, err := f.mgr.GetRelationships(context.Background(), "alice", "friends")
	assert.ErrorIs(t, err, ErrInvalidRelationship)
}

func TestFailedSecondSideLeavesGraphUnchanged(t *testing.T) {
	for _, mode := range []WriteMode{WriteTransaction, WriteSaga} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode, "alice", "bob")
			f.store.failPrefix = "users/bob/followers"

			err := f.mgr.UpdateRelationship(as("alice"), "bob", true)
			assert.ErrorIs(t, err, errInjected)

			following, err := f.mgr.GetRelationships(context.Background(), "alice", models.Following)
			require.NoError(t, err)
			assert.Empty(t, following)

			followers, err := f.mgr.GetRelationships(context.Background(), "bob", models.Followers)
			require.NoError(t, err)
			assert.Empty(t, followers)
			assert.Empty(t, f.events.Events())
		})
	}
}

func TestSagaCompensatesUnfollow(t *testing.T) {
	f := newFixture(t, WriteSaga, "alice", "bob")
	alice := as("alice")
	require.NoError(t, f.mgr.UpdateRelationship(alice, "bob", true))

	f.store.failPrefix = "users/bob/followers"
	err := f.mgr.UpdateRelationship(alice, "bob", false)
	assert.ErrorIs(t, err, errInjected)

	following, err := f.mgr.GetRelationships(alice, "alice", models.Following)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)

	followers, err := f.mgr.GetRelationships(alice, "bob", models.Followers)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)
}

func TestFollowSurvivesFullEventBus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	bus := mq.NewLocalBus(1)
	mgr := NewManager(db.NewMemoryStore(), ctxSession, bus, WithLogger(logrus.NewEntry(logger)))
	ctx := context.Background()
	for _, u := range []string{"alice", "bob", "carol"} {
		require.NoError(t, mgr.InsertUser(ctx, u+"@x.com", u))
	}

	require.NoError(t, mgr.UpdateRelationship(as("alice"), "bob", true))
	require.NoError(t, mgr.UpdateRelationship(as("alice"), "carol", true))

	following, err := mgr.GetRelationships(ctx, "alice", models.Following)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, following)

	var dropped []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			dropped = append(dropped, e)
		}
	}
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0].Data[logrus.ErrorKey].(error), mq.ErrBusFull)
}
