package state

import (
	"testing"

	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(types.QueryState{DatasetId: "a", PageSize: 10}, WithLogger(zaptest.NewLogger(t)))
}

func TestStoreSetMergesAndFiresOnce(t *testing.T) {
	s := newTestStore(t)
	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	s.Set(types.QueryPatch{QueryText: types.Ptr("foo"), PageStart: types.Ptr(0)})

	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, SourceSet, c.Source)
	assert.Equal(t, "", c.Previous.QueryText)
	assert.Equal(t, types.QueryState{DatasetId: "a", QueryText: "foo", PageSize: 10}, c.Current)
	assert.Equal(t, s.Get(), c.Current)
	assert.Equal(t, Serialize(c.Current), s.Hash())
	assert.False(t, c.DatasetChanged())
}

func TestStoreEverySetIsAHistoryEntry(t *testing.T) {
	s := newTestStore(t)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	s.Set(types.QueryPatch{QueryText: types.Ptr("foo")})
	s.Set(types.QueryPatch{QueryText: types.Ptr("foo")})

	entries, pos := s.History()
	assert.Len(t, entries, 3)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 2, fired)
}

func TestStoreBackForwardReplay(t *testing.T) {
	s := newTestStore(t)
	s.Set(types.QueryPatch{QueryText: types.Ptr("first")})
	s.Set(types.QueryPatch{QueryText: types.Ptr("second")})

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	assert.True(t, s.Back())
	assert.Equal(t, "first", s.Get().QueryText)
	assert.True(t, s.Forward())
	assert.Equal(t, "second", s.Get().QueryText)
	assert.False(t, s.Forward())

	require.Len(t, changes, 2)
	assert.Equal(t, SourceHash, changes[0].Source)
	assert.Equal(t, SourceHash, changes[1].Source)
	assert.Less(t, changes[0].Generation, changes[1].Generation)
}

func TestStoreNavigate(t *testing.T) {
	s := newTestStore(t)
	fired := 0
	s.OnChange(func(Change) { fired++ })

	require.NoError(t, s.Navigate("#!index=b&query=bar&pageSize=20"))
	assert.Equal(t, types.QueryState{DatasetId: "b", QueryText: "bar", PageSize: 20}, s.Get())
	assert.Equal(t, 1, fired)

	// same state, different spelling
	require.NoError(t, s.Navigate("query=bar&index=b&pageSize=20&pageStart=0"))
	assert.Equal(t, 1, fired)

	assert.ErrorIs(t, s.Navigate("!pageStart=x"), ErrMalformedHash)
	assert.Equal(t, 1, fired)
}

func TestStoreUnsubscribe(t *testing.T) {
	s := newTestStore(t)
	a, b := 0, 0
	unsubscribe := s.OnChange(func(Change) { a++ })
	s.OnChange(func(Change) { b++ })

	s.Set(types.QueryPatch{PageStart: types.Ptr(10)})
	unsubscribe()
	s.Set(types.QueryPatch{PageStart: types.Ptr(20)})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestStoreReentrantSet(t *testing.T) {
	s := newTestStore(t)
	var seen []string
	s.OnChange(func(c Change) {
		seen = append(seen, c.Current.DatasetId)
		if c.Current.DatasetId == "bad" {
			s.Set(types.QueryPatch{DatasetId: types.Ptr("good")})
		}
	})

	s.Set(types.QueryPatch{DatasetId: types.Ptr("bad")})

	assert.Equal(t, []string{"bad", "good"}, seen)
	assert.Equal(t, "good", s.Get().DatasetId)
}

func TestStoreReentrantSetOrderedForEverySubscriber(t *testing.T) {
	s := newTestStore(t)
	s.OnChange(func(c Change) {
		if c.Current.DatasetId == "bad" {
			s.Set(types.QueryPatch{DatasetId: types.Ptr("good")})
		}
	})
	var seen []string
	var generations []uint64
	s.OnChange(func(c Change) {
		seen = append(seen, c.Current.DatasetId)
		generations = append(generations, c.Generation)
	})

	s.Set(types.QueryPatch{DatasetId: types.Ptr("bad")})

	assert.Equal(t, []string{"bad", "good"}, seen)
	assert.Equal(t, []uint64{1, 2}, generations)
	assert.Equal(t, "good", s.Get().DatasetId)
}

func TestStoreReplaceRewritesCurrentEntry(t *testing.T) {
	s := newTestStore(t)
	s.Set(types.QueryPatch{QueryText: types.Ptr("q")})
	s.Set(types.QueryPatch{DatasetId: types.Ptr("nope")})

	var changes []Change
	s.OnChange(func(c Change) {
		changes = append(changes, c)
	})
	s.Replace(types.QueryPatch{DatasetId: types.Ptr("a")})

	require.Len(t, changes, 1)
	assert.Equal(t, SourceReplace, changes[0].Source)
	assert.Equal(t, "nope", changes[0].Previous.DatasetId)
	entries, pos := s.History()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, pos)
	assert.Equal(t, s.Hash(), entries[2])

	require.True(t, s.Back())
	assert.Equal(t, "q", s.Get().QueryText)
	assert.Equal(t, "a", s.Get().DatasetId)
	require.True(t, s.Back())
	assert.Equal(t, "", s.Get().QueryText)
}

func TestNewStoreFromHash(t *testing.T) {
	s, err := NewStoreFromHash("#!index=x&query=y")
	require.NoError(t, err)
	assert.Equal(t, "x", s.Get().DatasetId)
	assert.Equal(t, "!deref=false&index=x&pageSize=10&pageStart=0&query=y", s.Hash())

	s, err = NewStoreFromHash("!pageSize=oops")
	assert.Error(t, err)
	assert.Equal(t, types.DefaultQueryState(), s.Get())
}
