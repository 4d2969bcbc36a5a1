package state

import (
	"testing"

	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeCanonical(t *testing.T) {
	s := types.QueryState{DatasetId: "dbpedia", QueryText: "name:tad smith", PageSize: 10, PageStart: 20, Dereference: true}
	assert.Equal(t, "!deref=true&index=dbpedia&pageSize=10&pageStart=20&query=name%3Atad+smith", Serialize(s))

	assert.Equal(t, "!deref=false&pageSize=10&pageStart=0", Serialize(types.DefaultQueryState()))
}

func TestStateRoundTrip(t *testing.T) {
	states := []types.QueryState{
		types.DefaultQueryState(),
		{DatasetId: "a", PageSize: 1},
		{DatasetId: "wordnet", QueryText: "type:{http://x.org/C} (predicate:{http://x.org/p} ^ object:a\\}b)", PageSize: 100, PageStart: 300},
		{QueryText: "doc:12", PageSize: 10000, Dereference: true},
		{DatasetId: "d s", QueryText: "ünïcödé & = + #", PageSize: 25, PageStart: 25},
	}
	for _, s := range states {
		hash := Serialize(s)
		back, err := Deserialize(hash)
		require.NoError(t, err)
		assert.Equal(t, s, back, "hash %s", hash)
		assert.Equal(t, hash, Serialize(back))
	}
}

func TestDeserializeAcceptsPrefixes(t *testing.T) {
	for _, hash := range []string{"#!index=a&query=q", "!index=a&query=q", "index=a&query=q", "#index=a&query=q"} {
		s, err := Deserialize(hash)
		require.NoError(t, err, hash)
		assert.Equal(t, "a", s.DatasetId)
		assert.Equal(t, "q", s.QueryText)
		assert.Equal(t, types.DefaultPageSize, s.PageSize)
	}
}

func TestDeserializeMalformed(t *testing.T) {
	_, err := Deserialize("!query=%zz")
	assert.ErrorIs(t, err, ErrMalformedHash)

	s, err := Deserialize("!pageSize=many")
	assert.ErrorIs(t, err, ErrMalformedHash)
	assert.Equal(t, types.DefaultQueryState(), s)
}
