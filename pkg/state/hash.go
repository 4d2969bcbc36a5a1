package state

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"github.com/matst80/rdf-finder/pkg/types"
)

// HashPrefix marks a crawlable hash, #!index=... in a browser location.
const HashPrefix = "!"

var ErrMalformedHash = errors.New("malformed state hash")

var encoder = schema.NewEncoder()

// Serialize returns the canonical hash of a state: keys sorted, empty index
// and query omitted.
func Serialize(s types.QueryState) string {
	values := url.Values{}
	if err := encoder.Encode(s, values); err != nil {
		// QueryState only has string, int and bool fields
		panic(fmt.Sprintf("state: encode %+v: %v", s, err))
	}
	return HashPrefix + values.Encode()
}

// Deserialize parses a hash with or without its leading '#' and '!'.
func Deserialize(hash string) (types.QueryState, error) {
	raw := strings.TrimPrefix(hash, "#")
	raw = strings.TrimPrefix(raw, HashPrefix)
	values, err := url.ParseQuery(raw)
	if err != nil {
		return types.DefaultQueryState(), fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	s, err := types.DecodeQueryState(values)
	if err != nil {
		return types.DefaultQueryState(), fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return s, nil
}
