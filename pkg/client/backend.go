package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/matst80/rdf-finder/pkg/types"
)

// Backend is the read only search service the finder talks to.
type Backend interface {
	DataSets(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context, dataset string) (*types.Statistics, error)
	Query(ctx context.Context, req types.QueryRequest) (*types.QueryResult, error)
}

var ErrUnknownDataset = errors.New("unknown dataset")

// BackendError is a non 2xx answer, Message carries the backend's own text.
type BackendError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Endpoint, e.Status, e.Message)
}
