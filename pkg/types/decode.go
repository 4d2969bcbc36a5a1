package types

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var ErrEmptyPayload = errors.New("empty payload")

func DecodeDataSets(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	var ret []string
	if err := sonic.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("data set list: %w", err)
	}
	if ret == nil {
		ret = []string{}
	}
	return ret, nil
}

func DecodeStatistics(data []byte) (*Statistics, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	stats := &Statistics{}
	if err := sonic.Unmarshal(data, stats); err != nil {
		return nil, fmt.Errorf("index statistics: %w", err)
	}
	stats.Normalize()
	return stats, nil
}

func DecodeQueryResult(data []byte) (*QueryResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	result := &QueryResult{}
	if err := sonic.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}
	result.Normalize()
	return result, nil
}
