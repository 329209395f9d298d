package client

import (
	"bytes"
	"encoding/json"

	"github.com/freddy208/crmprospect/pkg/crm"
)

// listEnvelope is the paginated shape some list endpoints answer with.
type listEnvelope[T any] struct {
	Data  []T `json:"data"`
	Items []T `json:"items"`
}

func decode[T any](body []byte, target string) (*T, error) {
	var value T

	err := json.Unmarshal(body, &value)
	if err != nil {
		return nil, &crm.DecodeError{Target: target, Body: body, Err: err}
	}

	return &value, nil
}

// decodeList accepts a bare JSON array as well as a {"data": [...]} envelope.
func decodeList[T any](body []byte, target string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope listEnvelope[T]

		err := json.Unmarshal(trimmed, &envelope)
		if err != nil {
			return nil, &crm.DecodeError{Target: target, Body: body, Err: err}
		}

		if envelope.Data != nil {
			return envelope.Data, nil
		}

		if envelope.Items != nil {
			return envelope.Items, nil
		}

		return []T{}, nil
	}

	var values []T

	err := json.Unmarshal(trimmed, &values)
	if err != nil {
		return nil, &crm.DecodeError{Target: target, Body: body, Err: err}
	}

	if values == nil {
		values = []T{}
	}

	return values, nil
}
