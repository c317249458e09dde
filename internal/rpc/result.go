// Package rpc converts sync results to and from the protobuf Struct carried
// by the RosterSync gRPC service.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/rostersync/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// ResultToStruct converts res through its JSON form, so the Struct carries
// the same field names as the HTTP API.
func ResultToStruct(res *models.SyncResult) (*structpb.Struct, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal sync result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal sync result: %w", err)
	}
	return structpb.NewStruct(m)
}

// StructToResult is the inverse of ResultToStruct.
func StructToResult(s *structpb.Struct) (*models.SyncResult, error) {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("marshal struct: %w", err)
	}
	var res models.SyncResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode sync result: %w", err)
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	return &res, nil
}
