package redis

import (
	"encoding/json"
	"fmt"

	"github.com/tsrpcx/redis-omx-node/core/persistence"
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// jsonRootField is the attribute FT.SEARCH returns a whole JSON document under.
const jsonRootField = "$"

// parseSearchReply decodes a RESP2 FT.SEARCH reply:
//
//	[total, key1, [field, value, ...], key2, [field, value, ...], ...]
func parseSearchReply(raw any, ds schema.DataStructure) (*persistence.SearchReply, error) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply of type %T", raw)
	}

	total, ok := items[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH total of type %T", items[0])
	}

	reply := &persistence.SearchReply{Total: total}
	rest := items[1:]
	for i := 0; i < len(rest); i++ {
		key, err := replyString(rest[i])
		if err != nil {
			return nil, fmt.Errorf("invalid document key: %w", err)
		}

		var fields []any
		if i+1 < len(rest) {
			if f, ok := rest[i+1].([]any); ok {
				fields = f
				i++
			}
		}

		doc, err := parseDocument(key, fields, ds)
		if err != nil {
			return nil, err
		}
		reply.Documents = append(reply.Documents, doc)
	}
	return reply, nil
}

func parseDocument(key string, fields []any, ds schema.DataStructure) (persistence.Document, error) {
	if len(fields)%2 != 0 {
		return persistence.Document{}, fmt.Errorf("odd number of fields in document %s", key)
	}

	record := make(map[string]string, len(fields)/2)
	for j := 0; j < len(fields); j += 2 {
		name, err := replyString(fields[j])
		if err != nil {
			return persistence.Document{}, fmt.Errorf("invalid field name in document %s: %w", key, err)
		}
		value, err := replyString(fields[j+1])
		if err != nil {
			return persistence.Document{}, fmt.Errorf("invalid value of %s in document %s: %w", name, key, err)
		}
		record[name] = value
	}

	if ds == schema.DataStructureHash {
		return persistence.Document{Key: key, Hash: record}, nil
	}

	doc := map[string]any{}
	if body, ok := record[jsonRootField]; ok {
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return persistence.Document{}, fmt.Errorf("failed to decode JSON document %s: %w", key, err)
		}
	}
	return persistence.Document{Key: key, JSON: doc}, nil
}

func replyString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return "", fmt.Errorf("expected a string but got %T", v)
	}
}
