package query

import (
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// QueryGeneratorFactory creates query generators bound to one schema.
type QueryGeneratorFactory interface {
	CreateGenerator(s *schema.Schema) (QueryGenerator, error)
}

// QueryGenerator translates a QueryDSL into the arguments of a store's
// search command.
type QueryGenerator interface {
	// GenerateQuery renders the filter part only. A nil filter matches everything.
	GenerateQuery(filters *QueryFilter) (string, error)

	// GenerateSearchArgs renders the full search command arguments, including
	// sorting and paging, after the index name.
	GenerateSearchArgs(dsl *QueryDSL) ([]any, error)
}
