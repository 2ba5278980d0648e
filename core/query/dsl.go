// Package query defines the Domain-Specific Language (DSL) for searching
// entities. A QueryDSL describes filters, sorting and paging independently of
// RediSearch syntax; a QueryGenerator turns it into a search command.
package query

// LogicalOperator combines the conditions of a FilterGroup.
type LogicalOperator string

const (
	LogicalOperatorAnd LogicalOperator = "and" // All conditions must match
	LogicalOperatorOr  LogicalOperator = "or"  // At least one condition must match
	LogicalOperatorNot LogicalOperator = "not" // None of the conditions may match
)

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq       ComparisonOperator = "eq"
	ComparisonOperatorNeq      ComparisonOperator = "neq"
	ComparisonOperatorLt       ComparisonOperator = "lt"
	ComparisonOperatorLte      ComparisonOperator = "lte"
	ComparisonOperatorGt       ComparisonOperator = "gt"
	ComparisonOperatorGte      ComparisonOperator = "gte"
	ComparisonOperatorBetween  ComparisonOperator = "between"
	ComparisonOperatorIn       ComparisonOperator = "in"
	ComparisonOperatorNin      ComparisonOperator = "nin"
	ComparisonOperatorContains ComparisonOperator = "contains" // full-text term match
	ComparisonOperatorMatch    ComparisonOperator = "match"    // full-text exact phrase
	ComparisonOperatorWithin   ComparisonOperator = "within"   // geo radius
)

// FilterValue is the operand of a filter condition.
type FilterValue any

// Range is the operand of a between condition. Bounds are inclusive.
type Range struct {
	From FilterValue
	To   FilterValue
}

// DistanceUnit is a RediSearch geo distance unit.
type DistanceUnit string

const (
	UnitMeters     DistanceUnit = "m"
	UnitKilometers DistanceUnit = "km"
	UnitMiles      DistanceUnit = "mi"
	UnitFeet       DistanceUnit = "ft"
)

// GeoRadius is the operand of a within condition.
type GeoRadius struct {
	Longitude float64
	Latitude  float64
	Radius    float64
	Unit      DistanceUnit
}

// FilterCondition defines a single condition for filtering the results of a query.
type FilterCondition struct {
	Field    string             // Declared name, storage name or dotted path.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filters using a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator
	Conditions []QueryFilter
}

// QueryFilter is either a single condition or a group.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"`
	Group     *FilterGroup     `json:",omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string
	Direction SortDirection
}

// PaginationOptions selects one page of results.
type PaginationOptions struct {
	Limit  int
	Offset *int `json:",omitempty"`
}

// QueryDSL is the top-level structure that represents a complete search.
type QueryDSL struct {
	Filters    *QueryFilter        `json:",omitempty"`
	Sort       []SortConfiguration `json:",omitempty"`
	Pagination *PaginationOptions  `json:",omitempty"`
}

// QueryResult is one page of search results.
type QueryResult struct {
	Data  any   `json:"data"`
	Count int   `json:"count"`
	Total int64 `json:"total"`
}

// standardComparisonOperators is the set of operators every generator must support.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:       {},
	ComparisonOperatorNeq:      {},
	ComparisonOperatorLt:       {},
	ComparisonOperatorLte:      {},
	ComparisonOperatorGt:       {},
	ComparisonOperatorGte:      {},
	ComparisonOperatorBetween:  {},
	ComparisonOperatorIn:       {},
	ComparisonOperatorNin:      {},
	ComparisonOperatorContains: {},
	ComparisonOperatorMatch:    {},
	ComparisonOperatorWithin:   {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// OffsetOrZero returns the page offset, zero when unset.
func (p *PaginationOptions) OffsetOrZero() int {
	if p == nil || p.Offset == nil {
		return 0
	}
	return *p.Offset
}
