package query

// QueryBuilder provides a fluent API for building QueryDSL structures.
// Successive Where calls are combined with AND.
type QueryBuilder struct {
	query QueryDSL
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		query: QueryDSL{},
	}
}

// Build returns the constructed QueryDSL object.
func (qb *QueryBuilder) Build() QueryDSL {
	return qb.Clone().query
}

// Clone creates a deep copy of the builder so derived queries do not affect the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	clone := QueryDSL{}
	if qb.query.Filters != nil {
		f := cloneFilter(*qb.query.Filters)
		clone.Filters = &f
	}
	if qb.query.Sort != nil {
		clone.Sort = append([]SortConfiguration(nil), qb.query.Sort...)
	}
	if qb.query.Pagination != nil {
		p := *qb.query.Pagination
		if p.Offset != nil {
			p.Offset = IntPtr(*p.Offset)
		}
		clone.Pagination = &p
	}
	return &QueryBuilder{query: clone}
}

func cloneFilter(f QueryFilter) QueryFilter {
	out := QueryFilter{}
	if f.Condition != nil {
		c := *f.Condition
		out.Condition = &c
	}
	if f.Group != nil {
		g := FilterGroup{Operator: f.Group.Operator, Conditions: make([]QueryFilter, len(f.Group.Conditions))}
		for i, child := range f.Group.Conditions {
			g.Conditions[i] = cloneFilter(child)
		}
		out.Group = &g
	}
	return out
}

// Reset clears all configurations from the query builder, returning it to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = QueryDSL{}
	return qb
}

// addFilter ANDs filter onto the existing filters.
func (qb *QueryBuilder) addFilter(filter QueryFilter) *QueryBuilder {
	switch {
	case qb.query.Filters == nil:
		qb.query.Filters = &filter
	case qb.query.Filters.Group != nil && qb.query.Filters.Group.Operator == LogicalOperatorAnd:
		qb.query.Filters.Group.Conditions = append(qb.query.Filters.Group.Conditions, filter)
	default:
		existing := *qb.query.Filters
		qb.query.Filters = &QueryFilter{Group: &FilterGroup{
			Operator:   LogicalOperatorAnd,
			Conditions: []QueryFilter{existing, filter},
		}}
	}
	return qb
}

// Where begins a condition on a field.
func (qb *QueryBuilder) Where(field string) *ConditionBuilder[*QueryBuilder] {
	return &ConditionBuilder[*QueryBuilder]{
		field: field,
		add: func(c FilterCondition) *QueryBuilder {
			return qb.addFilter(QueryFilter{Condition: &c})
		},
	}
}

// And is an alias of Where that reads better in chains.
func (qb *QueryBuilder) And(field string) *ConditionBuilder[*QueryBuilder] {
	return qb.Where(field)
}

// WhereGroup begins a group of conditions combined with operator.
func (qb *QueryBuilder) WhereGroup(operator LogicalOperator) *FilterGroupBuilder {
	return &FilterGroupBuilder{root: qb, operator: operator}
}

// Filter ANDs a prebuilt filter onto the query.
func (qb *QueryBuilder) Filter(filter QueryFilter) *QueryBuilder {
	return qb.addFilter(cloneFilter(filter))
}

// ConditionBuilder completes a condition on one field. R is the builder
// returned once the condition is added.
type ConditionBuilder[R any] struct {
	field string
	add   func(FilterCondition) R
}

func (cb *ConditionBuilder[R]) condition(operator ComparisonOperator, value FilterValue) R {
	return cb.add(FilterCondition{Field: cb.field, Operator: operator, Value: value})
}

// Eq matches an exact value.
func (cb *ConditionBuilder[R]) Eq(value FilterValue) R {
	return cb.condition(ComparisonOperatorEq, value)
}

// Neq excludes an exact value.
func (cb *ConditionBuilder[R]) Neq(value FilterValue) R {
	return cb.condition(ComparisonOperatorNeq, value)
}

// Lt adds a less-than condition.
func (cb *ConditionBuilder[R]) Lt(value FilterValue) R {
	return cb.condition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition.
func (cb *ConditionBuilder[R]) Lte(value FilterValue) R {
	return cb.condition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition.
func (cb *ConditionBuilder[R]) Gt(value FilterValue) R {
	return cb.condition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (cb *ConditionBuilder[R]) Gte(value FilterValue) R {
	return cb.condition(ComparisonOperatorGte, value)
}

// Between adds an inclusive range condition.
func (cb *ConditionBuilder[R]) Between(from, to FilterValue) R {
	return cb.condition(ComparisonOperatorBetween, Range{From: from, To: to})
}

// In matches any of the values.
func (cb *ConditionBuilder[R]) In(values ...FilterValue) R {
	return cb.condition(ComparisonOperatorIn, values)
}

// Nin matches none of the values.
func (cb *ConditionBuilder[R]) Nin(values ...FilterValue) R {
	return cb.condition(ComparisonOperatorNin, values)
}

// Contains matches full-text terms.
func (cb *ConditionBuilder[R]) Contains(value FilterValue) R {
	return cb.condition(ComparisonOperatorContains, value)
}

// Match matches a full-text exact phrase.
func (cb *ConditionBuilder[R]) Match(value FilterValue) R {
	return cb.condition(ComparisonOperatorMatch, value)
}

// Within matches points inside a radius.
func (cb *ConditionBuilder[R]) Within(longitude, latitude, radius float64, unit DistanceUnit) R {
	return cb.condition(ComparisonOperatorWithin, GeoRadius{
		Longitude: longitude,
		Latitude:  latitude,
		Radius:    radius,
		Unit:      unit,
	})
}

// FilterGroupBuilder collects the conditions of one group.
type FilterGroupBuilder struct {
	root       *QueryBuilder
	parent     *FilterGroupBuilder
	operator   LogicalOperator
	conditions []QueryFilter
}

// Where adds a condition to the group.
func (fgb *FilterGroupBuilder) Where(field string) *ConditionBuilder[*FilterGroupBuilder] {
	return &ConditionBuilder[*FilterGroupBuilder]{
		field: field,
		add: func(c FilterCondition) *FilterGroupBuilder {
			fgb.conditions = append(fgb.conditions, QueryFilter{Condition: &c})
			return fgb
		},
	}
}

// WhereGroup opens a nested group; close it with EndGroup.
func (fgb *FilterGroupBuilder) WhereGroup(operator LogicalOperator) *FilterGroupBuilder {
	return &FilterGroupBuilder{root: fgb.root, parent: fgb, operator: operator}
}

// EndGroup closes a nested group and returns to its parent.
func (fgb *FilterGroupBuilder) EndGroup() *FilterGroupBuilder {
	if fgb.parent == nil {
		return fgb
	}
	fgb.parent.conditions = append(fgb.parent.conditions, fgb.filter())
	return fgb.parent
}

// End closes the group, and any open parents, and returns to the query builder.
func (fgb *FilterGroupBuilder) End() *QueryBuilder {
	current := fgb
	for current.parent != nil {
		current = current.EndGroup()
	}
	return current.root.addFilter(current.filter())
}

func (fgb *FilterGroupBuilder) filter() QueryFilter {
	return QueryFilter{Group: &FilterGroup{
		Operator:   fgb.operator,
		Conditions: fgb.conditions,
	}}
}

// OrderBy adds a sorting configuration to the query.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{
		Field:     field,
		Direction: direction,
	})
	return qb
}

// OrderByAsc adds an ascending sort order for a specific field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc adds a descending sort order for a specific field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}

// Limit sets the maximum number of records to be returned by the query.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	if qb.query.Pagination == nil {
		qb.query.Pagination = &PaginationOptions{}
	}
	qb.query.Pagination.Limit = limit
	return qb
}

// Offset sets the number of records to skip.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	if qb.query.Pagination == nil {
		qb.query.Pagination = &PaginationOptions{}
	}
	qb.query.Pagination.Offset = IntPtr(offset)
	return qb
}

// Page selects a page of size count starting at offset.
func (qb *QueryBuilder) Page(offset, count int) *QueryBuilder {
	return qb.Offset(offset).Limit(count)
}

// Or opens a group whose conditions are combined with OR.
func (qb *QueryBuilder) Or() *FilterGroupBuilder {
	return qb.WhereGroup(LogicalOperatorOr)
}

// Not opens a group whose conditions must all fail to match.
func (qb *QueryBuilder) Not() *FilterGroupBuilder {
	return qb.WhereGroup(LogicalOperatorNot)
}
