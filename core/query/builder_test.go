package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryBuilder(t *testing.T) {
	qb := NewQueryBuilder()
	assert.NotNil(t, qb)
	assert.Nil(t, qb.query.Filters)
	assert.Empty(t, qb.query.Sort)
	assert.Nil(t, qb.query.Pagination)
}

func TestQueryBuilder_Build(t *testing.T) {
	qb := NewQueryBuilder()
	dsl := qb.Build()
	assert.Equal(t, QueryDSL{}, dsl)

	qb.Limit(10)
	dsl = qb.Build()
	require.NotNil(t, dsl.Pagination)
	assert.Equal(t, 10, dsl.Pagination.Limit)

	// The built DSL is detached from the builder.
	qb.Limit(20)
	assert.Equal(t, 10, dsl.Pagination.Limit)
}

func TestQueryBuilder_Clone(t *testing.T) {
	qb := NewQueryBuilder().Where("age").Gt(18).Limit(10).Offset(5).OrderByAsc("name")
	clonedQb := qb.Clone()

	assert.Equal(t, qb.query, clonedQb.query)

	clonedQb.Limit(20).Offset(40).Where("name").Eq("Ada")
	assert.Equal(t, 10, qb.query.Pagination.Limit)
	assert.Equal(t, 5, *qb.query.Pagination.Offset)
	assert.Equal(t, 20, clonedQb.query.Pagination.Limit)
	assert.Equal(t, 40, *clonedQb.query.Pagination.Offset)
	assert.NotNil(t, qb.query.Filters.Condition)
	assert.NotNil(t, clonedQb.query.Filters.Group)
}

func TestQueryBuilder_Reset(t *testing.T) {
	qb := NewQueryBuilder().Where("a").Eq(1).Limit(10).OrderByAsc("name")
	qb.Reset()
	assert.Equal(t, QueryDSL{}, qb.query)
}

func TestQueryBuilder_Where(t *testing.T) {
	tests := []struct {
		name     string
		buildFn  func(*QueryBuilder) *QueryBuilder
		expected FilterCondition
	}{
		{
			name:     "Eq condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("field1").Eq("value1") },
			expected: FilterCondition{Field: "field1", Operator: ComparisonOperatorEq, Value: "value1"},
		},
		{
			name:     "Neq condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("field1").Neq("value1") },
			expected: FilterCondition{Field: "field1", Operator: ComparisonOperatorNeq, Value: "value1"},
		},
		{
			name:     "Lt condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("age").Lt(30) },
			expected: FilterCondition{Field: "age", Operator: ComparisonOperatorLt, Value: 30},
		},
		{
			name:     "Lte condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("age").Lte(30) },
			expected: FilterCondition{Field: "age", Operator: ComparisonOperatorLte, Value: 30},
		},
		{
			name:     "Gt condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("age").Gt(30) },
			expected: FilterCondition{Field: "age", Operator: ComparisonOperatorGt, Value: 30},
		},
		{
			name:     "Gte condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("age").Gte(30) },
			expected: FilterCondition{Field: "age", Operator: ComparisonOperatorGte, Value: 30},
		},
		{
			name:     "Between condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("age").Between(18, 65) },
			expected: FilterCondition{Field: "age", Operator: ComparisonOperatorBetween, Value: Range{From: 18, To: 65}},
		},
		{
			name:     "In condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("status").In("active", "pending") },
			expected: FilterCondition{Field: "status", Operator: ComparisonOperatorIn, Value: []FilterValue{"active", "pending"}},
		},
		{
			name:     "Nin condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("status").Nin("deleted") },
			expected: FilterCondition{Field: "status", Operator: ComparisonOperatorNin, Value: []FilterValue{"deleted"}},
		},
		{
			name:     "Contains condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("bio").Contains("redis") },
			expected: FilterCondition{Field: "bio", Operator: ComparisonOperatorContains, Value: "redis"},
		},
		{
			name:     "Match condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("bio").Match("in memory") },
			expected: FilterCondition{Field: "bio", Operator: ComparisonOperatorMatch, Value: "in memory"},
		},
		{
			name:    "Within condition",
			buildFn: func(qb *QueryBuilder) *QueryBuilder { return qb.Where("location").Within(-0.12, 51.5, 10, UnitKilometers) },
			expected: FilterCondition{Field: "location", Operator: ComparisonOperatorWithin, Value: GeoRadius{
				Longitude: -0.12, Latitude: 51.5, Radius: 10, Unit: UnitKilometers,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsl := tt.buildFn(NewQueryBuilder()).Build()
			require.NotNil(t, dsl.Filters)
			require.NotNil(t, dsl.Filters.Condition)
			assert.Nil(t, dsl.Filters.Group)
			assert.Equal(t, tt.expected, *dsl.Filters.Condition)
		})
	}
}

func TestQueryBuilder_SuccessiveWheresAreAnded(t *testing.T) {
	dsl := NewQueryBuilder().
		Where("a").Eq(1).
		And("b").Eq(2).
		Where("c").Eq(3).
		Build()

	require.NotNil(t, dsl.Filters.Group)
	assert.Equal(t, LogicalOperatorAnd, dsl.Filters.Group.Operator)
	require.Len(t, dsl.Filters.Group.Conditions, 3)
	assert.Equal(t, "c", dsl.Filters.Group.Conditions[2].Condition.Field)
}

func TestQueryBuilder_WhereGroup(t *testing.T) {
	dsl := NewQueryBuilder().
		Where("active").Eq(true).
		WhereGroup(LogicalOperatorOr).
		Where("role").Eq("admin").
		WhereGroup(LogicalOperatorNot).
		Where("age").Lt(18).
		EndGroup().
		End().
		Build()

	require.NotNil(t, dsl.Filters.Group)
	root := dsl.Filters.Group
	assert.Equal(t, LogicalOperatorAnd, root.Operator)
	require.Len(t, root.Conditions, 2)

	or := root.Conditions[1].Group
	require.NotNil(t, or)
	assert.Equal(t, LogicalOperatorOr, or.Operator)
	require.Len(t, or.Conditions, 2)
	assert.Equal(t, "role", or.Conditions[0].Condition.Field)

	not := or.Conditions[1].Group
	require.NotNil(t, not)
	assert.Equal(t, LogicalOperatorNot, not.Operator)
	require.Len(t, not.Conditions, 1)
	assert.Equal(t, ComparisonOperatorLt, not.Conditions[0].Condition.Operator)
}

func TestQueryBuilder_EndClosesOpenGroups(t *testing.T) {
	dsl := NewQueryBuilder().
		WhereGroup(LogicalOperatorOr).
		Where("a").Eq(1).
		WhereGroup(LogicalOperatorAnd).
		Where("b").Eq(2).
		End().
		Build()

	require.NotNil(t, dsl.Filters.Group)
	assert.Equal(t, LogicalOperatorOr, dsl.Filters.Group.Operator)
	require.Len(t, dsl.Filters.Group.Conditions, 2)
	assert.Equal(t, LogicalOperatorAnd, dsl.Filters.Group.Conditions[1].Group.Operator)
}

func TestQueryBuilder_Filter(t *testing.T) {
	prebuilt := QueryFilter{Condition: &FilterCondition{Field: "x", Operator: ComparisonOperatorEq, Value: 1}}
	qb := NewQueryBuilder().Filter(prebuilt)
	prebuilt.Condition.Value = 2

	dsl := qb.Build()
	assert.Equal(t, 1, dsl.Filters.Condition.Value)
}

func TestQueryBuilder_OrderBy(t *testing.T) {
	dsl := NewQueryBuilder().
		OrderByAsc("name").
		OrderByDesc("age").
		OrderBy("created", SortDirectionAsc).
		Build()

	assert.Equal(t, []SortConfiguration{
		{Field: "name", Direction: SortDirectionAsc},
		{Field: "age", Direction: SortDirectionDesc},
		{Field: "created", Direction: SortDirectionAsc},
	}, dsl.Sort)
}

func TestQueryBuilder_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		buildFn        func(*QueryBuilder) *QueryBuilder
		expectedLimit  int
		expectedOffset int
	}{
		{"limit only", func(qb *QueryBuilder) *QueryBuilder { return qb.Limit(25) }, 25, 0},
		{"offset only", func(qb *QueryBuilder) *QueryBuilder { return qb.Offset(30) }, 0, 30},
		{"limit and offset", func(qb *QueryBuilder) *QueryBuilder { return qb.Limit(10).Offset(20) }, 10, 20},
		{"page", func(qb *QueryBuilder) *QueryBuilder { return qb.Page(40, 20) }, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsl := tt.buildFn(NewQueryBuilder()).Build()
			require.NotNil(t, dsl.Pagination)
			assert.Equal(t, tt.expectedLimit, dsl.Pagination.Limit)
			assert.Equal(t, tt.expectedOffset, dsl.Pagination.OffsetOrZero())
		})
	}
}

func TestQueryBuilder_OrAndNot(t *testing.T) {
	dsl := NewQueryBuilder().
		Or().Where("a").Eq(1).Where("b").Eq(2).End().
		Not().Where("c").Eq(3).End().
		Build()

	require.NotNil(t, dsl.Filters.Group)
	require.Len(t, dsl.Filters.Group.Conditions, 2)
	assert.Equal(t, LogicalOperatorOr, dsl.Filters.Group.Conditions[0].Group.Operator)
	assert.Equal(t, LogicalOperatorNot, dsl.Filters.Group.Conditions[1].Group.Operator)
}
