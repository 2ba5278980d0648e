package redis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tsrpcx/redis-omx-node/core/entity"
	"github.com/tsrpcx/redis-omx-node/core/query"
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// SearchQueryGeneratorFactory implements the QueryGeneratorFactory for RediSearch.
type SearchQueryGeneratorFactory struct {
	resolver schema.Resolver
}

// NewSearchQueryGeneratorFactory creates a factory whose generators resolve
// nested object paths through r.
func NewSearchQueryGeneratorFactory(r schema.Resolver) *SearchQueryGeneratorFactory {
	return &SearchQueryGeneratorFactory{resolver: r}
}

// CreateGenerator creates a new SearchQuery for the given schema.
func (f *SearchQueryGeneratorFactory) CreateGenerator(s *schema.Schema) (query.QueryGenerator, error) {
	return NewSearchQuery(s, f.resolver)
}

var _ query.QueryGeneratorFactory = (*SearchQueryGeneratorFactory)(nil)

// SearchQuery is a schema-aware query generator for RediSearch. Field names in
// conditions are declared names, storage names or dotted paths through
// object fields; the field's type decides the query syntax.
type SearchQuery struct {
	schema   *schema.Schema
	resolver schema.Resolver
}

// NewSearchQuery creates a new schema-aware query generator for RediSearch.
func NewSearchQuery(s *schema.Schema, r schema.Resolver) (*SearchQuery, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	return &SearchQuery{schema: s, resolver: r}, nil
}

// GenerateQuery renders a filter as a RediSearch query string. A nil filter
// matches every document.
func (q *SearchQuery) GenerateQuery(filters *query.QueryFilter) (string, error) {
	if filters == nil {
		return "*", nil
	}
	return q.buildFilter(*filters)
}

// GenerateSearchArgs renders the arguments that follow the index name in
// FT.SEARCH.
func (q *SearchQuery) GenerateSearchArgs(dsl *query.QueryDSL) ([]any, error) {
	if dsl == nil {
		dsl = &query.QueryDSL{}
	}

	text, err := q.GenerateQuery(dsl.Filters)
	if err != nil {
		return nil, err
	}
	args := []any{text}

	switch len(dsl.Sort) {
	case 0:
	case 1:
		sort := dsl.Sort[0]
		field, _, err := q.resolveField(sort.Field)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if sort.Direction == query.SortDirectionDesc {
			direction = "DESC"
		}
		args = append(args, "SORTBY", field, direction)
	default:
		return nil, fmt.Errorf("RediSearch sorts by a single field, got %d", len(dsl.Sort))
	}

	if p := dsl.Pagination; p != nil {
		limit := p.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}
		args = append(args, "LIMIT", p.OffsetOrZero(), limit)
	}
	return args, nil
}

// defaultSearchLimit matches RediSearch's own default page size.
const defaultSearchLimit = 10

func (q *SearchQuery) buildFilter(filter query.QueryFilter) (string, error) {
	switch {
	case filter.Condition != nil:
		return q.buildCondition(*filter.Condition)
	case filter.Group != nil:
		return q.buildGroup(*filter.Group)
	default:
		return "", fmt.Errorf("filter has neither a condition nor a group")
	}
}

func (q *SearchQuery) buildGroup(group query.FilterGroup) (string, error) {
	if len(group.Conditions) == 0 {
		return "", fmt.Errorf("%s group has no conditions", group.Operator)
	}

	parts := make([]string, 0, len(group.Conditions))
	for _, child := range group.Conditions {
		part, err := q.buildFilter(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	switch group.Operator {
	case query.LogicalOperatorAnd, "":
		return "( " + strings.Join(parts, " ") + " )", nil
	case query.LogicalOperatorOr:
		return "( " + strings.Join(parts, " | ") + " )", nil
	case query.LogicalOperatorNot:
		return "-( " + strings.Join(parts, " ") + " )", nil
	default:
		return "", fmt.Errorf("unsupported logical operator: %s", group.Operator)
	}
}

// resolveField returns the escaped "@name" of an indexed field.
func (q *SearchQuery) resolveField(path string) (string, schema.FieldDefinition, error) {
	def, storage, ok := q.schema.ResolvePath(q.resolver, path)
	if !ok {
		return "", schema.FieldDefinition{}, schema.ValidationError(path,
			fmt.Sprintf("field '%s' not found in schema '%s'", path, q.schema.Entity()))
	}

	// A field is searchable only when it and every enclosing object are indexed.
	parts := strings.Split(path, ".")
	for i := range parts {
		enclosing, _, _ := q.schema.ResolvePath(q.resolver, strings.Join(parts[:i+1], "."))
		if !enclosing.IsIndexed() {
			return "", def, schema.ValidationError(path, fmt.Sprintf("field '%s' is not indexed", path))
		}
	}
	return "@" + escapeFieldName(storage), def, nil
}

func (q *SearchQuery) buildCondition(c query.FilterCondition) (string, error) {
	field, def, err := q.resolveField(c.Field)
	if err != nil {
		return "", err
	}

	switch def.Type {
	case schema.FieldTypeString, schema.FieldTypeStringArray:
		return q.tagCondition(field, c)
	case schema.FieldTypeBoolean:
		return q.booleanCondition(field, c)
	case schema.FieldTypeNumber, schema.FieldTypeDate:
		return q.numericCondition(field, c)
	case schema.FieldTypeText:
		return q.textCondition(field, c)
	case schema.FieldTypePoint:
		return q.geoCondition(field, c)
	default:
		return "", schema.ValidationError(c.Field, fmt.Sprintf("%s fields cannot be searched", def.Type))
	}
}

func unsupported(c query.FilterCondition, def string) error {
	return schema.ValidationError(c.Field, fmt.Sprintf("operator '%s' is not supported on %s fields", c.Operator, def))
}

func (q *SearchQuery) tagCondition(field string, c query.FilterCondition) (string, error) {
	switch c.Operator {
	case query.ComparisonOperatorEq, query.ComparisonOperatorContains:
		return fmt.Sprintf("%s:{%s}", field, escapeTag(stringValue(c.Value))), nil
	case query.ComparisonOperatorNeq:
		return fmt.Sprintf("-%s:{%s}", field, escapeTag(stringValue(c.Value))), nil
	case query.ComparisonOperatorIn, query.ComparisonOperatorNin:
		values, err := listValue(c)
		if err != nil {
			return "", err
		}
		tags := make([]string, len(values))
		for i, v := range values {
			tags[i] = escapeTag(stringValue(v))
		}
		clause := fmt.Sprintf("%s:{%s}", field, strings.Join(tags, " | "))
		if c.Operator == query.ComparisonOperatorNin {
			clause = "-" + clause
		}
		return clause, nil
	default:
		return "", unsupported(c, "tag")
	}
}

func (q *SearchQuery) booleanCondition(field string, c query.FilterCondition) (string, error) {
	b, ok := c.Value.(bool)
	if !ok {
		return "", schema.ValidationError(c.Field, fmt.Sprintf("expected a boolean but received '%v'", c.Value))
	}

	var tag string
	switch {
	case q.schema.DataStructure() == schema.DataStructureHash && b:
		tag = "1"
	case q.schema.DataStructure() == schema.DataStructureHash:
		tag = "0"
	default:
		tag = strconv.FormatBool(b)
	}

	switch c.Operator {
	case query.ComparisonOperatorEq:
		return fmt.Sprintf("%s:{%s}", field, tag), nil
	case query.ComparisonOperatorNeq:
		return fmt.Sprintf("-%s:{%s}", field, tag), nil
	default:
		return "", unsupported(c, "boolean")
	}
}

func (q *SearchQuery) numericCondition(field string, c query.FilterCondition) (string, error) {
	if c.Operator == query.ComparisonOperatorBetween {
		r, ok := c.Value.(query.Range)
		if !ok {
			return "", schema.ValidationError(c.Field, "between expects a query.Range")
		}
		from, err := numericValue(c.Field, r.From)
		if err != nil {
			return "", err
		}
		to, err := numericValue(c.Field, r.To)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:[%s %s]", field, from, to), nil
	}

	if c.Operator == query.ComparisonOperatorIn || c.Operator == query.ComparisonOperatorNin {
		values, err := listValue(c)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			n, err := numericValue(c.Field, v)
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%s:[%s %s]", field, n, n)
		}
		clause := "( " + strings.Join(parts, " | ") + " )"
		if c.Operator == query.ComparisonOperatorNin {
			clause = "-" + clause
		}
		return clause, nil
	}

	n, err := numericValue(c.Field, c.Value)
	if err != nil {
		return "", err
	}
	switch c.Operator {
	case query.ComparisonOperatorEq:
		return fmt.Sprintf("%s:[%s %s]", field, n, n), nil
	case query.ComparisonOperatorNeq:
		return fmt.Sprintf("-%s:[%s %s]", field, n, n), nil
	case query.ComparisonOperatorLt:
		return fmt.Sprintf("%s:[-inf (%s]", field, n), nil
	case query.ComparisonOperatorLte:
		return fmt.Sprintf("%s:[-inf %s]", field, n), nil
	case query.ComparisonOperatorGt:
		return fmt.Sprintf("%s:[(%s +inf]", field, n), nil
	case query.ComparisonOperatorGte:
		return fmt.Sprintf("%s:[%s +inf]", field, n), nil
	default:
		return "", unsupported(c, "numeric")
	}
}

func (q *SearchQuery) textCondition(field string, c query.FilterCondition) (string, error) {
	value := stringValue(c.Value)
	switch c.Operator {
	case query.ComparisonOperatorContains:
		return fmt.Sprintf("%s:(%s)", field, escapeText(value)), nil
	case query.ComparisonOperatorEq, query.ComparisonOperatorMatch:
		return fmt.Sprintf(`%s:"%s"`, field, escapePhrase(value)), nil
	case query.ComparisonOperatorNeq:
		return fmt.Sprintf(`-%s:"%s"`, field, escapePhrase(value)), nil
	default:
		return "", unsupported(c, "text")
	}
}

func (q *SearchQuery) geoCondition(field string, c query.FilterCondition) (string, error) {
	if c.Operator != query.ComparisonOperatorWithin {
		return "", unsupported(c, "point")
	}
	g, ok := c.Value.(query.GeoRadius)
	if !ok {
		return "", schema.ValidationError(c.Field, "within expects a query.GeoRadius")
	}
	unit := g.Unit
	if unit == "" {
		unit = query.UnitMeters
	}
	switch unit {
	case query.UnitMeters, query.UnitKilometers, query.UnitMiles, query.UnitFeet:
	default:
		return "", schema.ValidationError(c.Field, fmt.Sprintf("unknown distance unit '%s'", unit))
	}
	if !(entity.Point{Longitude: g.Longitude, Latitude: g.Latitude}).Valid() {
		return "", schema.ValidationError(c.Field, fmt.Sprintf("point %v,%v is out of bounds", g.Longitude, g.Latitude))
	}
	return fmt.Sprintf("%s:[%s %s %s %s]", field,
		formatNumber(g.Longitude), formatNumber(g.Latitude), formatNumber(g.Radius), unit), nil
}

func listValue(c query.FilterCondition) ([]query.FilterValue, error) {
	switch v := c.Value.(type) {
	case []query.FilterValue:
		if len(v) == 0 {
			break
		}
		return v, nil
	case []string:
		if len(v) == 0 {
			break
		}
		out := make([]query.FilterValue, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	default:
		return []query.FilterValue{v}, nil
	}
	return nil, schema.ValidationError(c.Field, fmt.Sprintf("operator '%s' needs at least one value", c.Operator))
}

func numericValue(field string, v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return strconv.FormatInt(t.Unix(), 10), nil
	case *time.Time:
		if t != nil {
			return strconv.FormatInt(t.Unix(), 10), nil
		}
	default:
		if f, ok := query.ToFloat64(v); ok {
			return formatNumber(f), nil
		}
	}
	return "", schema.ValidationError(field, fmt.Sprintf("expected a number but received '%v'", v))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
