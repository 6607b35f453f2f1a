// Package odata builds OData query strings and walks paged collections.
package odata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/m365/protocol"
)

// defaultMapping translates common attribute shorthands into the nested
// paths the service filters on.
var defaultMapping = map[string]string{
	"from":  "from/emailAddress/address",
	"to":    "toRecipients/emailAddress/address",
	"start": "start/dateTime",
	"end":   "end/dateTime",
}

type orderClause struct {
	attribute  string
	descending bool
}

// Query is a fluent builder for $filter, $orderby, $select, $expand,
// $search and $top. Attributes are cased per the protocol dialect, so the
// same query works against Graph and the legacy Office 365 API.
//
// Conditions target the attribute set by the latest On call and are joined
// with "and" unless Or was called:
//
//	q := odata.NewQuery(proto).
//		On("subject").Contains("invoice").
//		Or().On("importance").Equals("high")
type Query struct {
	proto   *protocol.Protocol
	mapping map[string]string

	attribute string
	tokens    []string
	chainOp   string
	needChain bool
	negate    bool

	filtered []string
	orderBy  []orderClause
	selects  []string
	expands  []string
	search   string
	top      int
}

// NewQuery returns an empty query for the given dialect.
func NewQuery(proto *protocol.Protocol) *Query {
	return &Query{
		proto:   proto,
		mapping: defaultMapping,
		chainOp: "and",
	}
}

// WithMapping replaces the attribute shorthand mapping.
func (q *Query) WithMapping(mapping map[string]string) *Query {
	q.mapping = mapping
	return q
}

// On selects the attribute the next conditions apply to. Shorthands such as
// "from" or "start" expand to their nested paths.
func (q *Query) On(attribute string) *Query {
	q.attribute = q.normalize(attribute)
	return q
}

// And joins the next condition with "and". This is the default.
func (q *Query) And() *Query {
	q.chainOp = "and"
	return q
}

// Or joins the next condition with "or".
func (q *Query) Or() *Query {
	q.chainOp = "or"
	return q
}

// Not negates the next condition.
func (q *Query) Not() *Query {
	q.negate = true
	return q
}

// OpenGroup starts a parenthesised group of conditions.
func (q *Query) OpenGroup() *Query {
	if q.needChain {
		q.tokens = append(q.tokens, q.chainOp)
		q.chainOp = "and"
		q.needChain = false
	}
	q.tokens = append(q.tokens, "(")
	return q
}

// CloseGroup ends the current parenthesised group.
func (q *Query) CloseGroup() *Query {
	if n := len(q.tokens); n > 0 {
		q.tokens[n-1] += ")"
	}
	q.needChain = true
	return q
}

// Equals adds an equality condition on the current attribute.
func (q *Query) Equals(value any) *Query { return q.comparison("eq", value) }

// NotEquals adds an inequality condition on the current attribute.
func (q *Query) NotEquals(value any) *Query { return q.comparison("ne", value) }

// Greater adds a strictly-greater condition on the current attribute.
func (q *Query) Greater(value any) *Query { return q.comparison("gt", value) }

// GreaterEqual adds a greater-or-equal condition on the current attribute.
func (q *Query) GreaterEqual(value any) *Query { return q.comparison("ge", value) }

// Less adds a strictly-less condition on the current attribute.
func (q *Query) Less(value any) *Query { return q.comparison("lt", value) }

// LessEqual adds a less-or-equal condition on the current attribute.
func (q *Query) LessEqual(value any) *Query { return q.comparison("le", value) }

// Contains adds a contains() function condition on the current attribute.
func (q *Query) Contains(value string) *Query { return q.function("contains", value) }

// StartsWith adds a startswith() function condition on the current attribute.
func (q *Query) StartsWith(value string) *Query { return q.function("startswith", value) }

// EndsWith adds an endswith() function condition on the current attribute.
func (q *Query) EndsWith(value string) *Query { return q.function("endswith", value) }

// AnyOf adds a lambda condition matching when any element of a collection
// satisfies it, e.g. AnyOf("categories", "name", "eq", "urgent") produces
// categories/any(a:a/name eq 'urgent'). Function names such as "contains"
// are accepted as the operator.
func (q *Query) AnyOf(collection, attribute, operator string, value any) *Query {
	return q.lambda("any", collection, attribute, operator, value)
}

// AllOf adds a lambda condition matching when every element of a collection
// satisfies it.
func (q *Query) AllOf(collection, attribute, operator string, value any) *Query {
	return q.lambda("all", collection, attribute, operator, value)
}

// OrderBy adds an ordering clause.
func (q *Query) OrderBy(attribute string, ascending bool) *Query {
	q.orderBy = append(q.orderBy, orderClause{
		attribute:  q.normalize(attribute),
		descending: !ascending,
	})
	return q
}

// Select limits the returned attributes. Nested paths collapse to their
// top-level attribute, since $select only accepts those.
func (q *Query) Select(attributes ...string) *Query {
	for _, attribute := range attributes {
		normalized := q.normalize(attribute)
		if idx := strings.IndexByte(normalized, '/'); idx >= 0 {
			normalized = normalized[:idx]
		}
		q.selects = append(q.selects, normalized)
	}
	return q
}

// Expand includes related entities in the response.
func (q *Query) Expand(relationships ...string) *Query {
	for _, rel := range relationships {
		q.expands = append(q.expands, q.normalize(rel))
	}
	return q
}

// Search sets a full-text $search term.
func (q *Query) Search(term string) *Query {
	q.search = term
	return q
}

// Top caps the page size, bounded by the dialect's maximum.
func (q *Query) Top(n int) *Query {
	if n > q.proto.MaxTop {
		n = q.proto.MaxTop
	}
	q.top = n
	return q
}

// Values renders the query as URL parameters. Ordering attributes that also
// appear in the filter are moved to the front of $orderby, which the service
// requires.
func (q *Query) Values() url.Values {
	params := url.Values{}

	if len(q.tokens) > 0 {
		params.Set("$filter", strings.Join(q.tokens, " "))
	}
	if clause := q.renderOrderBy(); clause != "" {
		params.Set("$orderby", clause)
	}
	if len(q.selects) > 0 {
		params.Set("$select", strings.Join(dedupe(q.selects), ","))
	}
	if len(q.expands) > 0 {
		params.Set("$expand", strings.Join(dedupe(q.expands), ","))
	}
	if q.search != "" {
		params.Set("$search", strconv.Quote(q.search))
	}
	if q.top > 0 {
		params.Set("$top", strconv.Itoa(q.top))
	}
	return params
}

func (q *Query) renderOrderBy() string {
	if len(q.orderBy) == 0 {
		return ""
	}

	isFiltered := make(map[string]bool, len(q.filtered))
	for _, attr := range q.filtered {
		isFiltered[attr] = true
	}

	var leading, trailing []string
	for _, clause := range q.orderBy {
		rendered := clause.attribute
		if clause.descending {
			rendered += " desc"
		}
		if isFiltered[clause.attribute] {
			leading = append(leading, rendered)
		} else {
			trailing = append(trailing, rendered)
		}
	}
	return strings.Join(append(leading, trailing...), ",")
}

func (q *Query) comparison(operator string, value any) *Query {
	q.appendCondition(fmt.Sprintf("%s %s %s", q.attribute, operator, renderValue(value)))
	return q
}

func (q *Query) function(name, value string) *Query {
	q.appendCondition(fmt.Sprintf("%s(%s, %s)", name, q.attribute, renderValue(value)))
	return q
}

func (q *Query) lambda(kind, collection, attribute, operator string, value any) *Query {
	collection = q.normalize(collection)
	item := "a/" + q.normalize(attribute)

	var inner string
	switch operator {
	case "contains", "startswith", "endswith":
		inner = fmt.Sprintf("%s(%s, %s)", operator, item, renderValue(value))
	default:
		inner = fmt.Sprintf("%s %s %s", item, operator, renderValue(value))
	}

	cond := fmt.Sprintf("%s/%s(a:%s)", collection, kind, inner)
	q.attribute = collection
	q.appendCondition(cond)
	return q
}

func (q *Query) appendCondition(cond string) {
	if q.negate {
		cond = "not " + cond
		q.negate = false
	}
	if q.needChain {
		q.tokens = append(q.tokens, q.chainOp)
		q.chainOp = "and"
	} else if n := len(q.tokens); n > 0 && strings.HasSuffix(q.tokens[n-1], "(") && !strings.Contains(q.tokens[n-1], " ") {
		q.tokens[n-1] += cond
		q.needChain = true
		q.filtered = append(q.filtered, q.attribute)
		return
	}
	q.tokens = append(q.tokens, cond)
	q.needChain = true
	q.filtered = append(q.filtered, q.attribute)
}

func (q *Query) normalize(attribute string) string {
	if mapped, ok := q.mapping[strings.ToLower(attribute)]; ok {
		attribute = mapped
	}
	parts := strings.Split(attribute, "/")
	for i := range parts {
		parts[i] = q.proto.ConvertCase(parts[i])
	}
	return strings.Join(parts, "/")
}

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05Z")
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; !ok {
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}
