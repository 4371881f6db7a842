// Package filter converts query string parameters into where conditions, in the style of
// django orm filters: name=john, age__gte=30 and gender__in=male,female.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
)

type Operator string

const (
	Equal              Operator = "="
	GreaterThan        Operator = ">"
	GreaterThanOrEqual Operator = ">="
	LessThan           Operator = "<"
	LessThanOrEqual    Operator = "<="
	In                 Operator = "IN"
	NotEqual           Operator = "<>"
	NotIn              Operator = "NOT IN"
)

const splitter = "__"

var operators = map[string]Operator{
	"gt":  GreaterThan,
	"gte": GreaterThanOrEqual,
	"lt":  LessThan,
	"lte": LessThanOrEqual,
	"=":   Equal,
	"in":  In,
	"ne":  NotEqual,
	"nin": NotIn,
}

// Condition restricts Field. In and NotIn conditions carry Values; all others carry Value.
type Condition struct {
	Field    string
	Operator Operator
	Value    string
	Values   []string
}

func (c Condition) IsList() bool {
	return c.Operator == In || c.Operator == NotIn
}

func (c Condition) key() string {
	if c.IsList() {
		return string(c.Operator) + "\x00" + strings.Join(c.Values, ",")
	}
	return string(c.Operator) + "\x00" + c.Value
}

// UrlQueryFilter holds the set of conditions on each field named in a query string.
type UrlQueryFilter struct {
	conditions map[string]map[string]Condition
}

// NewUrlQueryFilter parses params. A parameter named field__op uses operator op, any other parameter is an
// equality condition. Unknown operators are rejected.
func NewUrlQueryFilter(params url.Values) (*UrlQueryFilter, error) {
	f := &UrlQueryFilter{conditions: map[string]map[string]Condition{}}
	for k, vs := range params {
		field, op := k, "="
		if strings.Contains(k, splitter) {
			parts := strings.SplitN(k, splitter, 2)
			field, op = parts[0], parts[1]
		}
		operator, ok := operators[op]
		if !ok {
			return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
				Name:    k,
				Value:   op,
				Message: op + " is not a supported operator",
			})
		}
		for _, v := range vs {
			condition := Condition{Field: field, Operator: operator}
			if condition.IsList() {
				condition.Values = strings.Split(v, ",")
			} else {
				condition.Value = v
			}
			f.add(condition)
		}
	}
	return f, nil
}

func (f *UrlQueryFilter) add(c Condition) {
	if _, ok := f.conditions[c.Field]; !ok {
		f.conditions[c.Field] = map[string]Condition{}
	}
	f.conditions[c.Field][c.key()] = c
}

// Set replaces every condition on field with a single condition.
func (f *UrlQueryFilter) Set(c Condition) {
	f.Delete(c.Field)
	f.add(c)
}

// Has reports whether any condition on key exists.
func (f *UrlQueryFilter) Has(key string) bool {
	_, ok := f.conditions[key]
	return ok
}

// Get returns the value of the single equality condition on key.
func (f *UrlQueryFilter) Get(key string) (string, error) {
	conditions, ok := f.conditions[key]
	if !ok {
		return "", errors.WithStack(&ingesterrors.ErrNotFound{Type: "filter", Value: key})
	}
	if len(conditions) == 1 {
		for _, c := range conditions {
			if c.Operator == Equal {
				return c.Value, nil
			}
		}
	}
	return "", errors.WithStack(&ingesterrors.ErrInvalidArgument{
		Name:    key,
		Value:   f.describe(key),
		Message: "expected a single value",
	})
}

// GetOrDefault is like Get but returns def when there is no condition on key.
func (f *UrlQueryFilter) GetOrDefault(key string, def string) (string, error) {
	if !f.Has(key) {
		return def, nil
	}
	return f.Get(key)
}

// Delete removes every condition on key.
func (f *UrlQueryFilter) Delete(key string) {
	delete(f.conditions, key)
}

// Pop returns the value of key like GetOrDefault and removes it from the filter.
func (f *UrlQueryFilter) Pop(key string, def string) (string, error) {
	value, err := f.GetOrDefault(key, def)
	if err != nil {
		return "", err
	}
	f.Delete(key)
	return value, nil
}

// Conditions returns every condition ordered by field, operator and value.
func (f *UrlQueryFilter) Conditions() []Condition {
	var result []Condition
	for _, byKey := range f.conditions {
		for _, c := range byKey {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Field != result[j].Field {
			return result[i].Field < result[j].Field
		}
		return result[i].key() < result[j].key()
	})
	return result
}

func (f *UrlQueryFilter) describe(key string) string {
	var parts []string
	for _, c := range f.Conditions() {
		if c.Field != key {
			continue
		}
		if c.IsList() {
			parts = append(parts, string(c.Operator)+" "+strings.Join(c.Values, ","))
		} else {
			parts = append(parts, string(c.Operator)+" "+c.Value)
		}
	}
	return strings.Join(parts, "; ")
}
