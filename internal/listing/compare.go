package listing

import (
	"cmp"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006-01"}

// Compare orders two field values: numbers numerically, dates
// chronologically, everything else as case-insensitive text. nil sorts
// before any value.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}
	if x, ok := date(a); ok {
		if y, ok := date(b); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(strings.ToLower(Text(a)), strings.ToLower(Text(b)))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func date(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Text renders a field value the way filters see it.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// Equals matches values whose text equals want, ignoring case.
func Equals(want string) Matcher {
	return func(v any) bool { return strings.EqualFold(Text(v), want) }
}

// Contains matches values whose text contains sub, ignoring case.
func Contains(sub string) Matcher {
	sub = strings.ToLower(sub)
	return func(v any) bool { return strings.Contains(strings.ToLower(Text(v)), sub) }
}

// OneOf matches values equal to any of wants, ignoring case.
func OneOf(wants ...string) Matcher {
	return func(v any) bool {
		s := Text(v)
		for _, w := range wants {
			if strings.EqualFold(s, w) {
				return true
			}
		}
		return false
	}
}

// Bool matches boolean fields.
func Bool(want bool) Matcher {
	return func(v any) bool {
		b, ok := v.(bool)
		return ok && b == want
	}
}

// SearchField is the conventional field name for free-text search.
const SearchField = "search"

// SpecFromQuery builds a Spec from list query parameters:
//
//	?status=occupied&floor=2,3&search=smith&sort=rent&order=desc
//
// Only parameters named in filterable become filters; comma-separated
// values match any of them. "search" becomes a Contains filter on the
// search field.
func SpecFromQuery(q url.Values, filterable ...string) Spec {
	spec := Spec{Filters: map[string]Matcher{}}
	for _, name := range filterable {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" || strings.EqualFold(raw, "all") {
			continue
		}
		if strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			spec.Filters[name] = OneOf(parts...)
			continue
		}
		spec.Filters[name] = Equals(raw)
	}
	if s := strings.TrimSpace(q.Get(SearchField)); s != "" {
		spec.Filters[SearchField] = Contains(s)
	}
	spec.SortKey = strings.TrimSpace(q.Get("sort"))
	spec.Desc = strings.EqualFold(q.Get("order"), "desc")
	return spec
}
