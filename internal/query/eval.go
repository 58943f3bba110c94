package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Row is a flat record for in-memory evaluation.
type Row map[Field]any

// Match reports whether r satisfies p.
func Match(p Predicate, r Row) bool {
	switch v := p.(type) {
	case nil:
		return true
	case And:
		for _, t := range v {
			if !Match(t, r) {
				return false
			}
		}
		return true
	case Or:
		for _, t := range v {
			if Match(t, r) {
				return true
			}
		}
		return false
	case Contains:
		s, _ := r[v.Field].(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(v.Value))
	case EqualFold:
		s, _ := r[v.Field].(string)
		return strings.EqualFold(s, v.Value)
	case InFold:
		s, _ := r[v.Field].(string)
		for _, want := range v.Values {
			if strings.EqualFold(s, want) {
				return true
			}
		}
		return false
	case Range:
		n, ok := toInt64(r[v.Field])
		if !ok {
			return v.Min == nil && v.Max == nil
		}
		if v.Min != nil && n < *v.Min {
			return false
		}
		if v.Max != nil && n > *v.Max {
			return false
		}
		return true
	case Since:
		t, _ := r[v.Field].(time.Time)
		return !t.Before(v.Time)
	case Equal:
		return compareValues(r[v.Field], v.Value) == 0
	case IDIn:
		id, _ := r[FieldID].(string)
		for _, want := range v {
			if id == want {
				return true
			}
		}
		return false
	case NotID:
		id, _ := r[FieldID].(string)
		return id != string(v)
	default:
		return false
	}
}

// SortRows stably sorts rows by keys.
func SortRows(rows []Row, keys []SortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.Field], rows[j][k.Field])
			if c == 0 {
				continue
			}
			if k.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Lookup resolves a joined document by collection and identifier.
type Lookup func(from Collection, id string) (Row, bool)

// Run evaluates a plan over the rows of its source collection.
func Run(p *Plan, rows []Row, lookup Lookup) ([]Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cur := append([]Row(nil), rows...)
	for _, s := range p.Stages {
		switch st := s.(type) {
		case Filter:
			kept := cur[:0:0]
			for _, r := range cur {
				if Match(st.Predicate, r) {
					kept = append(kept, r)
				}
			}
			cur = kept
		case GroupCount:
			var order []any
			counts := map[any]int64{}
			for _, r := range cur {
				k := r[st.By]
				if _, seen := counts[k]; !seen {
					order = append(order, k)
				}
				counts[k]++
			}
			grouped := make([]Row, 0, len(order))
			for _, k := range order {
				grouped = append(grouped, Row{FieldID: k, FieldCount: counts[k]})
			}
			cur = grouped
		case Sort:
			SortRows(cur, st)
		case Limit:
			if int64(len(cur)) > int64(st) {
				cur = cur[:st]
			}
		case Join:
			if lookup == nil {
				return nil, fmt.Errorf("query: join without lookup")
			}
			joined := make([]Row, 0, len(cur))
			for _, r := range cur {
				id, _ := r[FieldID].(string)
				doc, ok := lookup(st.From, id)
				if !ok {
					continue
				}
				merged := make(Row, len(doc)+len(r))
				for k, v := range doc {
					merged[k] = v
				}
				for k, v := range r {
					merged[k] = v
				}
				joined = append(joined, merged)
			}
			cur = joined
		default:
			return nil, fmt.Errorf("query: unsupported stage %T", s)
		}
	}
	return cur, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func compareValues(a, b any) int {
	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return 0
}
