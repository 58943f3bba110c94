package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

var sqlColumns = map[Field]string{
	FieldID:          "id",
	FieldCompany:     "company",
	FieldDescription: "description",
	FieldEngine:      "engine",
	FieldColor:       "color",
	FieldMileage:     "mileage",
	FieldPrice:       "price",
	FieldImage:       "image",
	FieldCreatedAt:   "created_at",
	FieldOwner:       "owner_id",
	FieldCar:         "car_id",
	FieldViewer:      "viewer_id",
	FieldIP:          "ip",
	FieldCount:       "count",
}

// SQLColumn returns the quoted column name for f.
func SQLColumn(f Field) (string, error) {
	c, ok := sqlColumns[f]
	if !ok {
		return "", fmt.Errorf("query: no column for field %q", f)
	}
	return pq.QuoteIdentifier(c), nil
}

// SQLBuilder accumulates positional arguments while compiling.
type SQLBuilder struct {
	Args []any
}

func (b *SQLBuilder) arg(v any) string {
	b.Args = append(b.Args, v)
	return "$" + strconv.Itoa(len(b.Args))
}

// Where compiles p into a boolean SQL expression.
func (b *SQLBuilder) Where(p Predicate) (string, error) {
	switch v := p.(type) {
	case nil:
		return "TRUE", nil
	case And:
		return b.join(v, " AND ", "TRUE")
	case Or:
		return b.join(v, " OR ", "FALSE")
	case Contains:
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, col, b.arg("%"+escapeLike(v.Value)+"%")), nil
	case EqualFold:
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, b.arg(v.Value)), nil
	case InFold:
		if len(v.Values) == 0 {
			return "FALSE", nil
		}
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		lowered := make([]string, len(v.Values))
		for i, s := range v.Values {
			lowered[i] = strings.ToLower(s)
		}
		return fmt.Sprintf("LOWER(%s) = ANY(%s)", col, b.arg(pq.Array(lowered))), nil
	case Range:
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		var parts []string
		if v.Min != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", col, b.arg(*v.Min)))
		}
		if v.Max != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", col, b.arg(*v.Max)))
		}
		if len(parts) == 0 {
			return "TRUE", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case Since:
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s >= %s", col, b.arg(v.Time)), nil
	case Equal:
		col, err := SQLColumn(v.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", col, b.arg(v.Value)), nil
	case IDIn:
		return fmt.Sprintf(`"id" = ANY(%s)`, b.arg(pq.Array([]string(v)))), nil
	case NotID:
		return fmt.Sprintf(`"id" <> %s`, b.arg(string(v))), nil
	default:
		return "", fmt.Errorf("query: unsupported predicate %T", p)
	}
}

func (b *SQLBuilder) join(ps []Predicate, sep, empty string) (string, error) {
	if len(ps) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		s, err := b.Where(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// OrderBy compiles sort keys into an ORDER BY clause, or "" when empty.
func OrderBy(keys []SortKey) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := SQLColumn(k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Dir == Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SQLPlan compiles a plan into a single SELECT. Each stage wraps the
// previous one as a subquery; the latest sort is re-applied outermost so
// joins do not lose the order.
func SQLPlan(p *Plan) (string, []any, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}
	b := &SQLBuilder{}
	q := "SELECT * FROM " + pq.QuoteIdentifier(string(p.Source))
	var order []SortKey
	ordered := false
	// extra holds the aggregate columns a join must carry over.
	var extra []string
	level := 0
	wrap := func() string {
		level++
		return fmt.Sprintf("(%s) AS s%d", q, level)
	}
	for _, s := range p.Stages {
		switch st := s.(type) {
		case Filter:
			cond, err := b.Where(st.Predicate)
			if err != nil {
				return "", nil, err
			}
			q = "SELECT * FROM " + wrap() + " WHERE " + cond
			ordered = false
		case GroupCount:
			col, err := SQLColumn(st.By)
			if err != nil {
				return "", nil, err
			}
			q = fmt.Sprintf(`SELECT %s AS "id", COUNT(*) AS "count" FROM %s GROUP BY %s`, col, wrap(), col)
			extra = []string{`"count"`}
			order, ordered = nil, false
		case Sort:
			order = []SortKey(st)
			ob, err := OrderBy(order)
			if err != nil {
				return "", nil, err
			}
			q = "SELECT * FROM " + wrap() + ob
			ordered = true
		case Limit:
			ob, err := OrderBy(order)
			if err != nil {
				return "", nil, err
			}
			q = "SELECT * FROM " + wrap() + ob + " LIMIT " + b.arg(int64(st))
			ordered = true
		case Join:
			src := wrap()
			alias := fmt.Sprintf("s%d", level)
			cols := "j.*"
			for _, c := range extra {
				cols += ", " + alias + "." + c
			}
			q = fmt.Sprintf(`SELECT %s FROM %s JOIN %s AS j ON j."id" = %s."id"`,
				cols, src, pq.QuoteIdentifier(string(st.From)), alias)
			ordered = false
		default:
			return "", nil, fmt.Errorf("query: unsupported stage %T", s)
		}
	}
	if len(order) > 0 && !ordered {
		ob, err := OrderBy(order)
		if err != nil {
			return "", nil, err
		}
		q = "SELECT * FROM " + wrap() + ob
	}
	return q, b.Args, nil
}
