// Package querybuilder renders small postgres statements with numbered placeholders.
package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMissingTable   = errors.New("table is required")
	ErrMissingColumns = errors.New("columns are required")
)

// argList numbers placeholders in the order values are bound.
type argList struct {
	values []any
}

func (a *argList) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

type Condition interface {
	render(buf *strings.Builder, args *argList)
}

type conditionFunc func(buf *strings.Builder, args *argList)

func (f conditionFunc) render(buf *strings.Builder, args *argList) { f(buf, args) }

func Eq(column string, value any) Condition {
	return conditionFunc(func(buf *strings.Builder, args *argList) {
		buf.WriteString(column)
		buf.WriteString(" = ")
		buf.WriteString(args.bind(value))
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(buf *strings.Builder, _ *argList) {
		buf.WriteString(column)
		buf.WriteString(" IS NULL")
	})
}

// Expr inlines a raw fragment, replacing each '?' with the next bound value.
func Expr(expr string, values ...any) Condition {
	return conditionFunc(func(buf *strings.Builder, args *argList) {
		next := 0
		for i := 0; i < len(expr); i++ {
			if expr[i] == '?' && next < len(values) {
				buf.WriteString(args.bind(values[next]))
				next++
				continue
			}
			buf.WriteByte(expr[i])
		}
	})
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, ErrMissingTable
	}
	if len(b.columns) == 0 {
		return "", nil, ErrMissingColumns
	}

	var (
		buf  strings.Builder
		args argList
	)
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	for i, c := range b.where {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		c.render(&buf, &args)
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return buf.String(), args.values, nil
}
