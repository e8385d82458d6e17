package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

type field struct {
	column string
	value  any
}

// fieldsOf reads exported struct fields tagged with `db`, in declaration order.
func fieldsOf(model any) ([]field, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	out := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(sf.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		out = append(out, field{column: col, value: v.Field(i).Interface()})
	}
	if len(out) == 0 {
		return nil, ErrMissingColumns
	}
	return out, nil
}

// Columns lists the db columns of a model, for explicit select lists.
func Columns(model any) []string {
	fields, err := fieldsOf(model)
	if err != nil {
		return nil
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

type InsertBuilder struct {
	table     string
	model     any
	conflict  []string
	keep      map[string]struct{}
	doNothing bool
	returning []string
}

func Insert(table string, model any) *InsertBuilder {
	return &InsertBuilder{table: table, model: model}
}

// OnConflict turns the insert into an upsert on the given key: every other column is
// overwritten from EXCLUDED unless listed in Keep.
func (b *InsertBuilder) OnConflict(columns ...string) *InsertBuilder {
	b.conflict = append([]string(nil), columns...)
	return b
}

// Keep leaves the stored value of these columns untouched on conflict.
func (b *InsertBuilder) Keep(columns ...string) *InsertBuilder {
	if b.keep == nil {
		b.keep = make(map[string]struct{}, len(columns))
	}
	for _, c := range columns {
		b.keep[c] = struct{}{}
	}
	return b
}

func (b *InsertBuilder) DoNothing() *InsertBuilder {
	b.doNothing = true
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, ErrMissingTable
	}
	fields, err := fieldsOf(b.model)
	if err != nil {
		return "", nil, err
	}

	var (
		buf          strings.Builder
		args         argList
		cols         = make([]string, len(fields))
		placeholders = make([]string, len(fields))
	)
	for i, f := range fields {
		cols[i] = f.column
		placeholders[i] = args.bind(f.value)
	}

	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(cols, ", "))
	buf.WriteString(") VALUES (")
	buf.WriteString(strings.Join(placeholders, ", "))
	buf.WriteString(")")

	if len(b.conflict) > 0 {
		buf.WriteString(" ON CONFLICT (")
		buf.WriteString(strings.Join(b.conflict, ", "))
		buf.WriteString(")")

		updates := b.conflictUpdates(cols)
		if b.doNothing || len(updates) == 0 {
			buf.WriteString(" DO NOTHING")
		} else {
			buf.WriteString(" DO UPDATE SET ")
			buf.WriteString(strings.Join(updates, ", "))
		}
	}
	if len(b.returning) > 0 {
		buf.WriteString(" RETURNING ")
		buf.WriteString(strings.Join(b.returning, ", "))
	}
	return buf.String(), args.values, nil
}

func (b *InsertBuilder) conflictUpdates(cols []string) []string {
	key := make(map[string]struct{}, len(b.conflict))
	for _, c := range b.conflict {
		key[c] = struct{}{}
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := key[c]; ok {
			continue
		}
		if _, ok := b.keep[c]; ok {
			continue
		}
		out = append(out, c+" = EXCLUDED."+c)
	}
	return out
}
