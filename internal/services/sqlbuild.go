package services

import (
	"fmt"
	"strings"
)

// UpdateBuilder assembles a parameterized partial UPDATE from the fields that
// were actually present in a request payload. Column names come from code,
// never from user input; values are always bound parameters.
type UpdateBuilder struct {
	sets []string
	args []interface{}
}

func NewUpdate() *UpdateBuilder {
	return &UpdateBuilder{}
}

// Set adds an assignment unconditionally.
func (b *UpdateBuilder) Set(column string, value interface{}) *UpdateBuilder {
	b.sets = append(b.sets, column)
	b.args = append(b.args, value)
	return b
}

// SetString adds an assignment only when the payload carried the field.
func (b *UpdateBuilder) SetString(column string, value *string) *UpdateBuilder {
	if value != nil {
		b.Set(column, *value)
	}
	return b
}

func (b *UpdateBuilder) SetInt(column string, value *int) *UpdateBuilder {
	if value != nil {
		b.Set(column, *value)
	}
	return b
}

func (b *UpdateBuilder) SetBool(column string, value *bool) *UpdateBuilder {
	if value != nil {
		b.Set(column, *value)
	}
	return b
}

// Empty reports whether no assignments have been added.
func (b *UpdateBuilder) Empty() bool {
	return len(b.sets) == 0
}

// Build renders `UPDATE table SET ... WHERE idColumn = $n` with positional
// placeholders. The id is the final bound argument.
func (b *UpdateBuilder) Build(table, idColumn string, id interface{}) (string, []interface{}) {
	clauses := make([]string, 0, len(b.sets))
	for i, column := range b.sets {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, i+1))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(clauses, ", "), idColumn, len(b.sets)+1)
	args := append(append([]interface{}{}, b.args...), id)
	return query, args
}
