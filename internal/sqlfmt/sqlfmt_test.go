package sqlfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteString(t *testing.T) {
	assert.Equal(t, "'hello'", QuoteString("hello"))
	assert.Equal(t, "''", QuoteString(""))
	assert.Equal(t, "'O''Brien'", QuoteString("O'Brien"))
	assert.Equal(t, "'it''s ''quoted'''", QuoteString("it's 'quoted'"))
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "draft", "'draft'"},
		{"string with quote", "can't", "'can''t'"},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"int", 42, "42"},
		{"negative int", -7, "-7"},
		{"float", 2.5, "2.5"},
		{"raw", Raw("CURRENT_TIMESTAMP"), "CURRENT_TIMESTAMP"},
		{"bytes", []byte("ab"), "'ab'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestLiteralTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "'2024-03-09 12:30:45'", Literal(ts))
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "users_email", IndexName("users", "email"))
	assert.Equal(t, "orders_user_id_status", IndexName("orders", "user_id", "status"))
}

func TestForeignKeyName(t *testing.T) {
	assert.Equal(t, "fk_posts_user_id", ForeignKeyName("posts", "user_id"))
}

func TestColumnList(t *testing.T) {
	assert.Equal(t, "a, b, c", ColumnList([]string{"a", "b", "c"}))
	assert.Equal(t, "id", ColumnList([]string{"id"}))
}
