package s3select

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key      string
		wantPath []string
		wantOp   Op
		wantErr  error
	}{
		{"uuid", []string{"uuid"}, OpEq, nil},
		{"contact__uuid", []string{"contact", "uuid"}, OpEq, nil},
		{"created_on__gte", []string{"created_on"}, OpGte, nil},
		{"flow__uuid__in", []string{"flow", "uuid"}, OpIn, nil},
		{"in", []string{"in"}, OpEq, nil},
		{"", nil, "", ErrEmptyPath},
		{"contact__", nil, "", ErrInvalidSegment},
		{"text; DROP", nil, "", ErrInvalidSegment},
		{"created_on__gtx", nil, "", ErrUnknownOp},
		{"values__age__isnul", nil, "", ErrUnknownOp},
		{"text__contians", nil, "", ErrUnknownOp},
		{"flow__uuid__ni", nil, "", ErrUnknownOp},
		{"contact__id", []string{"contact", "id"}, OpEq, nil},
		{"contact__name", []string{"contact", "name"}, OpEq, nil},
		{"values__age__value", []string{"values", "age", "value"}, OpEq, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			path, op, err := ParseKey(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantOp, op)
		})
	}
}

func TestCompile(t *testing.T) {
	after := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	contactUUID := uuid.MustParse("4e9b7c4d-4a56-4f0e-9a8f-7a1f8f7c6d12")

	tests := []struct {
		name   string
		fields string
		where  Conditions
		want   string
	}{
		{
			name: "no conditions",
			want: "SELECT s.* FROM s3object s",
		},
		{
			name:   "custom projection",
			fields: "s.uuid, s.text",
			want:   "SELECT s.uuid, s.text FROM s3object s",
		},
		{
			name:  "string equality with quote escaping",
			where: Conditions{"contact__name": "O'Brien"},
			want:  "SELECT s.* FROM s3object s WHERE s.contact.name = 'O''Brien'",
		},
		{
			name:  "uuid value",
			where: Conditions{"contact__uuid": contactUUID},
			want:  "SELECT s.* FROM s3object s WHERE s.contact.uuid = '4e9b7c4d-4a56-4f0e-9a8f-7a1f8f7c6d12'",
		},
		{
			name:  "timestamps are cast on both sides",
			where: Conditions{"created_on__gte": after},
			want:  "SELECT s.* FROM s3object s WHERE CAST(s.created_on AS TIMESTAMP) >= CAST('2024-03-01T10:30:00Z' AS TIMESTAMP)",
		},
		{
			name:  "conditions sorted by key",
			where: Conditions{"visibility": "visible", "direction": "in", "broadcast__id__gt": 10},
			want:  "SELECT s.* FROM s3object s WHERE s.broadcast.id > 10 AND s.direction = 'in' AND s.visibility = 'visible'",
		},
		{
			name:  "in list",
			where: Conditions{"flow__uuid__in": []string{"a", "b"}},
			want:  "SELECT s.* FROM s3object s WHERE s.flow.uuid IN ('a', 'b')",
		},
		{
			name:  "bools and floats",
			where: Conditions{"responded": true, "values__score__value__lt": 2.5},
			want:  "SELECT s.* FROM s3object s WHERE s.responded = TRUE AND s.values.score.value < 2.5",
		},
		{
			name:  "null checks",
			where: Conditions{"exited_on__isnull": true, "flow": nil, "channel__ne": nil},
			want:  "SELECT s.* FROM s3object s WHERE s.channel IS NOT NULL AND s.exited_on IS NULL AND s.flow IS NULL",
		},
		{
			name:  "contains",
			where: Conditions{"text__contains": "hello"},
			want:  "SELECT s.* FROM s3object s WHERE s.text LIKE '%hello%'",
		},
		{
			name:  "contains with wildcard characters",
			where: Conditions{"text__contains": "50%_off"},
			want:  `SELECT s.* FROM s3object s WHERE s.text LIKE '%50\%\_off%' ESCAPE '\'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := Compile(tt.fields, tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		where   Conditions
		wantErr error
	}{
		{"empty in", Conditions{"uuid__in": []string{}}, ErrEmptyIn},
		{"in with scalar", Conditions{"uuid__in": "abc"}, ErrUnsupportedValue},
		{"in with uuid", Conditions{"uuid__in": uuid.New()}, ErrUnsupportedValue},
		{"isnull with string", Conditions{"uuid__isnull": "yes"}, ErrUnsupportedValue},
		{"contains with int", Conditions{"text__contains": 3}, ErrUnsupportedValue},
		{"ordering nil", Conditions{"created_on__gt": nil}, ErrUnsupportedValue},
		{"unsupported type", Conditions{"labels": map[string]string{}}, ErrUnsupportedValue},
		{"bad segment", Conditions{"s.uuid": "x"}, ErrInvalidSegment},
		{"misspelled op", Conditions{"created_on__gtx": 5}, ErrUnknownOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("", tt.where)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConditions_Merge(t *testing.T) {
	base := Conditions{"a": 1, "b": 2}
	merged := base.Merge(Conditions{"b": 3, "c": 4})

	assert.Equal(t, Conditions{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Conditions{"a": 1, "b": 2}, base)
}
