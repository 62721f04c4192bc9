// Package s3select compiles record filters into S3 Select SQL and reads the
// records an S3 Select query returns.
//
// Filters are expressed as Conditions, a map keyed by field path and operator
// in the form "contact__uuid__in". Path segments are joined into a nested
// S3 Select reference (s.contact.uuid) and the operator suffix is optional,
// defaulting to equality. A final segment one edit away from an operator,
// such as "gtx" or "isnul", is rejected as an unknown operator rather than
// read as a field name.
package s3select

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op is a comparison operator usable in a condition key
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains"
	OpIsNull   Op = "isnull"
)

var sqlOperators = map[Op]string{
	OpEq:  "=",
	OpNe:  "!=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var (
	// ErrEmptyPath is returned for a condition key without any field
	ErrEmptyPath = errors.New("s3select: condition has no field path")
	// ErrInvalidSegment is returned for path segments S3 Select can't reference unquoted
	ErrInvalidSegment = errors.New("s3select: invalid field path segment")
	// ErrUnknownOp is returned for an operator suffix that isn't supported
	ErrUnknownOp = errors.New("s3select: unknown condition operator")
	// ErrEmptyIn is returned for an in condition with no values
	ErrEmptyIn = errors.New("s3select: in condition requires at least one value")
	// ErrUnsupportedValue is returned for values that have no SQL literal form
	ErrUnsupportedValue = errors.New("s3select: unsupported value type")
)

// DefaultFields is the projection used when none is given
const DefaultFields = "s.*"

// Conditions is a set of filters combined with AND
type Conditions map[string]any

// Condition is a single parsed filter
type Condition struct {
	Path  []string
	Op    Op
	Value any
}

// Column returns the S3 Select reference for the condition's field
func (c Condition) Column() string {
	return "s." + strings.Join(c.Path, ".")
}

// ParseKey splits a condition key into its field path and operator
func ParseKey(key string) ([]string, Op, error) {
	if key == "" {
		return nil, "", ErrEmptyPath
	}

	parts := strings.Split(key, "__")
	op := OpEq
	last := Op(parts[len(parts)-1])
	if len(parts) > 1 {
		if _, isOp := validOps[last]; isOp {
			op = last
			parts = parts[:len(parts)-1]
		} else if looksLikeOp(string(last)) {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownOp, last)
		}
	}

	for _, p := range parts {
		if !segmentRegex.MatchString(p) {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidSegment, p)
		}
	}
	return parts, op, nil
}

var validOps = map[Op]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {}, OpIn: {}, OpContains: {}, OpIsNull: {},
}

// looksLikeOp returns true if the segment is a misspelling of an operator.
// Two letter operators only match with one extra trailing letter or swapped
// letters, so fields like "id" or "name" stay usable.
func looksLikeOp(segment string) bool {
	for op := range validOps {
		o := string(op)
		if len(o) == 2 {
			if (len(segment) == 3 && strings.HasPrefix(segment, o)) || segment == string([]byte{o[1], o[0]}) {
				return true
			}
			continue
		}
		if editDistance(segment, o) == 1 {
			return true
		}
	}
	return false
}

// editDistance is the Levenshtein distance counting a swap of adjacent letters as one edit
func editDistance(a, b string) int {
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		d[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(a)][len(b)]
}

// Parse returns the conditions as a list sorted by key
func (c Conditions) Parse() ([]Condition, error) {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parsed := make([]Condition, 0, len(keys))
	for _, k := range keys {
		path, op, err := ParseKey(k)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, Condition{Path: path, Op: op, Value: c[k]})
	}
	return parsed, nil
}

// Merge returns a new set with the conditions of other added, other winning on conflicts
func (c Conditions) Merge(other Conditions) Conditions {
	merged := make(Conditions, len(c)+len(other))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Compile builds the S3 Select query for the given projection and conditions
func Compile(fields string, where Conditions) (string, error) {
	if strings.TrimSpace(fields) == "" {
		fields = DefaultFields
	}

	clauses, err := CompileWhere(where)
	if err != nil {
		return "", err
	}

	sql := "SELECT " + fields + " FROM s3object s"
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}
	return sql, nil
}

// CompileWhere returns one SQL expression per condition, in key order
func CompileWhere(where Conditions) ([]string, error) {
	conds, err := where.Parse()
	if err != nil {
		return nil, err
	}

	clauses := make([]string, 0, len(conds))
	for _, c := range conds {
		clause, err := compileCondition(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func compileCondition(c Condition) (string, error) {
	col := c.Column()

	switch c.Op {
	case OpIsNull:
		isNull, ok := c.Value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: isnull requires a bool, got %T", ErrUnsupportedValue, c.Value)
		}
		if isNull {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil

	case OpContains:
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("%w: contains requires a string, got %T", ErrUnsupportedValue, c.Value)
		}
		pattern, escaped := escapeLike(s)
		clause := col + " LIKE " + quote("%"+pattern+"%")
		if escaped {
			clause += ` ESCAPE '\'`
		}
		return clause, nil

	case OpIn:
		values, err := toSlice(c.Value)
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			return "", ErrEmptyIn
		}
		literals := make([]string, len(values))
		for i, v := range values {
			if literals[i], err = literal(v); err != nil {
				return "", err
			}
		}
		if _, isTime := values[0].(time.Time); isTime {
			col = castTimestamp(col)
		}
		return col + " IN (" + strings.Join(literals, ", ") + ")", nil
	}

	if c.Value == nil {
		switch c.Op {
		case OpEq:
			return col + " IS NULL", nil
		case OpNe:
			return col + " IS NOT NULL", nil
		}
		return "", fmt.Errorf("%w: nil can only be compared for equality", ErrUnsupportedValue)
	}

	val, err := literal(c.Value)
	if err != nil {
		return "", err
	}
	if _, isTime := c.Value.(time.Time); isTime {
		col = castTimestamp(col)
	}
	return col + " " + sqlOperators[c.Op] + " " + val, nil
}

func castTimestamp(expr string) string {
	return "CAST(" + expr + " AS TIMESTAMP)"
}

// literal renders a Go value as an S3 Select SQL literal
func literal(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return quote(t), nil
	case bool:
		if t {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		return castTimestamp(quote(t.UTC().Format(time.RFC3339Nano))), nil
	case fmt.Stringer:
		return quote(t.String()), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func escapeLike(s string) (string, bool) {
	if !strings.ContainsAny(s, `%_\`) {
		return s, false
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s), true
}

// toSlice flattens any slice or array value into []any
func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, ErrEmptyIn
	}
	if _, isStringer := v.(fmt.Stringer); isStringer {
		return nil, fmt.Errorf("%w: in requires a slice, got %T", ErrUnsupportedValue, v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: in requires a slice, got %T", ErrUnsupportedValue, v)
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
