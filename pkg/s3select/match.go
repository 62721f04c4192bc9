package s3select

import (
	"fmt"
	"strings"
	"time"
)

// Match evaluates the conditions against a decoded JSON record using the same
// semantics as the compiled SQL. Missing fields compare as NULL, which never
// satisfies a comparison other than isnull.
func (c Conditions) Match(record map[string]any) (bool, error) {
	conds, err := c.Parse()
	if err != nil {
		return false, err
	}
	for _, cond := range conds {
		ok, err := cond.Match(record)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Match evaluates a single condition against a record
func (c Condition) Match(record map[string]any) (bool, error) {
	field := lookup(record, c.Path)

	switch c.Op {
	case OpIsNull:
		isNull, ok := c.Value.(bool)
		if !ok {
			return false, fmt.Errorf("%w: isnull requires a bool, got %T", ErrUnsupportedValue, c.Value)
		}
		return (field == nil) == isNull, nil

	case OpContains:
		s, ok := c.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: contains requires a string, got %T", ErrUnsupportedValue, c.Value)
		}
		fs, ok := field.(string)
		return ok && strings.Contains(fs, s), nil

	case OpIn:
		values, err := toSlice(c.Value)
		if err != nil {
			return false, err
		}
		if len(values) == 0 {
			return false, ErrEmptyIn
		}
		if field == nil {
			return false, nil
		}
		for _, v := range values {
			cmp, cmpOK, err := compare(field, v)
			if err != nil {
				return false, err
			}
			if cmpOK && cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	}

	if c.Value == nil {
		switch c.Op {
		case OpEq:
			return field == nil, nil
		case OpNe:
			return field != nil, nil
		}
		return false, fmt.Errorf("%w: nil can only be compared for equality", ErrUnsupportedValue)
	}
	if field == nil {
		return false, nil
	}

	cmp, cmpOK, err := compare(field, c.Value)
	if err != nil || !cmpOK {
		return false, err
	}

	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpNe:
		return cmp != 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("s3select: unknown operator %q", c.Op)
}

func lookup(record map[string]any, path []string) any {
	var current any = record
	for _, p := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[p]
	}
	return current
}

// compare compares a record field against a condition value. The second
// return is false when the two can't be compared, e.g. a string field against
// a numeric value, mirroring S3 Select where such rows are simply not matched.
func compare(field, value any) (int, bool, error) {
	switch v := value.(type) {
	case time.Time:
		fs, ok := field.(string)
		if !ok {
			return 0, false, nil
		}
		ft, err := time.Parse(time.RFC3339Nano, fs)
		if err != nil {
			return 0, false, nil
		}
		return ft.Compare(v), true, nil

	case bool:
		fb, ok := field.(bool)
		if !ok {
			return 0, false, nil
		}
		if fb == v {
			return 0, true, nil
		}
		if !fb {
			return -1, true, nil
		}
		return 1, true, nil

	case string:
		fs, ok := field.(string)
		if !ok {
			return 0, false, nil
		}
		return strings.Compare(fs, v), true, nil

	case fmt.Stringer:
		fs, ok := field.(string)
		if !ok {
			return 0, false, nil
		}
		return strings.Compare(fs, v.String()), true, nil
	}

	num, isNum := toFloat(value)
	if !isNum {
		return 0, false, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	fnum, ok := toFloat(field)
	if !ok {
		return 0, false, nil
	}
	switch {
	case fnum < num:
		return -1, true, nil
	case fnum > num:
		return 1, true, nil
	}
	return 0, true, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
