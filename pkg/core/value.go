package core

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for record dates and date filters.
const DateLayout = "2006-01-02"

// ValueKind identifies which field of a Value is populated.
type ValueKind int

// Value kinds.
const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindList
	KindDate
)

// Value is a typed field value read from a Record.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	List []string
	Date time.Time
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// ListValue wraps a string list.
func ListValue(l []string) Value { return Value{Kind: KindList, List: l} }

// DateValue wraps a calendar date.
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// String renders the value the way a table cell shows it by default.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.List, ", ")
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return ""
	}
}

// ParseDate parses an ISO calendar date (a full RFC 3339 timestamp is truncated to its date).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}
