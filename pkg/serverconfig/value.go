package serverconfig

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	default:
		return "string"
	}
}

// Value is a config value: a boolean, a number or a string.
//
// Numbers keep their source literal so that "08" or "1.50" survive a
// rewrite unchanged. The zero Value is the empty string.
type Value struct {
	kind Kind
	text string
	b    bool
	n    float64
}

// String returns a string Value holding s verbatim.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value rendered with the shortest representation.
func Number(n float64) Value {
	return Value{kind: KindNumber, n: n, text: strconv.FormatFloat(n, 'f', -1, 64)}
}

// ParseValue infers a Value from literal text:
//   - "true" or "false" in any case is a boolean
//   - text that is blank after trimming is the empty string
//   - a numeric literal is a number: decimal with optional fraction and
//     exponent, "Infinity" with an optional sign, or an unsigned 0x, 0o or
//     0b integer
//   - anything else is a string, kept verbatim
//
// Forms such as "inf", "nan", "1_000" or the hex float "0x1p3" are strings.
func ParseValue(text string) Value {
	switch strings.ToLower(text) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return String("")
	}
	if n, ok := parseNumber(trimmed); ok {
		return Value{kind: KindNumber, n: n, text: text}
	}
	return String(text)
}

var (
	decimalRE  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	infinityRE = regexp.MustCompile(`^[+-]?Infinity$`)
	radixRE    = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

func parseNumber(s string) (float64, bool) {
	switch {
	case decimalRE.MatchString(s):
		// Out of range literals round to ±Inf or 0; ParseFloat returns
		// those along with ErrRange.
		n, err := strconv.ParseFloat(s, 64)
		if ne, ok := err.(*strconv.NumError); err != nil && (!ok || ne.Err != strconv.ErrRange) {
			return 0, false
		}
		return n, true
	case infinityRE.MatchString(s):
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	case radixRE.MatchString(s):
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[s[1]|0x20]
		i, ok := new(big.Int).SetString(s[2:], base)
		if !ok {
			return 0, false
		}
		n, _ := new(big.Float).SetInt(i).Float64()
		return n, true
	}
	return 0, false
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean and whether v is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the number and whether v is a number.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// String renders v the way it is written to the file.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return v.text
}

// Equal reports whether v and o hold the same variant and rendering.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.String() == o.String()
}
