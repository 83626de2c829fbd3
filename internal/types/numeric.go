package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// numericBase is the base PostgreSQL's NUMERIC uses for its digit
// groups on the wire: four decimal digits per int16 "digit" (spec
// §5.5).
const numericBase = 10000

const (
	numericPosSign = 0x0000
	numericNegSign = 0x4000
	numericNaN     = 0xC000
)

// EncodeNumericText renders a SQLite-stored numeric value (typically
// already a decimal string, per spec §5.5's NUMERIC-as-TEXT storage
// strategy) as PostgreSQL numeric text, which is just the decimal
// string itself once normalized.
func EncodeNumericText(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case int64:
		return []byte(strconv.FormatInt(x, 10)), nil
	case float64:
		return []byte(strconv.FormatFloat(x, 'f', -1, 64)), nil
	default:
		return nil, fmt.Errorf("types: cannot coerce %T to numeric", v)
	}
}

// DecodeNumericText validates wire text as a well-formed decimal
// literal and returns it as a string for storage, rejecting values
// PostgreSQL's own numeric_in would reject (spec §5.5 edge case:
// malformed numeric literals return 22P02, not a silent zero).
func DecodeNumericText(s []byte) (any, error) {
	str := strings.TrimSpace(string(s))
	if str == "" {
		return nil, fmt.Errorf("types: invalid numeric literal %q", s)
	}
	if _, err := strconv.ParseFloat(str, 64); err != nil {
		return nil, fmt.Errorf("types: invalid numeric literal %q", s)
	}
	return str, nil
}

// EncodeNumericBinary builds the (ndigits, weight, sign, dscale,
// digits[]) wire layout PostgreSQL's numeric_send produces, grouping
// the decimal string's digits by four starting from the decimal point
// (spec §5.5).
func EncodeNumericBinary(v any) ([]byte, error) {
	s, err := EncodeNumericText(v)
	if err != nil {
		return nil, err
	}
	str := strings.TrimSpace(string(s))

	sign := uint16(numericPosSign)
	if strings.HasPrefix(str, "-") {
		sign = numericNegSign
		str = str[1:]
	} else if strings.HasPrefix(str, "+") {
		str = str[1:]
	}

	intPart, fracPart, _ := strings.Cut(str, ".")
	if intPart == "" {
		intPart = "0"
	}
	dscale := int16(len(fracPart))

	// Pad so both parts split evenly into groups of four digits,
	// anchored at the decimal point.
	intPad := (4 - len(intPart)%4) % 4
	intPart = strings.Repeat("0", intPad) + intPart
	fracPad := (4 - len(fracPart)%4) % 4
	fracPart = fracPart + strings.Repeat("0", fracPad)

	var digits []int16
	for i := 0; i < len(intPart); i += 4 {
		d, err := strconv.Atoi(intPart[i : i+4])
		if err != nil {
			return nil, fmt.Errorf("types: invalid numeric literal: %w", err)
		}
		digits = append(digits, int16(d))
	}
	weight := int16(len(digits) - 1)
	for i := 0; i < len(fracPart); i += 4 {
		d, err := strconv.Atoi(fracPart[i : i+4])
		if err != nil {
			return nil, fmt.Errorf("types: invalid numeric literal: %w", err)
		}
		digits = append(digits, int16(d))
	}

	// Trim leading all-zero groups (except when it's the only digit),
	// adjusting weight to match, the way numeric_send does for values
	// like 0.5 where the integer group is a padding artifact.
	for len(digits) > 1 && digits[0] == 0 && weight > 0 {
		digits = digits[1:]
		weight--
	}
	if len(digits) == 1 && digits[0] == 0 {
		digits = nil
		weight = 0
	}

	buf := make([]byte, 8+2*len(digits))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(digits)))
	binary.BigEndian.PutUint16(buf[2:4], uint16(weight))
	binary.BigEndian.PutUint16(buf[4:6], sign)
	binary.BigEndian.PutUint16(buf[6:8], uint16(dscale))
	for i, d := range digits {
		binary.BigEndian.PutUint16(buf[8+2*i:10+2*i], uint16(d))
	}
	return buf, nil
}

// DecodeNumericBinary is the inverse of EncodeNumericBinary: it
// reassembles the base-10000 digit groups into a decimal string.
func DecodeNumericBinary(b []byte) (any, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("types: numeric binary value too short")
	}
	ndigits := binary.BigEndian.Uint16(b[0:2])
	weight := int16(binary.BigEndian.Uint16(b[2:4]))
	sign := binary.BigEndian.Uint16(b[4:6])
	dscale := binary.BigEndian.Uint16(b[6:8])
	if sign == numericNaN {
		return "NaN", nil
	}
	if len(b) < 8+2*int(ndigits) {
		return nil, fmt.Errorf("types: numeric binary value truncated")
	}

	digits := make([]int16, ndigits)
	for i := range digits {
		digits[i] = int16(binary.BigEndian.Uint16(b[8+2*i : 10+2*i]))
	}

	var sb strings.Builder
	if sign == numericNegSign {
		sb.WriteByte('-')
	}

	// Digit i (0-based) holds the 10^(4*(weight-i)) place.
	for i := int16(0); i <= weight; i++ {
		if int(i) < len(digits) {
			fmt.Fprintf(&sb, "%04d", digits[i])
		} else {
			sb.WriteString("0000")
		}
	}
	if sb.Len() == 0 || (sign == numericNegSign && sb.Len() == 1) {
		sb.WriteByte('0')
	}

	if dscale > 0 {
		sb.WriteByte('.')
		var frac strings.Builder
		for i := int16(0); i < int16(len(digits))-weight-1; i++ {
			idx := weight + 1 + i
			if int(idx) >= 0 && int(idx) < len(digits) {
				fmt.Fprintf(&frac, "%04d", digits[idx])
			} else {
				frac.WriteString("0000")
			}
		}
		fracStr := frac.String()
		for int16(len(fracStr)) < dscale {
			fracStr += "0"
		}
		sb.WriteString(fracStr[:dscale])
	}

	out := sb.String()
	// Strip the sign-only placeholder's leading zero run introduced
	// above when the integer part was entirely absent (weight < 0).
	trimmed := strings.TrimPrefix(out, "-")
	hadSign := len(trimmed) < len(out)
	trimmed = strings.TrimLeft(trimmed, "0")
	if trimmed == "" || strings.HasPrefix(trimmed, ".") {
		trimmed = "0" + trimmed
	}
	if hadSign {
		return "-" + trimmed, nil
	}
	return trimmed, nil
}
