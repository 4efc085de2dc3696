package common

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/squareup/colload/errors"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseLiteral converts the text of a DEFAULT clause into a value accepted by the vector writer of colType.
func ParseLiteral(colType ColumnType, text string) (interface{}, error) {
	switch colType.Type {
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(text))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return b, nil
	case TypeTinyInt, TypeSmallInt, TypeInt, TypeBigInt:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return v, nil
	case TypeUTinyInt, TypeUSmallInt, TypeUInt, TypeUBigInt:
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return v, nil
	case TypeHugeInt, TypeUHugeInt:
		v, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, errors.Errorf("invalid integer literal %q", text)
		}
		return v, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return float32(f), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return f, nil
	case TypeDecimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		// Literals are rescaled to the column, appended values are not.
		shifted := d.Shift(int32(colType.DecScale))
		if !shifted.Equal(shifted.Truncate(0)) {
			return nil, errors.Errorf("literal %s has more than %d decimal places", text, colType.DecScale)
		}
		unscaled, err := Int128FromBig(shifted.BigInt())
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return Decimal{Unscaled: unscaled, Scale: colType.DecScale}, nil
	case TypeVarchar, TypeEnum:
		return text, nil
	case TypeBlob:
		return []byte(text), nil
	case TypeDate:
		t, err := time.Parse("2006-01-02", text)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return DateFromTime(t), nil
	case TypeTime:
		t, err := time.Parse("15:04:05.999999", text)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return TimeFromDuration(t.Sub(midnight)), nil
	case TypeTimestamp, TypeTimestampTz:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t, nil
			}
		}
		return nil, errors.Errorf("invalid timestamp literal %q", text)
	case TypeUUID:
		u, err := uuid.Parse(text)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return u, nil
	default:
		return nil, errors.Errorf("default values are not supported for %s columns", colType.Type)
	}
}
