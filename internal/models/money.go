package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a fixed-point currency amount with two decimal places,
// stored as Decimal128 in MongoDB.
type Money struct {
	decimal.Decimal
}

// NewMoney truncates the given value to two decimal places.
func NewMoney(d decimal.Decimal) Money {
	return Money{d.Truncate(2)}
}

// MoneyFromString parses a decimal string such as "120.50".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d), nil
}

// MoneyFromInt builds a whole-unit amount.
func MoneyFromInt(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return NewMoney(m.Decimal.Add(other.Decimal))
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return NewMoney(m.Decimal.Sub(other.Decimal))
}

// MulQuantity returns the line total for a quantity of units.
func (m Money) MulQuantity(quantity int) Money {
	return NewMoney(m.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
}

// Equal reports numeric equality regardless of exponent representation.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// MarshalBSONValue always stores the amount as Decimal128 so new writes
// stay exact even when legacy documents used doubles.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue accepts Decimal128, double, string and integer BSON
// types, allowing legacy documents to be decoded without failing the
// entire request.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*m = Money{}
		return nil
	case bsontype.Decimal128:
		var d128 primitive.Decimal128
		if err := bson.UnmarshalValue(t, data, &d128); err != nil {
			return err
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return err
		}
		*m = Money{d}
		return nil
	case bsontype.Double:
		var value float64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*m = NewMoney(decimal.NewFromFloat(value))
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := MoneyFromString(value)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case bsontype.Int32:
		var value int32
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*m = MoneyFromInt(int64(value))
		return nil
	case bsontype.Int64:
		var value int64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*m = MoneyFromInt(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
}
