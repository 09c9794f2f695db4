package cart

import (
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/models"
)

// encodeLines flattens the line map into plain BSON values so the
// session document round-trips without custom codecs. Prices travel as
// decimal strings.
func encodeLines(lines map[string]Line) bson.M {
	encoded := bson.M{}
	for key, line := range lines {
		encoded[key] = bson.M{
			"quantity": line.Quantity,
			"price":    line.UnitPrice.String(),
		}
	}
	return encoded
}

// decodeLines rebuilds the line map from whatever the session loader
// produced. Entries that fail to normalize are dropped rather than
// failing the whole cart.
func decodeLines(raw interface{}) map[string]Line {
	lines := make(map[string]Line)

	entries, ok := asDocument(raw)
	if !ok {
		return lines
	}

	for key, value := range entries {
		entry, ok := asDocument(value)
		if !ok {
			continue
		}

		quantity, ok := asInt(entry["quantity"])
		if !ok || quantity <= 0 {
			continue
		}

		priceValue, ok := entry["price"].(string)
		if !ok {
			continue
		}
		price, err := models.MoneyFromString(priceValue)
		if err != nil {
			continue
		}

		lines[key] = Line{Quantity: quantity, UnitPrice: price}
	}

	return lines
}

func asDocument(value interface{}) (bson.M, bool) {
	switch typed := value.(type) {
	case bson.M:
		return typed, true
	case map[string]interface{}:
		return bson.M(typed), true
	default:
		return nil, false
	}
}

func asInt(value interface{}) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int32:
		return int(typed), true
	case int64:
		return int(typed), true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}
