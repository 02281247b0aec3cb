package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEntityType is returned when decoding a payload of an unknown type.
var ErrUnknownEntityType = errors.New("unknown entity type")

// DecodeEntity unmarshals a JSON payload into the concrete entity for t.
func DecodeEntity(t EntityType, data []byte) (Entity, error) {
	switch t {
	case EntityJob:
		return decodeAs[Job](data)
	case EntityUser:
		return decodeAs[User](data)
	case EntityMessage:
		return decodeAs[Message](data)
	case EntityBooking:
		return decodeAs[Booking](data)
	case EntityReview:
		return decodeAs[Review](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
}

func decodeAs[T Entity](data []byte) (Entity, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
