package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateTime is an RFC 3339 timestamp, always rendered in UTC.
type DateTime struct {
	time.Time
}

// ImplementsGraphQLType maps DateTime to the DateTime scalar.
func (DateTime) ImplementsGraphQLType(name string) bool {
	return name == "DateTime"
}

// UnmarshalGraphQL parses an RFC 3339 string.
func (t *DateTime) UnmarshalGraphQL(input interface{}) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("wrong type for DateTime: %T", input)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("while parsing DateTime: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func newDateTime(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	return &DateTime{Time: t.UTC()}
}

// Representation is an entity representation sent by the gateway to
// _entities: the entity's __typename and key fields.
type Representation map[string]interface{}

// ImplementsGraphQLType maps Representation to the federation _Any scalar.
func (Representation) ImplementsGraphQLType(name string) bool {
	return name == "_Any"
}

// UnmarshalGraphQL accepts an object.
func (r *Representation) UnmarshalGraphQL(input interface{}) error {
	m, ok := input.(map[string]interface{})
	if !ok {
		return fmt.Errorf("wrong type for _Any: %T", input)
	}
	*r = m
	return nil
}

func (r Representation) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(r))
}

// Typename retrieves the representation's __typename.
func (r Representation) Typename() (string, bool) {
	typename, ok := r["__typename"].(string)
	return typename, ok && typename != ""
}

// Identifier retrieves the key field as an identifier. Identifiers are
// positive 32-bit integers; they may be sent as numbers or strings.
func (r Representation) Identifier(field string) (uint32, error) {
	return parseIdentifier(r[field])
}

func parseIdentifier(v interface{}) (uint32, error) {
	var id int64
	switch v := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		id = parsed
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v.String())
		}
		id = parsed
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		if v < 0 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%v is out of range", v)
		}
		id = int64(v)
	case int32:
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case nil:
		return 0, fmt.Errorf("identifier is missing")
	default:
		return 0, fmt.Errorf("identifier has unexpected type %T", v)
	}

	if id < 1 || id > math.MaxInt32 {
		return 0, fmt.Errorf("%d is out of range", id)
	}
	return uint32(id), nil
}

func formatIdentifier(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
