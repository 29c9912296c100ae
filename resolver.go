package keyset

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// TypeResolver coerces a boundary value into the binding the backend expects
// for a column. Boundary values frequently round-trip through JSON cursor
// tokens, which turns timestamps into strings and integers into float64; a
// resolver restores a driver-friendly type. Resolve reports false when it has
// no opinion on the value, letting the next strategy try.
type TypeResolver interface {
	Resolve(column string, value any) (binding any, ok bool)
}

// ResolverChain tries each strategy in order and returns the first claimed
// binding. The conventional order is ExplicitMapping, then SchemaResolver,
// then ShapeHeuristic.
type ResolverChain []TypeResolver

func (c ResolverChain) Resolve(column string, value any) (any, bool) {
	for _, resolver := range c {
		if binding, ok := resolver.Resolve(column, value); ok {
			return binding, true
		}
	}

	return nil, false
}

// ExplicitMapping resolves bindings through per-column coercion functions.
type ExplicitMapping map[string]func(value any) any

func (m ExplicitMapping) Resolve(column string, value any) (any, bool) {
	coerce, ok := m[column]
	if !ok {
		return nil, false
	}

	return coerce(value), true
}

// SchemaResolver coerces values towards the Go type of the model field that
// backs the column, using gorm's parsed schema.
type SchemaResolver struct {
	schema *schema.Schema
}

var _schemaCache = &sync.Map{}

// NewSchemaResolver parses the model's gorm schema. The model must be a
// struct (or pointer to struct) gorm can map.
func NewSchemaResolver(model any) (*SchemaResolver, error) {
	s, err := schema.Parse(model, _schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, validationErrorf("cannot parse model schema: %v", err)
	}

	return &SchemaResolver{schema: s}, nil
}

func (r *SchemaResolver) Resolve(column string, value any) (any, bool) {
	field, ok := r.schema.FieldsByDBName[column]
	if !ok {
		return nil, false
	}

	switch field.FieldType {
	case reflect.TypeOf(time.Time{}), reflect.TypeOf(&time.Time{}):
		if parsed, ok := parseTimeValue(value); ok {
			return parsed, true
		}
	}

	switch field.FieldType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// JSON round-trips integers as float64.
		if f, isFloat := value.(float64); isFloat && f == float64(int64(f)) {
			return int64(f), true
		}
	}

	return nil, false
}

// ShapeHeuristic recognizes a small closed set of textual value shapes:
// RFC 3339 timestamps and UUIDs. Anything else is left to the fallback.
type ShapeHeuristic struct{}

func (ShapeHeuristic) Resolve(_ string, value any) (any, bool) {
	var text []byte
	switch v := value.(type) {
	case string:
		text = []byte(v)
	case []byte:
		text = v
	default:
		return nil, false
	}

	if parsed, ok := parseTimeValue(text); ok {
		return parsed, true
	}

	if id, err := uuid.ParseBytes(text); err == nil {
		return id, true
	}

	return nil, false
}

// DefaultResolver is the resolver used when an adapter or dispatcher is not
// given an explicit one.
var DefaultResolver TypeResolver = ResolverChain{ShapeHeuristic{}}

// resolveValue runs the resolver chain with an identity fallback.
func resolveValue(resolver TypeResolver, column string, value any) any {
	if resolver == nil {
		resolver = DefaultResolver
	}

	if binding, ok := resolver.Resolve(column, value); ok {
		return binding
	}

	return value
}

func parseTimeValue(value any) (time.Time, bool) {
	var text []byte
	switch v := value.(type) {
	case string:
		text = []byte(v)
	case []byte:
		text = v
	default:
		return time.Time{}, false
	}

	var dst time.Time
	if err := dst.UnmarshalText(text); err != nil {
		return time.Time{}, false
	}

	return dst, true
}
