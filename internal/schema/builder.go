// Package schema assembles a federated GraphQL schema from explicit
// registrations and renders it as deterministic SDL.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/vektah/gqlparser/v2/ast"
)

// Field describes a field of an object type. Name is normalised to
// lowerCamelCase when registered.
type Field struct {
	Name        string
	Description string
	Type        *ast.Type
	Arguments   []Argument
}

// Argument describes an argument of a field.
type Argument struct {
	Name        string
	Description string
	Type        *ast.Type
}

// Named references the nullable type name.
func Named(name string) *ast.Type {
	return ast.NamedType(name, nil)
}

// NonNull references the non-null form of t.
func NonNull(t *ast.Type) *ast.Type {
	nonNull := *t
	nonNull.NonNull = true
	return &nonNull
}

// ListOf references a nullable list of t.
func ListOf(t *ast.Type) *ast.Type {
	return ast.ListType(t, nil)
}

// NewBuilder creates a new Builder instance.
func NewBuilder() *Builder {
	return &Builder{
		definitions: make(map[string]*ast.Definition),
		keys:        make(map[string][]string),
	}
}

// Builder accumulates type registrations. Registration problems are
// collected and reported together by Build.
type Builder struct {
	definitions map[string]*ast.Definition
	keys        map[string][]string
	errs        []error
}

// Scalar registers a custom scalar.
func (b *Builder) Scalar(name, description string) *Builder {
	b.define(&ast.Definition{
		Kind:        ast.Scalar,
		Name:        name,
		Description: description,
	})
	return b
}

// Enum registers an enum with the values in the order given.
func (b *Builder) Enum(name, description string, values ...string) *Builder {
	def := &ast.Definition{
		Kind:        ast.Enum,
		Name:        name,
		Description: description,
	}

	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if err := validateEnumValue(value); err != nil {
			b.fail(fmt.Errorf("enum %s: %w", name, err))
			continue
		}
		if _, ok := seen[value]; ok {
			b.fail(fmt.Errorf("enum %s value %q: %w", name, value, ErrConflictingField))
			continue
		}
		seen[value] = struct{}{}
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: value})
	}

	b.define(def)
	return b
}

// Object registers an object type with fields in the order given.
func (b *Builder) Object(name, description string, fields ...Field) *Builder {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        name,
		Description: description,
	}

	seen := make(map[string]string, len(fields))
	for _, field := range fields {
		normalised := strcase.ToLowerCamel(field.Name)
		if err := validateName(normalised); err != nil {
			b.fail(fmt.Errorf("type %s field %q: %w", name, field.Name, err))
			continue
		}
		if prev, ok := seen[normalised]; ok {
			b.fail(fmt.Errorf(
				"type %s fields %q and %q both define %s: %w",
				name, prev, field.Name, normalised, ErrConflictingField,
			))
			continue
		}
		seen[normalised] = field.Name

		if field.Type == nil {
			b.fail(fmt.Errorf("type %s field %s has no type: %w", name, normalised, ErrUnknownType))
			continue
		}

		fieldDef := &ast.FieldDefinition{
			Name:        normalised,
			Description: field.Description,
			Type:        field.Type,
		}
		for _, arg := range field.Arguments {
			if err := validateName(arg.Name); err != nil {
				b.fail(fmt.Errorf("type %s field %s argument %q: %w", name, normalised, arg.Name, err))
				continue
			}
			fieldDef.Arguments = append(fieldDef.Arguments, &ast.ArgumentDefinition{
				Name:        arg.Name,
				Description: arg.Description,
				Type:        arg.Type,
			})
		}
		def.Fields = append(def.Fields, fieldDef)
	}

	b.define(def)
	return b
}

// Key declares typeName a federation entity identified by fields. Field
// names are normalised as they are for Object.
func (b *Builder) Key(typeName string, fields ...string) *Builder {
	if len(fields) == 0 {
		b.fail(fmt.Errorf("type %s: key has no fields: %w", typeName, ErrInvalidKey))
		return b
	}

	normalised := make([]string, 0, len(fields))
	for _, field := range fields {
		normalised = append(normalised, strcase.ToLowerCamel(field))
	}
	selection := strings.Join(normalised, " ")

	for _, existing := range b.keys[typeName] {
		if existing == selection {
			b.fail(fmt.Errorf("type %s key %q registered twice: %w", typeName, selection, ErrInvalidKey))
			return b
		}
	}
	b.keys[typeName] = append(b.keys[typeName], selection)
	return b
}

// Build validates the registrations and assembles the Schema. Every problem
// found is reported in a single *GenerationError.
func (b *Builder) Build() (*Schema, error) {
	errs := append([]error(nil), b.errs...)

	query, ok := b.definitions[queryType]
	if !ok || query.Kind != ast.Object || len(query.Fields) == 0 {
		errs = append(errs, ErrMissingQuery)
	}

	entities := make([]Entity, 0, len(b.keys))
	for _, typeName := range sortedKeys(b.keys) {
		entity, keyErrs := b.entity(typeName)
		if len(keyErrs) > 0 {
			errs = append(errs, keyErrs...)
			continue
		}
		entities = append(entities, entity)
	}

	if len(errs) > 0 {
		return nil, NewGenerationError(errs...)
	}

	s := &Schema{
		definitions: b.ordered(),
		entities:    entities,
	}
	if err := s.render(); err != nil {
		return nil, NewGenerationError(err)
	}
	return s, nil
}

func (b *Builder) entity(typeName string) (Entity, []error) {
	def, ok := b.definitions[typeName]
	if !ok {
		return Entity{}, []error{fmt.Errorf("key on %s: %w", typeName, ErrUnknownType)}
	}
	if def.Kind != ast.Object {
		return Entity{}, []error{fmt.Errorf("key on %s %s: %w", strings.ToLower(string(def.Kind)), typeName, ErrInvalidKey)}
	}

	var errs []error
	for _, selection := range b.keys[typeName] {
		for _, name := range strings.Fields(selection) {
			field := def.Fields.ForName(name)
			switch {
			case field == nil:
				errs = append(errs, fmt.Errorf("type %s key field %s does not exist: %w", typeName, name, ErrInvalidKey))
			case !field.Type.NonNull:
				errs = append(errs, fmt.Errorf("type %s key field %s is nullable: %w", typeName, name, ErrInvalidKey))
			case field.Type.Elem != nil || !b.leaf(field.Type.NamedType):
				errs = append(errs, fmt.Errorf("type %s key field %s is not a scalar: %w", typeName, name, ErrInvalidKey))
			}
		}
	}
	return Entity{Type: typeName, Keys: append([]string(nil), b.keys[typeName]...)}, errs
}

func (b *Builder) leaf(name string) bool {
	if _, ok := builtinScalars[name]; ok {
		return true
	}
	def, ok := b.definitions[name]
	return ok && (def.Kind == ast.Scalar || def.Kind == ast.Enum)
}

func (b *Builder) define(def *ast.Definition) {
	if err := validateTypeName(def.Name); err != nil {
		b.fail(fmt.Errorf("type %q: %w", def.Name, err))
		return
	}
	if _, ok := b.definitions[def.Name]; ok {
		b.fail(fmt.Errorf("type %s: %w", def.Name, ErrDuplicateType))
		return
	}
	b.definitions[def.Name] = def
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// ordered lists the definitions by kind then name, attaching @key directives
// to entities.
func (b *Builder) ordered() ast.DefinitionList {
	defs := make(ast.DefinitionList, 0, len(b.definitions))
	for _, def := range b.definitions {
		clone := *def
		clone.Directives = nil
		for _, selection := range b.keys[def.Name] {
			clone.Directives = append(clone.Directives, keyDirective(selection))
		}
		defs = append(defs, &clone)
	}
	sort.Slice(defs, func(i, j int) bool {
		if ki, kj := kindOrder[defs[i].Kind], kindOrder[defs[j].Kind]; ki != kj {
			return ki < kj
		}
		return defs[i].Name < defs[j].Name
	})

	return defs
}

// --- helpers ---

const queryType = "Query"

var (
	nameRegexp = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

	builtinScalars = map[string]struct{}{
		"ID":      {},
		"Int":     {},
		"Float":   {},
		"String":  {},
		"Boolean": {},
	}

	kindOrder = map[ast.DefinitionKind]int{
		ast.Scalar: 0,
		ast.Enum:   1,
		ast.Object: 2,
	}
)

func validateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("%q is reserved for introspection: %w", name, ErrInvalidName)
	}
	return nil
}

func validateTypeName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if strings.HasPrefix(name, "_") {
		return fmt.Errorf("%q is reserved for federation: %w", name, ErrInvalidName)
	}
	if _, ok := builtinScalars[name]; ok {
		return fmt.Errorf("%q is a built-in scalar: %w", name, ErrInvalidName)
	}
	return nil
}

func validateEnumValue(value string) error {
	if err := validateName(value); err != nil {
		return err
	}
	switch value {
	case "true", "false", "null":
		return fmt.Errorf("%q: %w", value, ErrInvalidName)
	}
	return nil
}

func keyDirective(selection string) *ast.Directive {
	return &ast.Directive{
		Name: "key",
		Arguments: ast.ArgumentList{
			{Name: "fields", Value: &ast.Value{Kind: ast.StringValue, Raw: selection}},
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
