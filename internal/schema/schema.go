package schema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// FederationVersion is the Apollo Federation specification the subgraph SDL
// links to.
const FederationVersion = "https://specs.apollo.dev/federation/v2.3"

// Entity is a type the gateway may resolve by reference.
type Entity struct {
	Type string
	// Keys holds the field selection of each @key, e.g. "id".
	Keys []string
}

// Schema is an assembled, validated schema.
type Schema struct {
	definitions ast.DefinitionList
	entities    []Entity

	sdl        string
	executable string
}

// SDL is the subgraph schema artifact published to the schema registry and
// served by _service.
func (s *Schema) SDL() string {
	return s.sdl
}

// ExecutableSDL is the SDL the subgraph executes against. It extends SDL
// with the federation types and fields the gateway calls.
func (s *Schema) ExecutableSDL() string {
	return s.executable
}

// Entities lists the schema's entities ordered by type name.
func (s *Schema) Entities() []Entity {
	return append([]Entity(nil), s.entities...)
}

func (s *Schema) render() error {
	var sdl strings.Builder
	sdl.WriteString(linkHeader)
	sdl.WriteString("\n")
	sdl.WriteString(format(s.definitions))
	s.sdl = sdl.String()

	s.executable = keyDeclaration + "\n" + format(s.federated())

	if _, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: s.executable}); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidSchema)
	}
	return nil
}

// federated extends the definitions with the types and Query fields of the
// federation subgraph specification.
func (s *Schema) federated() ast.DefinitionList {
	defs := ast.DefinitionList{
		{Kind: ast.Scalar, Name: "_Any"},
		{Kind: ast.Scalar, Name: "_FieldSet"},
	}

	for _, def := range s.definitions {
		if def.Name != queryType {
			defs = append(defs, def)
			continue
		}

		query := *def
		query.Fields = append(ast.FieldList(nil), def.Fields...)
		if len(s.entities) > 0 {
			query.Fields = append(query.Fields, &ast.FieldDefinition{
				Name: "_entities",
				Arguments: ast.ArgumentDefinitionList{{
					Name: "representations",
					Type: ast.NonNullListType(ast.NonNullNamedType("_Any", nil), nil),
				}},
				Type: ast.NonNullListType(ast.NamedType("_Entity", nil), nil),
			})
		}
		query.Fields = append(query.Fields, &ast.FieldDefinition{
			Name: "_service",
			Type: ast.NonNullNamedType("_Service", nil),
		})
		defs = append(defs, &query)
	}

	if len(s.entities) > 0 {
		union := &ast.Definition{Kind: ast.Union, Name: "_Entity"}
		for _, entity := range s.entities {
			union.Types = append(union.Types, entity.Type)
		}
		defs = append(defs, union)
	}

	defs = append(defs, &ast.Definition{
		Kind: ast.Object,
		Name: "_Service",
		Fields: ast.FieldList{
			{Name: "sdl", Type: ast.NonNullNamedType("String", nil)},
		},
	})
	return defs
}

// --- helpers ---

const linkHeader = `extend schema
	@link(url: "` + FederationVersion + `", import: ["@key"])
`

const keyDeclaration = "directive @key(fields: _FieldSet!) on OBJECT | INTERFACE\n"

func format(defs ast.DefinitionList) string {
	blocks := make([]string, 0, len(defs))
	for _, def := range defs {
		var buf bytes.Buffer
		formatter.NewFormatter(&buf).FormatSchemaDocument(&ast.SchemaDocument{
			Definitions: ast.DefinitionList{def},
		})
		blocks = append(blocks, buf.String())
	}
	return strings.Join(blocks, "\n")
}
