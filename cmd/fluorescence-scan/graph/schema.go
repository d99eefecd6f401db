package graph

import (
	"fmt"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
	"github.com/ispyb/fluorescence-scan/internal/schema"

	"github.com/graph-gophers/graphql-go"
)

const (
	typeFluorescenceScan = "FluorescenceScan"
	typeSession          = "Session"
	typeScanStatus       = "ScanStatus"
	typeDateTime         = "DateTime"
)

// Build registers the subgraph's types and assembles its schema.
func Build() (*schema.Schema, error) {
	statuses := make([]string, 0, len(model.Statuses))
	for _, status := range model.Statuses {
		statuses = append(statuses, string(status))
	}

	var (
		str      = schema.Named("String")
		float    = schema.Named("Float")
		dateTime = schema.Named(typeDateTime)
	)

	return schema.NewBuilder().
		Scalar(typeDateTime, "An RFC 3339 timestamp in UTC.").
		Enum(typeScanStatus, "Acquisition state of a fluorescence scan.", statuses...).
		Object(typeFluorescenceScan, "An X-ray fluorescence spectrum acquisition.",
			schema.Field{Name: "id", Type: schema.NonNull(schema.Named("ID"))},
			schema.Field{Name: "session_id", Type: schema.NonNull(schema.Named("Int"))},
			schema.Field{Name: "sample_id", Type: schema.Named("Int")},
			schema.Field{Name: "status", Type: schema.NonNull(schema.Named(typeScanStatus))},
			schema.Field{Name: "start_time", Type: dateTime},
			schema.Field{Name: "end_time", Type: dateTime},
			schema.Field{Name: "filename", Type: str},
			schema.Field{Name: "scan_file_full_path", Type: str},
			schema.Field{Name: "jpeg_scan_file_full_path", Type: str},
			schema.Field{
				Name:        "jpeg_scan_url",
				Description: "Temporary URL of the jpeg rendering of the scan.",
				Type:        str,
			},
			schema.Field{Name: "energy", Description: "Beam energy in eV.", Type: float},
			schema.Field{Name: "exposure_time", Description: "Exposure time in seconds.", Type: float},
			schema.Field{Name: "axis_position", Type: float},
			schema.Field{Name: "beam_transmission", Description: "Beam transmission as a percentage.", Type: float},
			schema.Field{Name: "beam_size_vertical", Type: float},
			schema.Field{Name: "beam_size_horizontal", Type: float},
			schema.Field{Name: "flux", Type: float},
			schema.Field{Name: "flux_end", Type: float},
			schema.Field{Name: "crystal_class", Type: str},
			schema.Field{Name: "comments", Type: str},
			schema.Field{Name: "working_directory", Type: str},
			schema.Field{Name: "session", Type: schema.NonNull(schema.Named(typeSession))},
		).
		Object(typeSession, "",
			schema.Field{Name: "id", Type: schema.NonNull(schema.Named("Int"))},
			schema.Field{
				Name: "fluorescence_scan",
				Type: schema.NonNull(schema.ListOf(schema.NonNull(schema.Named(typeFluorescenceScan)))),
			},
		).
		Object("Query", "",
			schema.Field{
				Name:      "fluorescence_scan",
				Type:      schema.Named(typeFluorescenceScan),
				Arguments: []schema.Argument{{Name: "id", Type: schema.NonNull(schema.Named("ID"))}},
			},
		).
		Key(typeFluorescenceScan, "id").
		Key(typeSession, "id").
		Build()
}

// Generate builds the schema and checks it against the resolvers: every
// entity must have a reference resolver and every field must bind to a
// resolver method.
func Generate() (*schema.Schema, error) {
	s, err := Build()
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, entity := range s.Entities() {
		if _, ok := referenceResolvers[entity.Type]; !ok {
			errs = append(errs, fmt.Errorf("entity %s: %w", entity.Type, schema.ErrMissingReferenceResolver))
		}
	}
	if len(errs) > 0 {
		return nil, schema.NewGenerationError(errs...)
	}

	if _, err := parse(s, &Resolver{}); err != nil {
		return nil, err
	}
	return s, nil
}

// NewExecutableSchema generates the schema and binds it to resolver.
func NewExecutableSchema(resolver *Resolver, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	s, err := Generate()
	if err != nil {
		return nil, err
	}

	resolver.sdl = s.SDL()
	return parse(s, resolver, opts...)
}

func parse(s *schema.Schema, resolver *Resolver, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	opts = append([]graphql.SchemaOpt{graphql.UseStringDescriptions()}, opts...)
	executable, err := graphql.ParseSchema(s.ExecutableSDL(), resolver, opts...)
	if err != nil {
		return nil, schema.NewGenerationError(fmt.Errorf("while binding resolvers: %w", err))
	}
	return executable, nil
}
