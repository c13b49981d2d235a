package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "IntervalMarker",
		Fields: graphql.Fields{
			"position":    &graphql.Field{Type: geoPointType},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"label":       &graphql.Field{Type: graphql.String},
		},
	})

	measurementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Measurement",
		Fields: graphql.Fields{
			"encoded":    &graphql.Field{Type: graphql.String},
			"points":     &graphql.Field{Type: graphql.NewList(geoPointType)},
			"profile":    &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"total_km":   &graphql.Field{Type: graphql.Float},
			"formatted":  &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"spacing_km": &graphql.Field{Type: graphql.Float},
			"zoom":       &graphql.Field{Type: graphql.Float},
			"markers":    &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	savedPathType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SavedPath",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"encoded":     &graphql.Field{Type: graphql.String},
			"point_count": &graphql.Field{Type: graphql.Int},
			"total_km":    &graphql.Field{Type: graphql.Float},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"code":    &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"overlay": &graphql.Field{Type: graphql.Boolean},
			"visible": &graphql.Field{Type: graphql.Boolean},
		},
	})

	viewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ViewState",
		Fields: graphql.Fields{
			"zoom":        &graphql.Field{Type: graphql.Float},
			"center":      &graphql.Field{Type: geoPointType},
			"focus_popup": &graphql.Field{Type: graphql.String},
			"popups":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"layers":      &graphql.Field{Type: graphql.NewList(layerType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"measure": &graphql.Field{
				Type:        measurementType,
				Description: "Measure a list of points",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(geoPointInput)))},
					"zoom":   &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Distance.Measure(p.Context, pointsArg(p.Args["points"]), floatArg(p.Args, "zoom", deps.Distance.DefaultZoom()))
				},
			},
			"measurePath": &graphql.Field{
				Type:        measurementType,
				Description: "Measure an encoded path",
				Args: graphql.FieldConfigArgument{
					"encoded": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"zoom":    &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					encoded := p.Args["encoded"].(string)
					return deps.Distance.MeasureEncoded(p.Context, encoded, floatArg(p.Args, "zoom", deps.Distance.DefaultZoom()))
				},
			},
			"decodePath": &graphql.Field{
				Type:        graphql.NewList(geoPointType),
				Description: "Decode an encoded path into points",
				Args: graphql.FieldConfigArgument{
					"encoded": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Distance.Decode(p.Args["encoded"].(string))
				},
			},
			"savedPaths": &graphql.Field{
				Type:        graphql.NewList(savedPathType),
				Description: "List saved paths, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.SavedPaths == nil {
						return nil, errNoDatabase
					}
					paths, _, err := deps.SavedPaths.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return paths, err
				},
			},
			"savedPath": &graphql.Field{
				Type:        savedPathType,
				Description: "Get a saved path by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.SavedPaths == nil {
						return nil, errNoDatabase
					}
					return deps.SavedPaths.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"fragment": &graphql.Field{
				Type:        graphql.String,
				Description: "Normalized fragment text of a session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st, err := deps.Fragments.Get(p.Context, p.Args["session"].(string))
					if err != nil {
						return nil, err
					}
					return st.String(), nil
				},
			},
			"view": &graphql.Field{
				Type:        viewType,
				Description: "Map view restored from a session fragment",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					view, err := deps.Location.Restore(p.Context, p.Args["session"].(string))
					if err != nil {
						return nil, err
					}
					// Flatten the embedded layer so the default resolver finds its fields.
					layers := make([]map[string]interface{}, 0, len(view.Layers))
					for _, l := range view.Layers {
						layers = append(layers, map[string]interface{}{
							"code":    l.Code,
							"name":    l.Name,
							"overlay": l.Overlay,
							"visible": l.Visible,
						})
					}
					return map[string]interface{}{
						"zoom":        view.Zoom,
						"center":      view.Center,
						"focus_popup": view.FocusPopup,
						"popups":      view.Popups,
						"layers":      layers,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pointsArg(v interface{}) domain.Path {
	list, _ := v.([]interface{})
	path := make(domain.Path, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]interface{})
		lat, _ := m["lat"].(float64)
		lon, _ := m["lon"].(float64)
		path = append(path, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	return path
}

func floatArg(args map[string]interface{}, name string, def float64) float64 {
	if v, ok := args[name].(float64); ok {
		return v
	}
	return def
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
