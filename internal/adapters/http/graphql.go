package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	thumbnailType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Thumbnail",
		Fields: graphql.Fields{
			"url": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"imagery": &graphql.Field{
				Type:        thumbnailType,
				Description: "Least cloudy true-color thumbnail around a point for a year",
				Args: graphql.FieldConfigArgument{
					"lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"date": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"dim":  &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultDimensionKm},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					dim, ok := p.Args["dim"].(float64)
					if !ok {
						dim = domain.DefaultDimensionKm
					}
					req := domain.ImageryRequest{
						Point: domain.GeoPoint{
							Lon: p.Args["lon"].(float64),
							Lat: p.Args["lat"].(float64),
						},
						Year:        p.Args["date"].(int),
						DimensionKm: dim,
					}
					if err := req.Validate(); err != nil {
						metrics.ImageryRequests.WithLabelValues("invalid").Inc()
						return nil, err
					}

					result, err := deps.Imagery.GetImagery(p.Context, req)
					if err != nil {
						se := classifyError(deps, err)
						metrics.ImageryRequests.WithLabelValues(se.outcome).Inc()
						return nil, errors.New(se.message)
					}
					metrics.ImageryRequests.WithLabelValues("ok").Inc()
					return result, nil
				},
			},
			"ready": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Whether the imagery platform session is established",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Gateway != nil && deps.Gateway.Ready(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
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

		c.Set(fiber.HeaderCacheControl, cacheNoStore)
		return c.JSON(result)
	}
}
