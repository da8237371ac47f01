package gateway

import (
	"context"
	"fmt"

	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
)

// apiGatewayAPI is the slice of the apigatewayv2 client the lister needs.
type apiGatewayAPI interface {
	GetRoutes(ctx context.Context, params *apigatewayv2.GetRoutesInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetRoutesOutput, error)
}

// APIRouteLister enumerates the routes of one HTTP API via the
// apigatewayv2 control plane, following pagination.
type APIRouteLister struct {
	client apiGatewayAPI
	apiID  string
	lgr    logger.Logger
}

// NewAPIRouteLister builds a lister for the given gateway.
func NewAPIRouteLister(client apiGatewayAPI, apiID string, lgr logger.Logger) *APIRouteLister {
	return &APIRouteLister{client: client, apiID: apiID, lgr: lgr}
}

// ListRoutes implements RouteLister. Malformed route keys (including the
// literal "$default" catch-all, which has no method/path form) are skipped
// with a warning; they never abort the listing.
func (l *APIRouteLister) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	var (
		routes []domain.Route
		token  *string
	)
	for {
		out, err := l.client.GetRoutes(ctx, &apigatewayv2.GetRoutesInput{
			ApiId:     aws.String(l.apiID),
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list routes for api %s: %w", l.apiID, err)
		}

		for _, item := range out.Items {
			key := aws.ToString(item.RouteKey)
			route, err := domain.ParseRouteKey(key)
			if err != nil {
				l.lgr.Warn("skipping route with unparsable key",
					logger.F("route_key", key),
					logger.F("err", err))
				continue
			}
			routes = append(routes, route)
		}

		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return routes, nil
}
