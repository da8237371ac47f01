package gateway

import (
	"context"
	"errors"
	"testing"

	"apigw-exporter/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	apitypes "github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
)

// fakeRoutesAPI serves canned GetRoutes pages.
type fakeRoutesAPI struct {
	pages [][]string // route keys per page
	err   error
	calls int
}

func (f *fakeRoutesAPI) GetRoutes(ctx context.Context, params *apigatewayv2.GetRoutesInput, optFns ...func(*apigatewayv2.Options)) (*apigatewayv2.GetRoutesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	page := 0
	if params.NextToken != nil {
		page = int((*params.NextToken)[0] - '0')
	}
	f.calls++

	out := &apigatewayv2.GetRoutesOutput{}
	for _, key := range f.pages[page] {
		out.Items = append(out.Items, apitypes.Route{RouteKey: aws.String(key)})
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

func TestListRoutes(t *testing.T) {
	api := &fakeRoutesAPI{pages: [][]string{{"GET /a", "POST /b"}}}
	lister := NewAPIRouteLister(api, "api123", &logger.NopLogger{})

	routes, err := lister.ListRoutes(context.Background())
	if err != nil {
		t.Fatalf("ListRoutes returned error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, expected 2", len(routes))
	}
	if routes[0].Method != "GET" || routes[0].Path != "/a" {
		t.Errorf("routes[0] = %+v, expected GET /a", routes[0])
	}
	if routes[1].Method != "POST" || routes[1].Path != "/b" {
		t.Errorf("routes[1] = %+v, expected POST /b", routes[1])
	}
}

func TestListRoutesSkipsMalformedKeys(t *testing.T) {
	api := &fakeRoutesAPI{pages: [][]string{{"GETnoSpace", "GET /ok", "$default"}}}
	lister := NewAPIRouteLister(api, "api123", &logger.NopLogger{})

	routes, err := lister.ListRoutes(context.Background())
	if err != nil {
		t.Fatalf("ListRoutes returned error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, expected only the well-formed one", len(routes))
	}
	if routes[0].Path != "/ok" {
		t.Errorf("kept route %+v, expected GET /ok", routes[0])
	}
}

func TestListRoutesFollowsPagination(t *testing.T) {
	api := &fakeRoutesAPI{pages: [][]string{{"GET /a"}, {"GET /b"}, {"GET /c"}}}
	lister := NewAPIRouteLister(api, "api123", &logger.NopLogger{})

	routes, err := lister.ListRoutes(context.Background())
	if err != nil {
		t.Fatalf("ListRoutes returned error: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, expected 3 across pages", len(routes))
	}
	if api.calls != 3 {
		t.Errorf("made %d GetRoutes calls, expected 3", api.calls)
	}
}

func TestListRoutesPropagatesError(t *testing.T) {
	backendErr := errors.New("throttled")
	api := &fakeRoutesAPI{err: backendErr}
	lister := NewAPIRouteLister(api, "api123", &logger.NopLogger{})

	_, err := lister.ListRoutes(context.Background())
	if !errors.Is(err, backendErr) {
		t.Fatalf("ListRoutes error = %v, expected to wrap the backend error", err)
	}
}
