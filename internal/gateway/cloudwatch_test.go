package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type fakeCloudWatch struct {
	datapoints []cwtypes.Datapoint
	err        error
	lastInput  *cloudwatch.GetMetricStatisticsInput
}

func (f *fakeCloudWatch) GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.GetMetricStatisticsOutput{Datapoints: f.datapoints}, nil
}

var testRoute = domain.Route{Method: "GET", Path: "/users"}

func TestFetchNoDatapointsYieldsZero(t *testing.T) {
	source := NewCloudWatchSource(&fakeCloudWatch{}, "api123", "$default", &logger.NopLogger{})

	value, ok, err := source.Fetch(context.Background(), testRoute, domain.StatisticSum, domain.MetricCount)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if ok {
		t.Error("ok = true, expected false when the window has no datapoints")
	}
	if value != 0 {
		t.Errorf("value = %v, expected 0", value)
	}
}

func TestFetchSumAndAverage(t *testing.T) {
	now := time.Now()
	cw := &fakeCloudWatch{datapoints: []cwtypes.Datapoint{
		{Timestamp: aws.Time(now), Sum: aws.Float64(42), Average: aws.Float64(7)},
	}}
	source := NewCloudWatchSource(cw, "api123", "$default", &logger.NopLogger{})

	value, ok, err := source.Fetch(context.Background(), testRoute, domain.StatisticSum, domain.MetricCount)
	if err != nil || !ok {
		t.Fatalf("Fetch(Sum) = (%v, %v, %v)", value, ok, err)
	}
	if value != 42 {
		t.Errorf("Sum value = %v, expected 42", value)
	}

	value, ok, err = source.Fetch(context.Background(), testRoute, domain.StatisticAverage, domain.MetricLatency)
	if err != nil || !ok {
		t.Fatalf("Fetch(Average) = (%v, %v, %v)", value, ok, err)
	}
	if value != 7 {
		t.Errorf("Average value = %v, expected 7", value)
	}
}

func TestFetchPicksLatestDatapoint(t *testing.T) {
	now := time.Now()
	cw := &fakeCloudWatch{datapoints: []cwtypes.Datapoint{
		{Timestamp: aws.Time(now.Add(-2 * time.Minute)), Sum: aws.Float64(1)},
		{Timestamp: aws.Time(now), Sum: aws.Float64(3)},
		{Timestamp: aws.Time(now.Add(-time.Minute)), Sum: aws.Float64(2)},
	}}
	source := NewCloudWatchSource(cw, "api123", "$default", &logger.NopLogger{})

	value, _, err := source.Fetch(context.Background(), testRoute, domain.StatisticSum, domain.MetricCount)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if value != 3 {
		t.Errorf("value = %v, expected the newest datapoint (3)", value)
	}
}

func TestFetchBackendFailure(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("AccessDenied")}
	source := NewCloudWatchSource(cw, "api123", "$default", &logger.NopLogger{})

	_, _, err := source.Fetch(context.Background(), testRoute, domain.StatisticSum, domain.MetricCount)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Fetch error = %v, expected ErrSourceUnavailable", err)
	}
}

func TestFetchQueryShape(t *testing.T) {
	cw := &fakeCloudWatch{}
	source := NewCloudWatchSource(cw, "api123", "prod", &logger.NopLogger{})
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return fixed }

	_, _, err := source.Fetch(context.Background(), testRoute, domain.StatisticAverage, domain.MetricIntegrationLatency)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	in := cw.lastInput
	if aws.ToString(in.Namespace) != "AWS/ApiGateway" {
		t.Errorf("Namespace = %q", aws.ToString(in.Namespace))
	}
	if aws.ToString(in.MetricName) != "IntegrationLatency" {
		t.Errorf("MetricName = %q", aws.ToString(in.MetricName))
	}
	if aws.ToInt32(in.Period) != 60 {
		t.Errorf("Period = %d, expected 60", aws.ToInt32(in.Period))
	}
	if !in.EndTime.Equal(fixed) || !in.StartTime.Equal(fixed.Add(-time.Minute)) {
		t.Errorf("window = [%v, %v], expected the trailing minute", in.StartTime, in.EndTime)
	}

	dims := map[string]string{}
	for _, d := range in.Dimensions {
		dims[aws.ToString(d.Name)] = aws.ToString(d.Value)
	}
	want := map[string]string{"ApiId": "api123", "Method": "GET", "Resource": "/users", "Stage": "prod"}
	for k, v := range want {
		if dims[k] != v {
			t.Errorf("dimension %s = %q, expected %q", k, dims[k], v)
		}
	}
}
