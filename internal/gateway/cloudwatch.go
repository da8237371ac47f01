package gateway

import (
	"context"
	"fmt"
	"time"

	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	apiGatewayNamespace = "AWS/ApiGateway"
	windowPeriod        = 60 * time.Second
)

// cloudWatchAPI is the slice of the CloudWatch client the source needs.
type cloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// CloudWatchSource reads per-route API Gateway statistics from CloudWatch
// with the backend's finest aggregation period (60s) over the trailing
// minute.
type CloudWatchSource struct {
	client cloudWatchAPI
	apiID  string
	stage  string
	lgr    logger.Logger
	now    func() time.Time
}

// NewCloudWatchSource builds a source for the given gateway and stage.
func NewCloudWatchSource(client cloudWatchAPI, apiID, stage string, lgr logger.Logger) *CloudWatchSource {
	return &CloudWatchSource{
		client: client,
		apiID:  apiID,
		stage:  stage,
		lgr:    lgr,
		now:    time.Now,
	}
}

// Fetch implements StatSource.
func (s *CloudWatchSource) Fetch(ctx context.Context, route domain.Route, stat domain.Statistic, metric domain.MetricName) (float64, bool, error) {
	end := s.now().UTC()
	start := end.Add(-windowPeriod)

	out, err := s.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(apiGatewayNamespace),
		MetricName: aws.String(string(metric)),
		Dimensions: []types.Dimension{
			{Name: aws.String("ApiId"), Value: aws.String(s.apiID)},
			{Name: aws.String("Method"), Value: aws.String(route.Method)},
			{Name: aws.String("Resource"), Value: aws.String(route.Path)},
			{Name: aws.String("Stage"), Value: aws.String(s.stage)},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(int32(windowPeriod.Seconds())),
		Statistics: []types.Statistic{types.Statistic(stat)},
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s(%s) for route %s: %v", ErrSourceUnavailable, metric, stat, route, err)
	}

	dp := latestDatapoint(out.Datapoints)
	if dp == nil {
		// No traffic in the window. Common case, not a fault.
		return 0, false, nil
	}

	switch stat {
	case domain.StatisticAverage:
		return aws.ToFloat64(dp.Average), true, nil
	default:
		return aws.ToFloat64(dp.Sum), true, nil
	}
}

// latestDatapoint picks the most recent datapoint; CloudWatch does not
// guarantee ordering.
func latestDatapoint(dps []types.Datapoint) *types.Datapoint {
	var latest *types.Datapoint
	for i := range dps {
		dp := &dps[i]
		if latest == nil {
			latest = dp
			continue
		}
		if dp.Timestamp != nil && latest.Timestamp != nil && dp.Timestamp.After(*latest.Timestamp) {
			latest = dp
		}
	}
	return latest
}
