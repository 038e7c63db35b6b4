package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/mineplan/core/metrics"
	"github.com/kilianp07/mineplan/infra/logger"
)

// InfluxSink writes schedule runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordScheduleRun writes one schedule_run point.
func (s *InfluxSink) RecordScheduleRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("schedule_id", ev.ScheduleID).
		AddTag("component", "planner").
		AddField("grid_hours", ev.GridHours).
		AddField("sites", ev.Sites).
		AddField("active_sites", ev.ActiveSites).
		AddField("tasks", ev.Tasks).
		AddField("requested_hours", ev.RequestedHours).
		AddField("placed_hours", ev.PlacedHours).
		AddField("dropped_hours", ev.DroppedHours()).
		AddField("delays", ev.Delays).
		AddField("changeover_delays", ev.ChangeoverDelays).
		AddField("mean_occupancy", round3(ev.Summary.MeanOccupancy)).
		AddField("peak_occupancy", ev.Summary.PeakOccupancy).
		AddField("elapsed_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSiteAllocations writes one site_allocation point per site.
func (s *InfluxSink) RecordSiteAllocations(allocs []coremetrics.SiteAllocation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, a := range allocs {
		p := write.NewPointWithMeasurement("site_allocation").
			AddTag("schedule_id", a.ScheduleID).
			AddTag("site_id", a.SiteID).
			AddField("requested_hours", a.Requested).
			AddField("placed_hours", a.Placed).
			SetTime(a.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunFailure writes a schedule_failure point.
func (s *InfluxSink) RecordRunFailure(ev coremetrics.FailureEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_failure").
		AddTag("component", "planner").
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
