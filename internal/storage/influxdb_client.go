package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/logger"
)

// InfluxDBClient writes business events to InfluxDB as time-series points
// for retention-friendly trend dashboards.
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	org      string
	bucket   string
}

// InfluxDBConfig holds InfluxDB connection configuration
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewInfluxDBClient creates a new InfluxDB client and verifies connectivity
func NewInfluxDBClient(config InfluxDBConfig) (*InfluxDBClient, error) {
	client := influxdb2.NewClient(config.URL, config.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s %s", health.Status, msg)
	}

	logger.Info("InfluxDB connection established", map[string]interface{}{
		"url":    config.URL,
		"org":    config.Org,
		"bucket": config.Bucket,
	})

	return &InfluxDBClient{
		client:   client,
		writeAPI: client.WriteAPI(config.Org, config.Bucket),
		org:      config.Org,
		bucket:   config.Bucket,
	}, nil
}

// Write stores an event as a time-series point. Writes are buffered and
// non-blocking; this satisfies the events.Sink interface.
func (c *InfluxDBClient) Write(event models.SystemEvent) error {
	fields := map[string]interface{}{
		"outcome_status": event.OutcomeStatus,
	}
	if len(event.Metadata) > 0 {
		var metadata map[string]interface{}
		if err := json.Unmarshal(event.Metadata, &metadata); err == nil {
			for k, v := range metadata {
				fields[k] = v
			}
		}
	}

	p := influxdb2.NewPoint(
		"business_event",
		map[string]string{
			"event_id":   event.ID,
			"event_type": event.EventType,
			"channel":    event.Channel,
			"client_id":  event.ClientID,
			"trainer_id": event.TrainerID,
		},
		fields,
		event.OccurredAt,
	)

	c.writeAPI.WritePoint(p)
	return nil
}

// Close flushes buffered writes and shuts the client down
func (c *InfluxDBClient) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}
