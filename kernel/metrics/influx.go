package metrics

import (
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const measurement = "rbrowse_fetch"

// InfluxRecorder writes samples through the non-blocking write API. Write
// errors are logged and never reach the caller.
type InfluxRecorder struct {
	client influxdb2.Client
	writer api.WriteAPI
	done   chan struct{}
}

func NewInfluxRecorder(cfg *model.InfluxConfig) (*InfluxRecorder, error) {
	if cfg == nil || cfg.Url == "" {
		return nil, errors.New("influx url is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("influx bucket is required")
	}
	client := influxdb2.NewClientWithOptions(cfg.Url, cfg.Token, influxdb2.DefaultOptions().SetBatchSize(20))
	writer := client.WriteAPI(cfg.Org, cfg.Bucket)
	// the error channel must be taken before the first write
	errCh := writer.Errors()
	r := &InfluxRecorder{
		client: client,
		writer: writer,
		done:   make(chan struct{}),
	}
	go r.drainErrors(errCh)
	return r, nil
}

// NewRecorder returns an InfluxRecorder when cfg names a server, Nop otherwise.
func NewRecorder(cfg *model.InfluxConfig) (Recorder, error) {
	if cfg == nil || cfg.Url == "" {
		return Nop, nil
	}
	return NewInfluxRecorder(cfg)
}

func (r *InfluxRecorder) drainErrors(errCh <-chan error) {
	defer close(r.done)
	log := logrus.WithField("component", "metrics")
	for err := range errCh {
		log.WithError(err).Warn("unable to write fetch sample")
	}
}

func (r *InfluxRecorder) RecordFetch(s FetchSample) {
	tags := map[string]string{
		"cluster":   s.ClusterId,
		"kind":      string(s.Kind),
		"direction": string(s.Direction),
		"failed":    strconv.FormatBool(s.Failed),
	}
	fields := map[string]interface{}{
		"items":      s.Items,
		"elapsed_ms": float64(s.Elapsed) / float64(time.Millisecond),
		"superseded": s.Superseded,
	}
	r.writer.WritePoint(influxdb2.NewPoint(measurement, tags, fields, time.Now()))
}

// Close flushes pending samples and releases the client.
func (r *InfluxRecorder) Close() {
	r.writer.Flush()
	r.client.Close()
	select {
	case <-r.done:
	case <-time.After(time.Second):
	}
}
