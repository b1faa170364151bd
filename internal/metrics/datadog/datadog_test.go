package datadog

import (
	"reflect"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"

	"jsontable/internal/metrics"
)

// fakeClient records Count/Histogram calls; every other statsd method comes
// from the embedded nil interface and must not be called.
type fakeClient struct {
	statsd.ClientInterface

	counts []call
	hists  []call
	closed bool
}

type call struct {
	name  string
	value float64
	tags  []string
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.counts = append(f.counts, call{name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.hists = append(f.hists, call{name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

func TestBackend_ForwardsMetrics(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"kind": "analysed", "job": "j1"})
	b.ObserveHistogram(metrics.PassDuration, 0.25, metrics.Labels{"step": "lexical"})

	if len(fc.counts) != 1 || len(fc.hists) != 1 {
		t.Fatalf("calls: counts=%d hists=%d, want 1/1", len(fc.counts), len(fc.hists))
	}
	want := call{metrics.RowsTotal, 4, []string{"job:j1", "kind:analysed"}}
	if !reflect.DeepEqual(fc.counts[0], want) {
		t.Fatalf("count = %+v, want %+v", fc.counts[0], want)
	}
	if fc.hists[0].value != 0.25 || !reflect.DeepEqual(fc.hists[0].tags, []string{"step:lexical"}) {
		t.Fatalf("histogram = %+v", fc.hists[0])
	}

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !fc.closed {
		t.Fatalf("Flush did not close the client")
	}
}

func TestBackend_NilClientIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RowsTotal, 1, nil)
	b.ObserveHistogram(metrics.PassDuration, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("labelsToTags(nil) should be nil")
	}
}
