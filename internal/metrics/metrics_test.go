package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEncodeProgressLifecycle(t *testing.T) {
	SetEncodeProgress("job-a", 12.5)
	SetEncodeProgress("job-a", 50)

	if got := testutil.ToFloat64(encodeProgress.WithLabelValues("job-a")); got != 50 {
		t.Errorf("gauge = %v, want 50", got)
	}
	if got, ok := EncodeProgress("job-a"); !ok || got != 50 {
		t.Errorf("EncodeProgress = %v, %v; want 50, true", got, ok)
	}

	before := testutil.ToFloat64(encodeJobs.WithLabelValues(ResultSuccess))
	FinishEncode("job-a", ResultSuccess, 3)

	if _, ok := EncodeProgress("job-a"); ok {
		t.Error("progress still cached after FinishEncode")
	}
	if got := testutil.ToFloat64(encodeJobs.WithLabelValues(ResultSuccess)); got != before+1 {
		t.Errorf("jobs_total{success} = %v, want %v", got, before+1)
	}
}

func TestPreviewCounters(t *testing.T) {
	frames := testutil.ToFloat64(previewFrames)
	IncPreviewFrames()
	IncPreviewFrames()
	if got := testutil.ToFloat64(previewFrames); got != frames+2 {
		t.Errorf("frames_total = %v, want %v", got, frames+2)
	}

	IncPreviewStopped("stalled")
	if got := testutil.ToFloat64(previewStops.WithLabelValues("stalled")); got < 1 {
		t.Errorf("stopped_total{stalled} = %v", got)
	}
}
