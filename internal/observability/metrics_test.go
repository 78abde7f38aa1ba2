package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordWriteAndRejection(t *testing.T) {
	beforeOK := testutil.ToFloat64(activityWrites.WithLabelValues("create", "ok"))
	beforeRejected := testutil.ToFloat64(activityWrites.WithLabelValues("create", "rejected"))
	beforeOverlap := testutil.ToFloat64(activityRejections.WithLabelValues("TIME_OVERLAP"))

	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	RecordWrite("create", ts)
	RecordRejection("create", "TIME_OVERLAP")

	require.Equal(t, beforeOK+1, testutil.ToFloat64(activityWrites.WithLabelValues("create", "ok")))
	require.Equal(t, beforeRejected+1, testutil.ToFloat64(activityWrites.WithLabelValues("create", "rejected")))
	require.Equal(t, beforeOverlap+1, testutil.ToFloat64(activityRejections.WithLabelValues("TIME_OVERLAP")))
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastWriteGauge))
}

func TestRecordWebhookDelivery(t *testing.T) {
	before := testutil.ToFloat64(webhookDeliveries.WithLabelValues("error"))
	RecordWebhookDelivery(false)
	require.Equal(t, before+1, testutil.ToFloat64(webhookDeliveries.WithLabelValues("error")))
}
