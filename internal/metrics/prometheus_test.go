package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSkipped(t *testing.T) {
	before := testutil.ToFloat64(RecordsSkippedTotal.WithLabelValues("duplicate"))
	RecordSkipped("duplicate", 3)
	RecordSkipped("duplicate", 0)
	assert.Equal(t, before+3, testutil.ToFloat64(RecordsSkippedTotal.WithLabelValues("duplicate")))
}

func TestUpdateBucketStats(t *testing.T) {
	UpdateBucketStats("tomorrow", 3, 6, 10, 42, 2)
	assert.Equal(t, float64(42), testutil.ToFloat64(BucketEntities.WithLabelValues("tomorrow", "props")))
	assert.Equal(t, float64(2), testutil.ToFloat64(BucketEntities.WithLabelValues("tomorrow", "slates")))
}

func TestRecordRotationSetsLastSuccess(t *testing.T) {
	RecordRotation("success", 1.5)
	assert.Greater(t, testutil.ToFloat64(LastSuccessfulRotation), float64(0))
}
