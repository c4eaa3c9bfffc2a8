package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveApply(t *testing.T) {
	before := testutil.ToFloat64(IndexAppliesTotal.WithLabelValues("full", ResultOK))

	ObserveApply("full", ResultOK, time.Now())

	after := testutil.ToFloat64(IndexAppliesTotal.WithLabelValues("full", ResultOK))
	assert.Equal(t, before+1, after)
}

func TestObserveQuery(t *testing.T) {
	ObserveQuery("test_op", time.Now().Add(-time.Millisecond))

	count := testutil.CollectAndCount(DBQueryDurationSeconds)
	assert.GreaterOrEqual(t, count, 1)
}

func TestInboxFilesTotal(t *testing.T) {
	before := testutil.ToFloat64(InboxFilesTotal.WithLabelValues(ResultError))
	InboxFilesTotal.WithLabelValues(ResultError).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(InboxFilesTotal.WithLabelValues(ResultError)))
}

func TestTaskRunsTotal(t *testing.T) {
	before := testutil.ToFloat64(TaskRunsTotal.WithLabelValues("update-check", ResultOK))
	TaskRunsTotal.WithLabelValues("update-check", ResultOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TaskRunsTotal.WithLabelValues("update-check", ResultOK)))
}

func TestUpdatesAvailable(t *testing.T) {
	UpdatesAvailable.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(UpdatesAvailable))
}
