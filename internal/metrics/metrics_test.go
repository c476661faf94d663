package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStore(t *testing.T) {
	ok := StoreOperations.WithLabelValues("load_graph", "success")
	failed := StoreOperations.WithLabelValues("load_graph", "error")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ObserveStore("load_graph", nil)
	ObserveStore("load_graph", errors.New("boom"))
	ObserveStore("load_graph", nil)

	assert.Equal(t, beforeOK+2, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}
