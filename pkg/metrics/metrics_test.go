package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "locked", Outcome(fmt.Errorf("%w: held by bob", apperr.ErrLocked)))
	require.Equal(t, "unavailable", Outcome(apperr.Store("find", errors.New("eof"))))
	require.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)
	DocumentOperations.WithLabelValues("create", "ok").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["docflow_document_operations_total"])
}
