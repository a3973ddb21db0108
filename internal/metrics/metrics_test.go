package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/partyline/internal/core"
)

func TestHubCounters(t *testing.T) {
	m := New()

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.JoinOutcome("admitted")
	m.JoinOutcome("rejected")
	m.JoinOutcome("admitted")
	m.MessageRouted(core.MessagePublic)
	m.MessageRouted(core.MessageSystem)
	m.UserKicked()
	m.PresenceChanged(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeConns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.joins.WithLabelValues("admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.kicks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.presence))
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.UserKicked()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "partyline_kicks_total 1"))
}
