package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) ComponentHealth   { return ComponentHealth{Status: StatusUp} }
func down(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown, Message: "gone"} }

func TestRunAggregation(t *testing.T) {
	tests := []struct {
		name     string
		critical Check
		optional Check
		want     Status
	}{
		{"all up", up, up, StatusUp},
		{"optional down", up, down, StatusDegraded},
		{"critical down", down, up, StatusDown},
		{"both down", down, down, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("dictionary", tt.critical)
			c.RegisterOptional("redis", tt.optional)
			report := c.Run(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, 2)
			assert.True(t, report.Components["redis"].Optional)
			assert.NotEmpty(t, report.Components["dictionary"].Latency)
		})
	}
}

func TestPingCheck(t *testing.T) {
	ok := PingCheck(func(context.Context) error { return nil })
	assert.Equal(t, StatusUp, ok(context.Background()).Status)

	bad := PingCheck(func(context.Context) error { return errors.New("connection refused") })
	got := bad(context.Background())
	assert.Equal(t, StatusDown, got.Status)
	assert.Equal(t, "connection refused", got.Message)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("dictionary", up)
	c.RegisterOptional("kafka", down)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("dictionary", down)
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
