package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

func ok(context.Context) error { return nil }

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", NewCheck("redis", func(context.Context) error { return assert.AnError }))
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, common.HealthUp, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler("dev").Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("all healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler("dev", NewCheck("redis", ok), NewCheck("minio", ok)).
			Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Components, 2)
		assert.Equal(t, "minio", resp.Components[0].Name)
		assert.Equal(t, "redis", resp.Components[1].Name)
	})

	t.Run("one down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler("dev",
			NewCheck("redis", ok),
			NewCheck("minio", func(context.Context) error { return assert.AnError }),
		).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, common.HealthDown, resp.Status)
		assert.Equal(t, common.HealthDown, resp.Components[0].Status)
		assert.Equal(t, assert.AnError.Error(), resp.Components[0].Message)
		assert.Equal(t, common.HealthUp, resp.Components[1].Status)
	})
}

//Personal.AI order the ending
