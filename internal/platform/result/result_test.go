package result_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"extrt/internal/platform/health"
	"extrt/internal/platform/result"
)

var pluginType = health.General(health.PluginScope("api-task"))

func TestPendingResultCanContinue(t *testing.T) {
	t.Parallel()
	r := result.NewHTTPOperationResult()
	require.True(t, r.CanContinue())
	require.Equal(t, result.StatePending, r.State())
	require.True(t, r.ServerHealthState().IsSuccess())
	require.Equal(t, http.StatusOK, r.HTTPCode())
}

func TestSuccessLikeSettersKeepContinuing(t *testing.T) {
	t.Parallel()
	r := result.NewHTTPOperationResult()
	r.Success(pluginType)
	require.True(t, r.CanContinue())
	r.Accepted("queued", "", pluginType)
	require.True(t, r.CanContinue())
	require.Equal(t, http.StatusAccepted, r.HTTPCode())
	r.OK("done")
	require.True(t, r.CanContinue())
	require.Equal(t, "done", r.Message())
}

func TestErrorClassSettersLatchCanContinue(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		apply func(result.OperationResult)
		state result.State
		code  int
	}{
		{"error", func(r result.OperationResult) { r.Error("m", "d", pluginType) }, result.StateError, http.StatusBadRequest},
		{"warning", func(r result.OperationResult) { r.Warning("m", "d", pluginType) }, result.StateWarning, http.StatusOK},
		{"forbidden", func(r result.OperationResult) { r.Forbidden("m", "d", pluginType) }, result.StateForbidden, http.StatusForbidden},
		{"conflict", func(r result.OperationResult) { r.Conflict("m", "d", pluginType) }, result.StateConflict, http.StatusConflict},
		{"not found", func(r result.OperationResult) { r.NotFound("m", "d", pluginType) }, result.StateNotFound, http.StatusNotFound},
		{"not acceptable", func(r result.OperationResult) { r.NotAcceptable("m", "d", pluginType) }, result.StateNotAcceptable, http.StatusNotAcceptable},
		{"internal server error", func(r result.OperationResult) { r.InternalServerError("m", pluginType) }, result.StateInternalServerError, http.StatusInternalServerError},
		{"insufficient storage", func(r result.OperationResult) { r.InsufficientStorage("m", "d", pluginType) }, result.StateInsufficientStorage, http.StatusInsufficientStorage},
		{"bad request", func(r result.OperationResult) { r.BadRequest("m", "d", pluginType) }, result.StateBadRequest, http.StatusBadRequest},
		{"unprocessable entity", func(r result.OperationResult) { r.UnprocessableEntity("m", "d", pluginType) }, result.StateUnprocessableEntity, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := result.NewHTTPOperationResult()
			tc.apply(r)
			require.False(t, r.CanContinue())
			require.Equal(t, tc.state, r.State())
			require.Equal(t, tc.code, r.HTTPCode())
			require.Equal(t, "m", r.ServerHealthState().Message)
			require.Equal(t, pluginType, r.ServerHealthState().Type)

			r.OK("recovered?")
			require.False(t, r.CanContinue())
		})
	}
}

func TestHealthStateFollowsLastSetter(t *testing.T) {
	t.Parallel()
	r := result.NewHTTPOperationResult()
	r.NotFound("missing", "plugin is not installed", pluginType)
	r.Conflict("busy", "another upgrade is running", pluginType)
	state := r.ServerHealthState()
	require.Equal(t, health.LevelError, state.Level)
	require.Equal(t, "busy", state.Message)
	require.Equal(t, "another upgrade is running", state.Description)
}
