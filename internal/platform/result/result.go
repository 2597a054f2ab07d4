package result

import (
	"net/http"
	"sync"

	"extrt/internal/platform/health"
)

// State is the terminal state recorded on an OperationResult.
type State string

const (
	StatePending             State = "pending"
	StateSuccess             State = "success"
	StateWarning             State = "warning"
	StateError               State = "error"
	StateForbidden           State = "forbidden"
	StateConflict            State = "conflict"
	StateNotFound            State = "not_found"
	StateAccepted            State = "accepted"
	StateOK                  State = "ok"
	StateNotAcceptable       State = "not_acceptable"
	StateInternalServerError State = "internal_server_error"
	StateInsufficientStorage State = "insufficient_storage"
	StateBadRequest          State = "bad_request"
	StateUnprocessableEntity State = "unprocessable_entity"
)

// OperationResult understands the outcome of a server-side operation.
type OperationResult interface {
	Success(t health.HealthStateType) health.ServerHealthState
	Error(message, description string, t health.HealthStateType) health.ServerHealthState
	Warning(message, description string, t health.HealthStateType) health.ServerHealthState
	Forbidden(message, description string, t health.HealthStateType) health.ServerHealthState
	Conflict(message, description string, t health.HealthStateType)
	NotFound(message, description string, t health.HealthStateType)
	Accepted(message, description string, t health.HealthStateType)
	OK(message string)
	NotAcceptable(message, description string, t health.HealthStateType)
	InternalServerError(message string, t health.HealthStateType)
	InsufficientStorage(message, description string, t health.HealthStateType)
	BadRequest(message, description string, t health.HealthStateType)
	UnprocessableEntity(message, description string, t health.HealthStateType)

	ServerHealthState() health.ServerHealthState
	CanContinue() bool
	State() State
	Message() string
}

// HTTPOperationResult records one terminal state and maps it onto an HTTP status.
// Once an error-class state is recorded CanContinue stays false, even if a
// success-like setter is called afterwards.
type HTTPOperationResult struct {
	mu       sync.Mutex
	state    State
	code     int
	message  string
	health   health.ServerHealthState
	failed   bool
	recorded bool
}

func NewHTTPOperationResult() *HTTPOperationResult {
	return &HTTPOperationResult{state: StatePending, code: http.StatusOK}
}

func (r *HTTPOperationResult) Success(t health.HealthStateType) health.ServerHealthState {
	return r.record(StateSuccess, http.StatusOK, "", health.Success(t))
}

func (r *HTTPOperationResult) Error(message, description string, t health.HealthStateType) health.ServerHealthState {
	return r.record(StateError, http.StatusBadRequest, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) Warning(message, description string, t health.HealthStateType) health.ServerHealthState {
	return r.record(StateWarning, http.StatusOK, message, health.Warning(message, description, t))
}

func (r *HTTPOperationResult) Forbidden(message, description string, t health.HealthStateType) health.ServerHealthState {
	return r.record(StateForbidden, http.StatusForbidden, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) Conflict(message, description string, t health.HealthStateType) {
	r.record(StateConflict, http.StatusConflict, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) NotFound(message, description string, t health.HealthStateType) {
	r.record(StateNotFound, http.StatusNotFound, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) Accepted(message, description string, t health.HealthStateType) {
	r.record(StateAccepted, http.StatusAccepted, message, health.Success(t))
}

func (r *HTTPOperationResult) OK(message string) {
	r.record(StateOK, http.StatusOK, message, health.Success(health.General(health.GlobalScope)))
}

func (r *HTTPOperationResult) NotAcceptable(message, description string, t health.HealthStateType) {
	r.record(StateNotAcceptable, http.StatusNotAcceptable, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) InternalServerError(message string, t health.HealthStateType) {
	r.record(StateInternalServerError, http.StatusInternalServerError, message, health.Error(message, "", t))
}

func (r *HTTPOperationResult) InsufficientStorage(message, description string, t health.HealthStateType) {
	r.record(StateInsufficientStorage, http.StatusInsufficientStorage, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) BadRequest(message, description string, t health.HealthStateType) {
	r.record(StateBadRequest, http.StatusBadRequest, message, health.Error(message, description, t))
}

func (r *HTTPOperationResult) UnprocessableEntity(message, description string, t health.HealthStateType) {
	r.record(StateUnprocessableEntity, http.StatusUnprocessableEntity, message, health.Error(message, description, t))
}

// ServerHealthState returns the state attached by the last setter, or a
// general success state while nothing has been recorded.
func (r *HTTPOperationResult) ServerHealthState() health.ServerHealthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recorded {
		return health.Success(health.General(health.GlobalScope))
	}
	return r.health
}

func (r *HTTPOperationResult) CanContinue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.failed
}

func (r *HTTPOperationResult) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *HTTPOperationResult) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

func (r *HTTPOperationResult) HTTPCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func (r *HTTPOperationResult) record(state State, code int, message string, h health.ServerHealthState) health.ServerHealthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.code = code
	r.message = message
	r.health = h
	r.recorded = true
	if !state.successLike() {
		r.failed = true
	}
	return h
}

func (s State) successLike() bool {
	switch s {
	case StatePending, StateSuccess, StateOK, StateAccepted:
		return true
	default:
		return false
	}
}
