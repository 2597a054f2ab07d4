package domain

import "strings"

type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailure ExecutionStatus = "failure"
)

// ExecutionResult is the outcome of one plugin invocation. The zero value is
// a failure without messages.
type ExecutionResult struct {
	status   ExecutionStatus
	messages []string
}

func Success(messages ...string) ExecutionResult {
	return newResult(StatusSuccess, messages)
}

func Failure(messages ...string) ExecutionResult {
	return newResult(StatusFailure, messages)
}

func newResult(status ExecutionStatus, messages []string) ExecutionResult {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		if m != "" {
			out = append(out, m)
		}
	}
	return ExecutionResult{status: status, messages: out}
}

func (r ExecutionResult) Status() ExecutionStatus {
	if r.status == "" {
		return StatusFailure
	}
	return r.status
}

func (r ExecutionResult) IsSuccessful() bool {
	return r.status == StatusSuccess
}

func (r ExecutionResult) Messages() []string {
	return append([]string(nil), r.messages...)
}

func (r ExecutionResult) MessagesForDisplay() string {
	return strings.Join(r.messages, "\n")
}
