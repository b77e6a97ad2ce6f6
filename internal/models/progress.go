package models

import "strconv"

// UnknownTotal marks a batch whose total row count is not known yet.
const UnknownTotal = -1

// MaxBatchErrors is the error count after which failed requests are no longer retried.
const MaxBatchErrors = 10

// statusEvery is the completion interval at which the status line is refreshed.
const statusEvery = 10

// BatchState holds the progress counters of a batch. Every transition returns a new value,
// so handlers pass the state along instead of touching shared counters.
type BatchState struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	ErrorCount int `json:"errorCount"`
}

// NewBatchState returns the state of a batch whose input is still being parsed.
func NewBatchState() BatchState {
	return BatchState{Total: UnknownTotal}
}

// WithTotal records the total number of rows once parsing is done.
func (s BatchState) WithTotal(total int) BatchState {
	s.Total = total
	return s
}

// Complete counts one settled request, successful or not.
func (s BatchState) Complete() BatchState {
	s.Completed++
	return s
}

// Uncomplete takes back one completion before a row is geocoded again. It never goes below zero.
func (s BatchState) Uncomplete() BatchState {
	if s.Completed > 0 {
		s.Completed--
	}
	return s
}

// Fail counts one failed request.
func (s BatchState) Fail() BatchState {
	s.ErrorCount++
	return s
}

// Restart resets completions for a full re-run over total rows. The error count is kept.
func (s BatchState) Restart(total int) BatchState {
	s.Completed = 0
	s.Total = total
	return s
}

// CanRetry reports whether a request that failed after retryCount retries may be sent again.
// The error count is read before the current failure is counted.
func (s BatchState) CanRetry(retryCount int) bool {
	return retryCount < MaxRetries && s.ErrorCount < MaxBatchErrors
}

// Done reports whether every known row has settled.
func (s BatchState) Done() bool {
	return s.Completed == s.Total
}

// ShouldRefresh reports whether the status line is due for a refresh.
func (s BatchState) ShouldRefresh() bool {
	return s.Completed%statusEvery == 0 || s.Done()
}

// StatusText renders the human readable progress line.
func (s BatchState) StatusText() string {
	text := "Geocoding in progress: "
	if s.Done() {
		text = "Geocoding complete: "
	}

	text += strconv.Itoa(s.Completed)
	if s.Total > 0 {
		text += "/" + strconv.Itoa(s.Total)
	}

	return text + " geocodes are completed and editable."
}
