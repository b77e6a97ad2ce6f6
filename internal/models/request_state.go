package models

// RequestStatus is the state of the latest geocode request of a row.
type RequestStatus string

const (
	StatusPending RequestStatus = "pending"
	StatusSuccess RequestStatus = "success"
	StatusFailed  RequestStatus = "failed"
)

// MaxRetries is the number of automatic retries a failed row request gets.
const MaxRetries = 1

// RequestState tracks a single in-flight row request.
type RequestState struct {
	RetryCount int
	Status     RequestStatus
}
