package services

// ValidationError represents malformed or missing input (HTTP 400)
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidStateError represents a transition not permitted from the order's
// current state (HTTP 409)
type InvalidStateError struct {
	Code    string
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NotFoundError represents an unknown order id (HTTP 404)
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// DispatchError represents a failed notification dispatch. It is logged by the
// emitting service and never surfaced to the caller of the triggering
// transition.
type DispatchError struct {
	Code    string
	Message string
}

func (e *DispatchError) Error() string {
	return e.Message
}
