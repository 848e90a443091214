package errors

import "errors"

// Custom application errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("a user with this email already exists")
	ErrTodoNotFound      = errors.New("todo not found")
	ErrPermissionDenied  = errors.New("not enough permissions")
	ErrInvalidDateTime   = errors.New("invalid date/time")
	ErrValidation        = errors.New("validation failed")
	ErrLinkCodeInvalid   = errors.New("invalid or expired link code")
	ErrDatabaseOperation = errors.New("database operation failed") // Generic database error
	ErrInternalServer    = errors.New("internal server error")

	// Scheduler errors
	ErrNotInitialized   = errors.New("scheduler not initialized")   // Handle requested before Init or after Shutdown
	ErrSchedulerStopped = errors.New("scheduler is not running")    // Command submitted to a stopped (or never started) scheduler
	ErrStoreUnavailable = errors.New("record store unavailable")    // Hydration pass or timer firing could not read the store
	ErrSendFailure      = errors.New("failed to send notification") // Notification transport failed
)
