package apperr

type Kind string

type AppError struct {
	Kind      Kind
	PublicMsg string            // safe to show to the end user
	Fields    map[string]string // field-level validation messages (optional)
	Err       error             // internal error (for logs)
}
