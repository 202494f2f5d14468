package log

import (
	"errors"
	"maps"
	"slices"

	"ledger/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldCollection = "collection"
	FieldCount      = "count"
	FieldDropped    = "dropped"
	FieldDuration   = "duration_ms"
	FieldRecordID   = "record_id"
	FieldMessageID  = "message_id"
	FieldAmount     = "amount"
	FieldCategoryID = "category_id"
	FieldPaymentID  = "payment_method_id"
	FieldTxType     = "tx_type"
	FieldReason     = "reason"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentCLI         = "cli"
	ComponentCoordinator = "coordinator"
	ComponentMutation    = "mutation"
	ComponentScheduler   = "scheduler"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentBackend     = "backend"
)

// Operations defines standard operation names
const (
	OpRefresh   = "refresh"
	OpFetch     = "fetch"
	OpNormalize = "normalize"
	OpPersist   = "persist"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpArchive   = "archive"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeParse         = "parse_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeRejection     = "remote_rejection"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeInternal      = "internal_error"
)

// ErrorType classifies err by the core error kinds. The outermost match
// wins when kinds are nested.
func ErrorType(err error) string {
	var (
		cfgErr   *core.ConfigurationError
		valErr   *core.ValidationError
		rej      *core.RemoteRejection
		netErr   *core.NetworkError
		parseErr *core.ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ErrorTypeConfiguration
	case errors.As(err, &valErr):
		return ErrorTypeValidation
	case errors.As(err, &rej):
		return ErrorTypeRejection
	case errors.As(err, &netErr):
		return ErrorTypeNetwork
	case errors.As(err, &parseErr):
		return ErrorTypeParse
	default:
		return ErrorTypeInternal
	}
}

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error and its type
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = ErrorType(err)
	}
	return f
}

// WithErrorType overrides the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCollection adds the mirrored collection name
func (f LogFields) WithCollection(collection string) LogFields {
	f[FieldCollection] = collection
	return f
}

// WithTransaction adds mutation payload fields
func (f LogFields) WithTransaction(id, amount, categoryID, paymentMethodID, txType string) LogFields {
	if id != "" {
		f[FieldRecordID] = id
	}
	f[FieldAmount] = amount
	f[FieldCategoryID] = categoryID
	f[FieldPaymentID] = paymentMethodID
	if txType != "" {
		f[FieldTxType] = txType
	}
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog, ordered by key
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		slice = append(slice, k, f[k])
	}
	return slice
}
