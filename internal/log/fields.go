package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldTransactionID  = "transaction_id"
	FieldCategory       = "category"
	FieldAmountCents    = "amount_cents"
	FieldDocumentPath   = "document_path"
	FieldCount          = "count"
	FieldPeriod         = "period"
	FieldConversationID = "conversation_id"
	FieldModel          = "model"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentAdvisor = "advisor"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpAdd      = "add"
	OpDelete   = "delete"
	OpList     = "list"
	OpPublish  = "publish"
	OpMirror   = "mirror"
	OpChat     = "chat"
	OpExport   = "export"
	OpAnalyze  = "analyze"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error message when err is non-nil
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, category string, amountCents int64) LogFields {
	f[FieldTransactionID] = id
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
