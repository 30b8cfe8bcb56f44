package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldTraceID     = "trace_id"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldChatID      = "chat_id"
	FieldUserID      = "user_id"
	FieldExpenseID   = "expense_id"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldCategory    = "category"
	FieldConfidence  = "confidence"
	FieldCommand     = "command"
	FieldEventType   = "event_type"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentBot    = "bot"
	ComponentWorker = "worker"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpClassify = "classify"
	OpRetrain  = "retrain"
	OpNotify   = "notify"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithChat adds the Telegram chat and internal user IDs.
func (f LogFields) WithChat(chatID, userID int64) LogFields {
	f[FieldChatID] = chatID
	f[FieldUserID] = userID
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id int64, amount, currency, category string, confidence float64) LogFields {
	f[FieldExpenseID] = id
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	f[FieldCategory] = category
	f[FieldConfidence] = confidence
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
