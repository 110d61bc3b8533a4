package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldUserID      = "user_id"
	FieldChatID      = "chat_id"
	FieldCommand     = "command"
	FieldCallback    = "callback"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldDescLen     = "description_length"
	FieldSheet       = "sheet"
	FieldFailure     = "failure_kind"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSuccess     = "success"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentSession = "session"
	ComponentLedger  = "ledger"
	ComponentConfig  = "config"
)

// Operations defines standard operation names.
const (
	OpCommand  = "command"
	OpCallback = "callback"
	OpText     = "text"
	OpCommit   = "commit"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
