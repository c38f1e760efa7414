package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldSuccess   = "success"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldBackend   = "backend"
	FieldPath      = "path"
	FieldUsername  = "username"
	FieldDate      = "date"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldKind      = "kind"
	FieldIndex     = "index"
	FieldLabel     = "label"
	FieldAmount    = "amount"
	FieldIncome    = "income"
	FieldExpenses  = "expenses"
	FieldDays      = "days"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCLI      = "cli"
	ComponentAccounts = "accounts"
	ComponentSession  = "session"
	ComponentBuffer   = "buffer"
	ComponentStorage  = "storage"
	ComponentBackend  = "backend"
	ComponentAudit    = "audit"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpLoad      = "load"
	OpSave      = "save"
	OpRegister  = "register"
	OpSignIn    = "sign_in"
	OpSignOut   = "sign_out"
	OpHydrate   = "hydrate"
	OpAggregate = "aggregate"
	OpAudit     = "audit"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeConflict      = "conflict_error"
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

// WithUser adds the username. Passwords never go through LogFields.
func (f LogFields) WithUser(username string) LogFields {
	f[FieldUsername] = username
	return f
}

// WithDate adds the edited date
func (f LogFields) WithDate(date string) LogFields {
	f[FieldDate] = date
	return f
}

// WithLineItem adds line item fields
func (f LogFields) WithLineItem(kind string, index int, label, amount string) LogFields {
	f[FieldKind] = kind
	f[FieldIndex] = index
	f[FieldLabel] = label
	f[FieldAmount] = amount
	return f
}

// WithTotals adds day total fields
func (f LogFields) WithTotals(income, expenses string) LogFields {
	f[FieldIncome] = income
	f[FieldExpenses] = expenses
	return f
}

// ToSlice converts LogFields to a slice for slog, keys sorted so records are stable
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
