package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown               = "UNKNOWN"
	CodeEmptyResult           = "EMPTY_RESULT"
	CodeInvalidCombatant      = "INVALID_COMBATANT"
	CodeResourceExhausted     = "RESOURCE_EXHAUSTED"
	CodeIndexOutOfBounds      = "INDEX_OUT_OF_BOUNDS"
	CodeSerializationError    = "SERIALIZATION_ERROR"
	CodeUnexpectedState       = "UNEXPECTED_STATE"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeRetryExhausted        = "RETRY_EXHAUSTED"
	CodeDiceInvalidFormula    = "DICE_INVALID_FORMULA"
	CodeDiceInvalidMultiplier = "DICE_INVALID_MULTIPLIER"
	CodeNotFound              = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: BaseLocale,
	messages: map[Code]string{
		CodeUnknown:               "An unexpected error occurred",
		CodeEmptyResult:           "The simulation produced no results{{if .Phase}} during {{.Phase}}{{end}}",
		CodeInvalidCombatant:      "Combatant {{.Name}} is invalid: {{.Reason}}",
		CodeResourceExhausted:     "Resource {{.Resource}} is exhausted",
		CodeIndexOutOfBounds:      "Index {{.Index}} is out of range",
		CodeSerializationError:    "Could not read or write {{.Path}}",
		CodeUnexpectedState:       "Simulation reached an unexpected state: {{.Reason}}",
		CodeValidationFailed:      "Invalid input: {{.Reason}}",
		CodeRetryExhausted:        "Seed {{.Seed}} failed after {{.Attempts}} attempts",
		CodeDiceInvalidFormula:    "Dice formula {{.Formula}} is not valid",
		CodeDiceInvalidMultiplier: "Dice multiplier must be 1 or 2",
		CodeNotFound:              "{{.Kind}} {{.ID}} was not found",
	},
}
