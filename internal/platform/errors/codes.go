// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Run and report errors
	CodeEmptyResult        Code = "EMPTY_RESULT"
	CodeInvalidCombatant   Code = "INVALID_COMBATANT"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeIndexOutOfBounds   Code = "INDEX_OUT_OF_BOUNDS"
	CodeSerializationError Code = "SERIALIZATION_ERROR"
	CodeUnexpectedState    Code = "UNEXPECTED_STATE"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeRetryExhausted     Code = "RETRY_EXHAUSTED"

	// Dice errors
	CodeDiceInvalidFormula    Code = "DICE_INVALID_FORMULA"
	CodeDiceInvalidMultiplier Code = "DICE_INVALID_MULTIPLIER"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// ExitCode maps domain codes to process exit codes for CLI entry points.
func (c Code) ExitCode() int {
	switch c {
	// Caller supplied a bad scenario or flag.
	case CodeValidationFailed,
		CodeInvalidCombatant,
		CodeSerializationError,
		CodeDiceInvalidFormula,
		CodeDiceInvalidMultiplier:
		return 2

	// Simulation produced nothing usable.
	case CodeEmptyResult,
		CodeRetryExhausted,
		CodeNotFound:
		return 3

	// Internal invariant broken.
	case CodeUnexpectedState,
		CodeIndexOutOfBounds,
		CodeResourceExhausted:
		return 4

	default:
		return 1
	}
}
