package statement

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for unknown companies and statements.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateStatementID means the allocated correlative already exists.
	// CommitStatement retries once before surfacing it.
	ErrDuplicateStatementID = errors.New("duplicate statement id")

	// ErrAlreadyBilled matches every *ConflictError.
	ErrAlreadyBilled = errors.New("records already billed")

	// ErrLocked means another commit for the same company is in progress.
	ErrLocked = errors.New("another statement for this company is being committed")
)

// ValidationError is a request the caller has to correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConflictError reports records that another statement linked first. The id
// lists are empty when the conflict was only detected by a unique index.
type ConflictError struct {
	ProductionIDs []uint
	ExpenseIDs    []uint
}

func (e *ConflictError) Error() string {
	var parts []string
	if len(e.ProductionIDs) > 0 {
		parts = append(parts, fmt.Sprintf("production %v", e.ProductionIDs))
	}
	if len(e.ExpenseIDs) > 0 {
		parts = append(parts, fmt.Sprintf("expenses %v", e.ExpenseIDs))
	}
	if len(parts) == 0 {
		return "records already billed by another statement"
	}
	return "already billed by another statement: " + strings.Join(parts, ", ")
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyBilled
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
