// Package ledger defines the outbound port for the spreadsheet that is the
// system of record, and the coarse failure taxonomy surfaced to the user.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"gastos/internal/core"
)

// Appender appends exactly one finalized expense row to the ledger.
// Writes are not retried and carry no idempotency key; a partial
// server-side success is not compensated.
type Appender interface {
	Append(ctx context.Context, e core.Expense) error
}

// ErrSpreadsheetNotFound reports that the configured spreadsheet name
// matched no Drive file. Name lookup is how a missing spreadsheet normally
// surfaces, so it carries its own sentinel rather than an HTTP status.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// FailureKind is the only detail about a failed write that reaches the
// user. Raw error internals stay in the logs.
type FailureKind string

const (
	FailureAuth     FailureKind = "autenticação"
	FailureNotFound FailureKind = "planilha não encontrada"
	FailureQuota    FailureKind = "quota"
	FailureTimeout  FailureKind = "timeout"
	FailureNetwork  FailureKind = "rede"
)

// WriteError wraps a failed ledger write with its coarse category.
type WriteError struct {
	Kind FailureKind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger write (%s): %v", e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Categorize classifies a write failure. Unknown failures count as network
// errors, the broadest bucket.
func Categorize(err error) *WriteError {
	kind := FailureNetwork

	var apiErr *googleapi.Error
	switch {
	case errors.Is(err, ErrSpreadsheetNotFound):
		kind = FailureNotFound
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = FailureAuth
		case http.StatusNotFound:
			kind = FailureNotFound
		case http.StatusTooManyRequests:
			kind = FailureQuota
		}
	case errors.Is(err, context.DeadlineExceeded):
		kind = FailureTimeout
	}

	return &WriteError{Kind: kind, Err: err}
}
