// Package repository holds the portal's own MySQL-backed records. Bills,
// tenants and apartments belong to the backend; the portal only keeps an
// audit trail of the bill actions taken through it.
package repository

import "errors"

// ErrUnavailable is returned when the audit store is not configured.
// Handlers translate it into an HTTP 503 response.
var ErrUnavailable = errors.New("audit store unavailable")
