// Package id generates record identifiers. Stored IDs are opaque strings so
// restored backups may carry IDs from older systems; new records get UUIDs.
package id

import "github.com/google/uuid"

// New returns a random record ID like "3f1c2a9e-6b0d-4c57-9a1e-2f8d0c7b4e11".
func New() string {
	return uuid.NewString()
}
