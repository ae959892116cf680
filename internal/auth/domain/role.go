package domain

import "time"

type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Permission names follow a "domain.action" convention, e.g. "ventas.leer".
// Inactive permissions stay linked to roles but never resolve.
type Permission struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
