package repository

import (
	"github.com/google/uuid"
)

// Access selects which datastore credentials a transaction runs with.
// Scoped access is subject to row-level policies evaluated against the
// user id; service access bypasses them.
type Access struct {
	userID     uuid.UUID
	privileged bool
}

func AsUser(userID uuid.UUID) Access {
	return Access{userID: userID}
}

func AsService() Access {
	return Access{privileged: true}
}

func (a Access) Privileged() bool {
	return a.privileged
}

func (a Access) UserID() uuid.UUID {
	return a.userID
}

func (a Access) valid() bool {
	return a.privileged || a.userID != uuid.Nil
}

func (a Access) String() string {
	if a.privileged {
		return "service"
	}
	return "user:" + a.userID.String()
}
