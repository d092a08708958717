// Package domain defines the core entities of the task board, Users and Tasks,
// together with their construction and validation rules.
//
// The entities carry the denormalized references that link them: a Task stores
// the identifier and name of its assignee, and a User stores the identifiers of
// the Tasks it still has to complete. Keeping those references consistent is the
// job of the service package; this package only guarantees that each entity is
// well formed on its own.
package domain
