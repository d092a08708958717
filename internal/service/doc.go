// Package service implements the task and user use cases on top of the store
// interfaces.
//
// Tasks and users reference each other: a task carries its assignee's id and
// name, and a user lists the ids of its assigned, incomplete tasks. Every
// write through TaskService or UserService updates both sides with separate,
// sequential store calls. There is no transaction spanning them, so a failure
// or a concurrent request can leave the two sides disagreeing until the next
// Reconciler sweep repairs them.
package service
