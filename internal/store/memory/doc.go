// Package memory provides in-process implementations of the store interfaces.
//
// The stores keep entities in maps guarded by a mutex and evaluate filters in
// Go. They back the "memory" database driver and the handler and service
// tests.
package memory
