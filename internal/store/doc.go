// Package store defines the persistence contracts for Users and Tasks and the
// query descriptor (filter, sort, paging) that list operations accept.
//
// Implementations live in internal/platform/postgres, internal/platform/sqlite
// and internal/store/memory. Handlers and services depend only on the
// interfaces declared here.
package store
