// Package sqlite provides an embedded SQLite implementation of the store
// interfaces, built on gorm with the pure-Go modernc driver.
//
// Dates are stored as Unix milliseconds, booleans as integers and
// pendingTasks as a JSON array so that the shared sqlfilter compiler can
// express every filter the other backends support.
package sqlite
