// Package query translates the list-endpoint query parameters (where, sort,
// select, skip, limit, count) into a store.Query and a response Projection.
//
// where, sort and select carry JSON documents. A where document is a field to
// value mapping where the value is either a literal (equality) or an object of
// operators ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin); $and and $or combine
// sub-documents. Literals are cast to the type of the field they are compared
// with, so an identifier field rejects values that are not identifiers.
package query
