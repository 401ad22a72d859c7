// Package types defines the Store interface, the license record and schema
// types, operation results, and standard error types for the sheetledger
// system.
package types
