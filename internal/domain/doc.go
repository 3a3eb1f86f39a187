// Package domain contains the core business entities of the application:
// accounts, sessions and monitoring-check definitions. It defines their
// persisted shape, the closed enumerations they use, and the validation
// rules every service applies before a record reaches the store.
//
// The JSON field names on these types are the on-disk format and must not
// change; existing record files are read back through them.
package domain
