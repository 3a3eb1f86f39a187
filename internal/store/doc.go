// Package store defines the record store contract and the typed account,
// session and check collections built on it. Backends live under
// internal/platform; services depend only on the interfaces here.
package store
