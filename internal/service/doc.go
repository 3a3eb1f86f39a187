// Package service contains the account, session and check use cases.
//
// Services validate input, resolve the caller from its session token and
// coordinate the record store collections. Multi-record changes (adding a
// check to an account, cascading an account delete) hold a per-account
// lock across their read-modify-write sequence; they are not transactional,
// so each one documents what it leaves behind when a later step fails.
package service
