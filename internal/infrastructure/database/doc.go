// Package database provides the sqlite connection used by the optional
// sqlite message-persistence backend.
//
// It handles directory creation, connection pragmas (WAL, busy timeout,
// foreign keys), file permissions and health checks. Schema management
// lives with the repositories that own the tables.
package database
