// Package sqlite records clustered radar frames to a SQLite database.
//
// The schema is managed by golang-migrate from SQL files embedded in the
// binary. One recording session groups the frames produced with one set of
// clustering parameters.
package sqlite
