// Package archive defines the shared types and interfaces of the trivia archive:
// shows, rounds, categories and clues as parsed from the source site and as
// persisted by a Repository.
package archive
