// Package pipeline runs one playlist request end to end: it resolves the
// playlist, then materializes, delivers and removes each track in order,
// reporting progress to the requester as it goes.
//
// A run never fails as a whole once the track list is known. Each track's
// failure is recorded and the run moves on; each artifact is removed from
// disk once its delivery attempt is over.
package pipeline
