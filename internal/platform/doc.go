package platform

// Package platform contains filesystem helpers used around downloads (work
// directories, extension forcing, cleanup) and the parsing of user-supplied
// playlist references into provider IDs.
