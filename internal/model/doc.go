package model

// Package model defines domain data structures used across the bot: track
// descriptors, audio artifacts, run state enums and the run summary. Values
// are plain structs with explicit state transitions; nothing here performs I/O.
