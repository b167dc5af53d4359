package resolver

// Package resolver turns a playlist reference into an ordered track list by
// paging through a metadata catalog. Resolution is fail-closed: any error on
// any page discards everything fetched so far and surfaces a single
// ResolutionError.
