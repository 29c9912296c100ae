package keyset

// Package keyset implements keyset (cursor) pagination for GORM.
//
// Overview
//
// keyset paginates a sorted dataset by filtering on the sort-column values of
// a previously seen row (the boundary) instead of skipping a row count. Given
// a multi-column ordering and a boundary tuple, it builds a predicate
// equivalent to "this row is lexicographically after the boundary" and lets
// GORM execute it. Classic LIMIT/OFFSET pagination is available as a
// secondary mode.
//
// Key concepts
//   - Adapter: orchestrates pagination against a base GORM query. Owns
//     ordering reversal for backward pages, boundary extraction from result
//     rows, and row counting.
//   - Orderings: multi-column ordering with explicit directions, derived once
//     from the base query and immutable afterwards.
//   - Boundary: sort-column values of a row, usable as an opaque cursor via
//     EncodeBoundary/DecodeBoundary.
//   - Expression: a closed predicate tree (Comparison, And, Or) produced by
//     Calculate and rendered by a per-backend Dispatcher.
//   - Getters: maps sort columns to row fields so each returned item carries
//     its own boundary tuple.
//
// See README for examples and usage details.
