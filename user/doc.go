// Package user implements create, fetch and modify operations for user
// records: input validation, normalization, and translation of store
// condition failures into domain errors.
//
// A [Service] is constructed once with a [Store] and is safe for concurrent
// use. It holds no mutable state; concurrent writes to the same id are
// resolved by the store's conditional writes, and the loser observes
// [ErrAlreadyExists] or [ErrNotFound].
//
// # Errors
//
// Every operation failure is an [*Error] whose kind matches one of:
//
//   - [ErrInvalidArgument] - missing or blank id
//   - [ErrValidationFailed] - one or more field rules violated
//   - [ErrAlreadyExists] - create on an occupied id
//   - [ErrNotFound] - fetch or modify on an absent id
//   - [ErrStoreUnavailable] - any other store failure
package user
