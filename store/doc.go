// Package store provides a DynamoDB adapter for single-key records with
// conditional writes.
//
// Every write carries an existence condition on the table key so that
// concurrent callers racing on the same key are serialized by DynamoDB
// itself:
//
//   - [Store.Put] succeeds only if no item with the key exists
//   - [Store.Update] succeeds only if an item with the key exists
//
// # Configuration
//
// Use [DefaultConfig] and override the table name:
//
//	cfg := store.DefaultConfig()
//	cfg.TableName = "users-prod"
//	s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
//
// # Errors
//
//   - [ErrNotFound] - no item exists for the key
//   - [ErrConditionFailed] - the existence condition of a write did not hold
//
// Any other error is returned wrapped; use [ErrorCode] to extract the AWS
// error code for logging.
package store
