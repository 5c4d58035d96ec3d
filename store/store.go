package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Store provides conditional DynamoDB operations on a single-key table.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// TableName returns the configured table name.
func (s *Store) TableName() string {
	return s.config.TableName
}

// key builds the primary key for an item.
func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

// Put writes item under key, failing with ErrConditionFailed if an item
// with that key already exists. The key attribute of item is always set
// to key.
func (s *Store) Put(ctx context.Context, key string, item map[string]types.AttributeValue) error {
	item[KeyAttribute] = &types.AttributeValueMemberS{Value: key}

	expr, err := expression.NewBuilder().
		WithCondition(expression.NameNoDotSplit(KeyAttribute).AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("build put expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapWriteError("put item", err)
}

// Get retrieves the item stored under key, returning ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, key string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       s.key(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return result.Item, nil
}

// Update sets every attribute in fields on the item stored under key and
// returns the item as it is after the update. It fails with
// ErrConditionFailed if no item with that key exists. The key attribute is
// never updated.
func (s *Store) Update(ctx context.Context, key string, fields map[string]any) (map[string]types.AttributeValue, error) {
	update, err := s.updateBuilder(fields)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.NameNoDotSplit(KeyAttribute).AttributeExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       s.key(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err := mapWriteError("update item", err); err != nil {
		return nil, err
	}
	return result.Attributes, nil
}

// updateBuilder builds a SET clause per field, in name order so the
// generated expression is stable.
func (s *Store) updateBuilder(fields map[string]any) (expression.UpdateBuilder, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == KeyAttribute {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return expression.UpdateBuilder{}, errors.New("store: update has no fields")
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.NameNoDotSplit(name), expression.Value(fields[name]))
	}
	return update, nil
}

// mapWriteError maps DynamoDB conditional write failures to ErrConditionFailed.
func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return fmt.Errorf("%s: %w", op, err)
}
