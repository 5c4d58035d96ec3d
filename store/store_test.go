package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/userstore/store"
)

// fakeDynamo is an in-memory stand-in for the DynamoDB client. It honours
// attribute_exists / attribute_not_exists conditions on the key attribute
// and the SET clauses produced by the expression builder.
type fakeDynamo struct {
	mu      sync.Mutex
	keyAttr string
	items   map[string]map[string]types.AttributeValue
	err     error

	puts    []*dynamodb.PutItemInput
	gets    []*dynamodb.GetItemInput
	updates []*dynamodb.UpdateItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		keyAttr: "user",
		items:   make(map[string]map[string]types.AttributeValue),
	}
}

func (f *fakeDynamo) keyOf(key map[string]types.AttributeValue) string {
	if v, ok := key[f.keyAttr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[f.keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.err != nil {
		return nil, f.err
	}
	key := f.keyOf(in.Item)
	if strings.Contains(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}
	key := f.keyOf(in.Key)
	current, exists := f.items[key]
	if strings.Contains(aws.ToString(in.ConditionExpression), "attribute_exists") && !exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	next := make(map[string]types.AttributeValue, len(current))
	for k, v := range current {
		next[k] = v
	}
	next[f.keyAttr] = &types.AttributeValueMemberS{Value: key}

	set := strings.TrimPrefix(strings.TrimSpace(aws.ToString(in.UpdateExpression)), "SET ")
	for _, clause := range strings.Split(set, ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		next[name] = in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
	}
	f.items[key] = next
	return &dynamodb.UpdateItemOutput{Attributes: next}, nil
}

func newTestStore() (*store.Store, *fakeDynamo) {
	fake := newFakeDynamo()
	return store.New(fake, store.DefaultConfig()), fake
}

// --- Unit Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.TableName != "tddproject-dev" {
		t.Errorf("expected TableName 'tddproject-dev', got %q", cfg.TableName)
	}
	if store.KeyAttribute != "user" {
		t.Errorf("expected KeyAttribute 'user', got %q", store.KeyAttribute)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := store.New(newFakeDynamo(), store.Config{})
	if s.TableName() != "tddproject-dev" {
		t.Errorf("expected default table name, got %q", s.TableName())
	}
}

func TestPut_WritesItemWithCondition(t *testing.T) {
	s, fake := newTestStore()
	ctx := context.Background()

	err := s.Put(ctx, "user123", map[string]types.AttributeValue{
		"name": &types.AttributeValueMemberS{Value: "John Doe"},
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(fake.puts))
	}
	in := fake.puts[0]
	if aws.ToString(in.TableName) != "tddproject-dev" {
		t.Errorf("expected table 'tddproject-dev', got %q", aws.ToString(in.TableName))
	}
	if !strings.Contains(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		t.Errorf("expected attribute_not_exists condition, got %q", aws.ToString(in.ConditionExpression))
	}
	var condName string
	for _, name := range in.ExpressionAttributeNames {
		condName = name
	}
	if condName != "user" {
		t.Errorf("expected condition on 'user', got %q", condName)
	}
	if v, ok := in.Item["user"].(*types.AttributeValueMemberS); !ok || v.Value != "user123" {
		t.Error("expected key attribute to be set on item")
	}
}

func TestPut_AlreadyExists(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	item := func() map[string]types.AttributeValue {
		return map[string]types.AttributeValue{"name": &types.AttributeValueMemberS{Value: "John"}}
	}
	if err := s.Put(ctx, "user123", item()); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	err := s.Put(ctx, "user123", item())
	if !errors.Is(err, store.ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed, got %v", err)
	}
}

func TestPut_OtherError(t *testing.T) {
	s, fake := newTestStore()
	fake.err = errors.New("connection reset")

	err := s.Put(context.Background(), "user123", map[string]types.AttributeValue{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, store.ErrConditionFailed) {
		t.Error("did not expect ErrConditionFailed")
	}
}

func TestGet_Found(t *testing.T) {
	s, fake := newTestStore()
	fake.items["user123"] = map[string]types.AttributeValue{
		"user": &types.AttributeValueMemberS{Value: "user123"},
		"name": &types.AttributeValueMemberS{Value: "John"},
	}

	item, err := s.Get(context.Background(), "user123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v, ok := item["name"].(*types.AttributeValueMemberS); !ok || v.Value != "John" {
		t.Error("expected name 'John'")
	}
	if v, ok := fake.gets[0].Key["user"].(*types.AttributeValueMemberS); !ok || v.Value != "user123" {
		t.Error("expected GetItem keyed on user")
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.Get(context.Background(), "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_OtherError(t *testing.T) {
	s, fake := newTestStore()
	cause := errors.New("timeout")
	fake.err = cause

	_, err := s.Get(context.Background(), "user123")
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Error("did not expect ErrNotFound")
	}
}

func TestUpdate_ReturnsAllNew(t *testing.T) {
	s, fake := newTestStore()
	fake.items["user123"] = map[string]types.AttributeValue{
		"user": &types.AttributeValueMemberS{Value: "user123"},
		"name": &types.AttributeValueMemberS{Value: "John"},
		"age":  &types.AttributeValueMemberN{Value: "30"},
	}

	item, err := s.Update(context.Background(), "user123", map[string]any{"age": 31})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	in := fake.updates[0]
	if in.ReturnValues != types.ReturnValueAllNew {
		t.Errorf("expected ALL_NEW, got %q", in.ReturnValues)
	}
	if !strings.Contains(aws.ToString(in.ConditionExpression), "attribute_exists") {
		t.Errorf("expected attribute_exists condition, got %q", aws.ToString(in.ConditionExpression))
	}
	if v, ok := item["age"].(*types.AttributeValueMemberN); !ok || v.Value != "31" {
		t.Errorf("expected age 31, got %#v", item["age"])
	}
	if v, ok := item["name"].(*types.AttributeValueMemberS); !ok || v.Value != "John" {
		t.Error("expected untouched name to be preserved")
	}
}

func TestUpdate_NotExists(t *testing.T) {
	s, fake := newTestStore()

	_, err := s.Update(context.Background(), "nonexistent", map[string]any{"name": "X"})
	if !errors.Is(err, store.ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed, got %v", err)
	}
	if len(fake.items) != 0 {
		t.Error("expected no item to be created (no upsert)")
	}
}

func TestUpdate_EmptyFields(t *testing.T) {
	s, fake := newTestStore()

	if _, err := s.Update(context.Background(), "user123", nil); err == nil {
		t.Error("expected error for empty update")
	}
	if len(fake.updates) != 0 {
		t.Error("expected no UpdateItem call")
	}
}

func TestPut_ConcurrentSameKey(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Put(ctx, "contended", map[string]types.AttributeValue{
				"name": &types.AttributeValueMemberS{Value: "racer"},
			})
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrConditionFailed):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 win and %d conflicts, got %d and %d", workers-1, wins, conflicts)
	}
}
