package user

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jacentio/userstore/store"
)

// Caller-facing failure messages.
const (
	MsgIDRequired    = "User ID is required and must be a non-empty string"
	MsgAlreadyExists = "User already exists"
	MsgNotFound      = "User not found"
	MsgAddFailed     = "Failed to add user"
	MsgGetFailed     = "Failed to get user"
	MsgUpdateFailed  = "Failed to update user"

	MsgCreated = "User created successfully"
	MsgUpdated = "User updated successfully"
)

// Store is the conditional key-value contract the Service depends on.
// *store.Store satisfies it. Condition failures must be reported as
// store.ErrConditionFailed and missing items as store.ErrNotFound.
type Store interface {
	// Put writes item under key only if no item with key exists.
	Put(ctx context.Context, key string, item map[string]types.AttributeValue) error

	// Get returns the item stored under key.
	Get(ctx context.Context, key string) (map[string]types.AttributeValue, error)

	// Update sets fields on the item under key only if it exists, returning
	// the item after the update.
	Update(ctx context.Context, key string, fields map[string]any) (map[string]types.AttributeValue, error)
}

var _ Store = (*store.Store)(nil)

// Result is the outcome of a successful operation.
type Result struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	User    *Record `json:"user"`
}

// Service orchestrates validation, normalization and persistence of users.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service backed by st.
func NewService(st Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates data and stores it as a new user under id.
// It fails with ErrAlreadyExists if id is already taken.
func (s *Service) Create(ctx context.Context, id string, data Attributes) (*Result, error) {
	log := s.logger.With(zap.String("userId", id))
	log.Info("Starting addUser operation", zap.Strings("userDataKeys", keys(data)))

	if err := checkID(id); err != nil {
		log.Error("Invalid userId provided", zap.Error(err))
		return nil, err
	}

	if errs := Validate(data); len(errs) > 0 {
		err := validationError(errs)
		log.Error("User data validation failed", zap.Strings("validationErrors", errs), zap.Error(err))
		return nil, err
	}

	rec := newRecord(id, data, s.now())
	item, err := rec.toItem()
	if err != nil {
		log.Error("Failed to encode user", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgAddFailed, err)
	}

	log.Info("Attempting to create user in DynamoDB")
	if err := s.store.Put(ctx, rec.ID, item); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			log.Warn("Attempt to create existing user")
			return nil, newError(ErrAlreadyExists, MsgAlreadyExists, err)
		}
		log.Error("Failed to create user in DynamoDB", zap.String("code", store.ErrorCode(err)), zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgAddFailed, err)
	}

	log.Info("User created successfully", zap.String("createdAt", rec.CreatedAt))
	return &Result{Success: true, Message: MsgCreated, User: rec}, nil
}

// Fetch returns the user stored under id as persisted.
func (s *Service) Fetch(ctx context.Context, id string) (*Result, error) {
	log := s.logger.With(zap.String("userId", id))
	log.Info("Starting getUser operation")

	if err := checkID(id); err != nil {
		log.Error("Invalid userId provided for getUser", zap.Error(err))
		return nil, err
	}

	log.Info("Attempting to retrieve user from DynamoDB")
	item, err := s.store.Get(ctx, normalizeID(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("User not found in database")
			return nil, newError(ErrNotFound, MsgNotFound, err)
		}
		log.Error("Failed to retrieve user from DynamoDB", zap.String("code", store.ErrorCode(err)), zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgGetFailed, err)
	}

	rec, err := recordFromItem(item)
	if err != nil {
		log.Error("Failed to decode user", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgGetFailed, err)
	}

	log.Info("User retrieved successfully")
	return &Result{Success: true, User: rec}, nil
}

// Modify applies a partial update to the user stored under id, always
// advancing updatedAt. It fails with ErrNotFound if id does not exist.
func (s *Service) Modify(ctx context.Context, id string, update Attributes) (*Result, error) {
	log := s.logger.With(zap.String("userId", id))
	log.Info("Starting updateUser operation", zap.Strings("updateDataKeys", keys(update)))

	if err := checkID(id); err != nil {
		log.Error("Invalid userId provided for updateUser", zap.Error(err))
		return nil, err
	}

	if errs := ValidatePartial(update); len(errs) > 0 {
		err := validationError(errs)
		log.Error("Update data validation failed", zap.Strings("validationErrors", errs), zap.Error(err))
		return nil, err
	}

	fields := updateFields(update, s.now())

	log.Info("Attempting to update user in DynamoDB")
	item, err := s.store.Update(ctx, normalizeID(id), fields)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			log.Warn("Attempt to update non-existent user")
			return nil, newError(ErrNotFound, MsgNotFound, err)
		}
		log.Error("Failed to update user in DynamoDB", zap.String("code", store.ErrorCode(err)), zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgUpdateFailed, err)
	}

	rec, err := recordFromItem(item)
	if err != nil {
		log.Error("Failed to decode updated user", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, MsgUpdateFailed, err)
	}

	log.Info("User updated successfully", zap.String("updatedAt", rec.UpdatedAt))
	return &Result{Success: true, Message: MsgUpdated, User: rec}, nil
}

func checkID(id string) error {
	if normalizeID(id) == "" {
		return newError(ErrInvalidArgument, MsgIDRequired, nil)
	}
	return nil
}

func validationError(errs []string) *Error {
	return newError(ErrValidationFailed, "Validation failed: "+strings.Join(errs, ", "), nil)
}

func keys(a Attributes) []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
