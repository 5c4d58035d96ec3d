// Package dispatch routes Lambda invocations to user operations and shapes
// their API Gateway style responses.
//
// A single function receives two kinds of payload:
//
//   - DynamoDB Streams batches (`{"Records": [...]}`), which are only
//     observed and acknowledged with a processed count
//   - API Gateway proxy requests whose JSON body names an action
//     (addUser, getUser, updateUser), a userId and optional userData
//
// Domain failures all map to HTTP 500 with the failure message; unknown
// actions map to 400.
package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jacentio/userstore/stream"
	"github.com/jacentio/userstore/user"
)

// Action names a direct-invocation operation.
type Action string

// Supported actions.
const (
	ActionAddUser    Action = "addUser"
	ActionGetUser    Action = "getUser"
	ActionUpdateUser Action = "updateUser"
)

// Response messages.
const (
	MsgInvalidAction  = "Invalid action. Supported actions: addUser, getUser, updateUser"
	MsgInvalidBody    = "Invalid request body"
	MsgInternal       = "Internal server error"
	MsgStreamComplete = "DynamoDB trigger processed successfully"
)

// UnknownRequestID is reported when the request carries no correlation id.
const UnknownRequestID = "unknown"

// Service is the set of user operations the dispatcher routes to.
// *user.Service satisfies it.
type Service interface {
	Create(ctx context.Context, id string, data user.Attributes) (*user.Result, error)
	Fetch(ctx context.Context, id string) (*user.Result, error)
	Modify(ctx context.Context, id string, update user.Attributes) (*user.Result, error)
}

var _ Service = (*user.Service)(nil)

// Request is the JSON body of a direct invocation.
type Request struct {
	Action Action          `json:"action"`
	UserID any             `json:"userId"`
	Data   user.Attributes `json:"userData"`
}

// id returns the userId when it is a string, and "" otherwise so that the
// service rejects it as an invalid argument.
func (r Request) id() string {
	s, _ := r.UserID.(string)
	return s
}

// ErrorBody is the response body of a failed request.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

// StreamBody is the response body of a processed change-event batch.
type StreamBody struct {
	Message          string `json:"message"`
	ProcessedRecords int    `json:"processedRecords"`
	RequestID        string `json:"requestId"`
}

// Dispatcher routes invocations to a Service or a stream Handler.
type Dispatcher struct {
	svc     Service
	streams *stream.Handler
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New(svc Service, streams *stream.Handler, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if streams == nil {
		streams = stream.NewHandler(user.KeyAttribute, logger)
	}
	return &Dispatcher{
		svc:     svc,
		streams: streams,
		logger:  logger,
	}
}

// Invoke implements lambda.Handler. It never returns an error: every
// failure is reported through the response envelope.
func (d *Dispatcher) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	var resp events.APIGatewayProxyResponse
	if event, ok := decodeStreamEvent(payload); ok {
		resp, _ = d.HandleStream(ctx, event)
	} else {
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			d.logger.Error("Lambda handler error", zap.Error(err), zap.String("requestId", UnknownRequestID))
			resp = errorResponse(http.StatusInternalServerError, MsgInvalidBody, UnknownRequestID)
		} else {
			resp, _ = d.HandleAPI(ctx, req)
		}
	}
	return json.Marshal(resp)
}

// decodeStreamEvent reports whether payload is a change-event batch. A
// payload whose Records field does not decode is not one.
func decodeStreamEvent(payload []byte) (events.DynamoDBEvent, bool) {
	var probe struct {
		Records json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return events.DynamoDBEvent{}, false
	}
	if len(probe.Records) == 0 || string(probe.Records) == "null" {
		return events.DynamoDBEvent{}, false
	}

	var event events.DynamoDBEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return events.DynamoDBEvent{}, false
	}
	return event, true
}

// HandleStream acknowledges a change-event batch.
func (d *Dispatcher) HandleStream(ctx context.Context, event events.DynamoDBEvent) (events.APIGatewayProxyResponse, error) {
	d.logger.Info("Lambda handler started",
		zap.String("requestId", UnknownRequestID),
		zap.String("eventType", "DynamoDB"),
	)

	n := d.streams.Process(ctx, event, UnknownRequestID)

	headers := corsHeaders()
	headers["Content-Type"] = "application/json"
	return jsonResponse(http.StatusOK, headers, StreamBody{
		Message:          MsgStreamComplete,
		ProcessedRecords: n,
		RequestID:        UnknownRequestID,
	}), nil
}

// HandleAPI serves a direct-invocation request.
func (d *Dispatcher) HandleAPI(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := req.RequestContext.RequestID
	if requestID == "" {
		requestID = UnknownRequestID
	}
	log := d.logger.With(zap.String("requestId", requestID))
	log.Info("Lambda handler started", zap.String("eventType", "API"))

	if req.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    corsHeaders(),
		}, nil
	}

	in, err := decodeRequest(req)
	if err != nil {
		log.Error("Lambda handler error", zap.Error(err))
		return errorResponse(http.StatusInternalServerError, MsgInvalidBody, requestID), nil
	}

	id := in.id()
	provided := "missing"
	if id != "" {
		provided = "provided"
	}
	log.Info("Processing API request", zap.String("action", string(in.Action)), zap.String("userId", provided))

	var (
		res    *user.Result
		status int
	)
	switch in.Action {
	case ActionAddUser:
		log.Info("Executing addUser action", zap.String("userId", id))
		res, err = d.svc.Create(ctx, id, in.Data)
		status = http.StatusCreated
	case ActionGetUser:
		log.Info("Executing getUser action", zap.String("userId", id))
		res, err = d.svc.Fetch(ctx, id)
		status = http.StatusOK
	case ActionUpdateUser:
		log.Info("Executing updateUser action", zap.String("userId", id))
		res, err = d.svc.Modify(ctx, id, in.Data)
		status = http.StatusOK
	default:
		log.Warn("Invalid action requested", zap.String("action", string(in.Action)))
		return errorResponse(http.StatusBadRequest, MsgInvalidAction, requestID), nil
	}

	if err != nil {
		log.Error("Lambda handler error", zap.Error(err))
		return errorResponse(http.StatusInternalServerError, failureMessage(err), requestID), nil
	}
	return jsonResponse(status, apiHeaders(requestID), res), nil
}

// decodeRequest parses the request body, treating an empty body as {}.
func decodeRequest(req events.APIGatewayProxyRequest) (Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return Request{}, err
		}
		body = decoded
	}

	var in Request
	if len(body) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Request{}, err
	}
	return in, nil
}

// failureMessage returns the caller-facing message of a domain error.
func failureMessage(err error) string {
	var domainErr *user.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return MsgInternal
}
