// Package devserver serves the Lambda dispatcher over plain HTTP for local
// development against DynamoDB Local.
package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; API Gateway limits payloads to 10MB.
const maxBodyBytes = 10 << 20

// Dispatcher is the Lambda-facing surface mounted by the server.
// *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
	HandleAPI(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter builds the HTTP handler.
//
//	GET  /health   liveness probe
//	POST /invoke   raw Lambda payload, e.g. a DynamoDB Streams batch
//	*    /*        converted to an API Gateway proxy request
func NewRouter(d Dispatcher, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/invoke", func(w http.ResponseWriter, req *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := d.Invoke(req.Context(), payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var resp events.APIGatewayProxyResponse
		if err := json.Unmarshal(out, &resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeResponse(w, resp)
	})

	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		proxyReq, err := toProxyRequest(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := d.HandleAPI(req.Context(), proxyReq)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeResponse(w, resp)
	})

	return r
}

// toProxyRequest converts an HTTP request into the API Gateway proxy shape,
// carrying the chi request id as requestContext.requestId.
func toProxyRequest(req *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		headers[k] = strings.Join(v, ",")
	}
	query := make(map[string]string, len(req.URL.Query()))
	for k, v := range req.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	return events.APIGatewayProxyRequest{
		Resource:              req.URL.Path,
		Path:                  req.URL.Path,
		HTTPMethod:            req.Method,
		Headers:               headers,
		MultiValueHeaders:     req.Header,
		QueryStringParameters: query,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.GetReqID(req.Context()),
			HTTPMethod: req.Method,
			Path:       req.URL.Path,
			Stage:      "local",
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  req.RemoteAddr,
				UserAgent: req.UserAgent(),
			},
			RequestTimeEpoch: time.Now().UnixMilli(),
		},
	}, nil
}

func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}
