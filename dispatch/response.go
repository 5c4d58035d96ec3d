package dispatch

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// CORS header values sent with every response.
const (
	AllowOrigin  = "*"
	AllowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
	AllowMethods = "OPTIONS,POST,GET,PUT,DELETE"
)

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  AllowOrigin,
		"Access-Control-Allow-Headers": AllowHeaders,
		"Access-Control-Allow-Methods": AllowMethods,
	}
}

func apiHeaders(requestID string) map[string]string {
	h := corsHeaders()
	h["Content-Type"] = "application/json"
	h["X-Request-ID"] = requestID
	return h
}

func jsonResponse(status int, headers map[string]string, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorBody{Error: MsgInternal, RequestID: headers["X-Request-ID"]})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(data),
	}
}

func errorResponse(status int, message, requestID string) events.APIGatewayProxyResponse {
	return jsonResponse(status, apiHeaders(requestID), ErrorBody{Error: message, RequestID: requestID})
}
