package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey is the private key type used to store the RequestContext.
type contextKey string

const requestContextKey contextKey = "proofline_request_context"

// RequestContext carries request-scoped tracing information across layers.
type RequestContext struct {
	RequestID string // short 10-char ID, e.g. mgrn0zfqda
	ClientIP  string
	StartTime time.Time
	Metadata  map[string]interface{}
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMutex  sync.Mutex
	// base36 charset (lowercase letters + digits)
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRequestID returns a 10-char random base36 request ID. Cheaper than
// a UUID and short enough to grep in log output.
func GenerateRequestID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRequestContext injects a RequestContext into ctx. Called once per
// request by the logging filter.
func WithRequestContext(ctx context.Context, requestID, clientIP string) context.Context {
	reqCtx := &RequestContext{
		RequestID: requestID,
		ClientIP:  clientIP,
		StartTime: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// GetRequestContext extracts the RequestContext from ctx, returning an empty
// one when absent so callers never need a nil check.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return &RequestContext{RequestID: "unknown", Metadata: make(map[string]interface{})}
	}
	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}
	return &RequestContext{RequestID: "unknown", Metadata: make(map[string]interface{})}
}

// GetRequestID extracts the request ID from ctx.
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// GetClientIP extracts the client IP from ctx.
func GetClientIP(ctx context.Context) string {
	return GetRequestContext(ctx).ClientIP
}

// SetMetadata attaches extra tracing metadata to the current request.
func SetMetadata(ctx context.Context, key string, value interface{}) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		reqCtx.Metadata = make(map[string]interface{})
	}
	reqCtx.Metadata[key] = value
}

// GetMetadata reads tracing metadata from the current request.
func GetMetadata(ctx context.Context, key string) (interface{}, bool) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		return nil, false
	}
	value, ok := reqCtx.Metadata[key]
	return value, ok
}

// GetElapsedTime returns how long the current request has been running, in
// milliseconds.
func GetElapsedTime(ctx context.Context) int64 {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.StartTime.IsZero() {
		return 0
	}
	return time.Since(reqCtx.StartTime).Milliseconds()
}
