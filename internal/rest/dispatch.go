package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Interceptor rewrites outgoing requests, typically to add credentials.
type Interceptor interface {
	InterceptRequest(req Request) Request
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(req Request) Request

// InterceptRequest implements Interceptor.
func (f InterceptorFunc) InterceptRequest(req Request) Request {
	return f(req)
}

// TransportError is returned when a dispatched call fails. Body holds the
// failure response's payload exactly as received; Err is set when the
// request never produced a response.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   json.RawMessage
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Decode unmarshals the failure payload into v.
func (e *TransportError) Decode(v any) error {
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return fmt.Errorf("empty error payload")
	}
	return json.Unmarshal(e.Body, v)
}

// Dispatch passes req through the interceptor once and sends the result.
// On success only the response body is returned. Any failure is reported
// as a *TransportError carrying the failure response's body.
func Dispatch(ctx context.Context, transport Transport, interceptor Interceptor, req Request) (json.RawMessage, error) {
	if transport == nil {
		return nil, fmt.Errorf("dispatch %s %s: transport is nil", req.Method, req.URL)
	}
	out := req.Clone()
	if interceptor != nil {
		out = interceptor.InterceptRequest(out)
	}

	resp, err := transport.Send(ctx, out)
	if err != nil {
		return nil, &TransportError{Method: out.Method, URL: out.URL, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{Method: out.Method, URL: out.URL, Err: fmt.Errorf("no response")}
	}
	if !resp.OK() {
		return nil, &TransportError{Method: out.Method, URL: out.URL, Status: resp.StatusCode, Body: resp.Body}
	}
	return resp.Body, nil
}
