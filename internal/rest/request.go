package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-querystring/query"
)

const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJSON = "application/json"
)

// ResponseKind names the decoding expected for a response body.
type ResponseKind string

const ResponseJSON ResponseKind = "json"

// Template produces an operation path, either literally or from URL
// arguments.
type Template struct {
	literal string
	fn      func(urlArgs any) string
}

// Path is a literal path template.
func Path(p string) Template {
	return Template{literal: p}
}

// PathFunc is a template computed from the URL arguments.
func PathFunc(fn func(urlArgs any) string) Template {
	return Template{fn: fn}
}

// Dynamic reports whether the template is computed at call time.
func (t Template) Dynamic() bool {
	return t.fn != nil
}

// Operation describes one remote call. Operations are declared once as
// package-level values and never modified.
type Operation struct {
	Client string
	Name   string
	Method string
	URL    Template
}

// Key returns the registry key of the operation.
func (o Operation) Key() Key {
	return Key{Client: o.Client, Operation: o.Name}
}

func (o Operation) validate() error {
	if strings.TrimSpace(o.Client) == "" || strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("operation %q: client and name required", o.Key())
	}
	if strings.TrimSpace(o.Method) == "" {
		return fmt.Errorf("operation %s: method required", o.Key())
	}
	return nil
}

// GET declares a GET operation.
func GET(client, name string, url Template) Operation {
	return Operation{Client: client, Name: name, Method: http.MethodGet, URL: url}
}

// POST declares a POST operation.
func POST(client, name string, url Template) Operation {
	return Operation{Client: client, Name: name, Method: http.MethodPost, URL: url}
}

// Args carries the arguments of one call. URL feeds the path template,
// Body feeds the body builder.
type Args struct {
	URL  any
	Body any
}

// Payload is an encoded request body.
type Payload struct {
	ContentType string
	Data        []byte
}

// Request is a fully assembled call, ready to be intercepted and sent.
type Request struct {
	URL    string
	Method string
	Body   *Payload
	Header http.Header
	Expect ResponseKind
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	out := r
	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if r.Body != nil {
		body := *r.Body
		body.Data = bytes.Clone(r.Body.Data)
		out.Body = &body
	}
	return out
}

// WithHeader returns a copy of the request with key set to value.
func (r Request) WithHeader(key, value string) Request {
	out := r.Clone()
	out.Header.Set(key, value)
	return out
}

// Build assembles the request for op from the registered metadata and the
// call arguments. It performs no I/O.
func Build(baseURL string, op Operation, entry Entry, args Args) (Request, error) {
	path := op.URL.literal
	if op.URL.fn != nil {
		var urlArgs any = args
		if entry.URLArgs != nil {
			urlArgs = entry.URLArgs(args)
		}
		path = op.URL.fn(urlArgs)
	}

	req := Request{
		URL:    baseURL + path,
		Method: op.Method,
		Header: http.Header{},
		Expect: ResponseJSON,
	}
	if entry.Body != nil {
		payload, err := entry.Body(args)
		if err != nil {
			return Request{}, fmt.Errorf("build %s body: %w", op.Key(), err)
		}
		req.Body = &payload
	}
	return req, nil
}

// FormBody URL-encodes args.Body using its `url` struct tags.
func FormBody(args Args) (Payload, error) {
	values, err := query.Values(args.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("encode form: %w", err)
	}
	return Payload{ContentType: ContentTypeForm, Data: []byte(values.Encode())}, nil
}

// JSONBody encodes args.Body as JSON.
func JSONBody(args Args) (Payload, error) {
	data, err := json.Marshal(args.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("encode json: %w", err)
	}
	return Payload{ContentType: ContentTypeJSON, Data: data}, nil
}

// URLArgs passes args.URL to the path template.
func URLArgs(args Args) any {
	return args.URL
}
