package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/gaborage/reqengine/httpclient"
)

// Description fields read by HTTPHandler.
const (
	FieldURL     = "url"
	FieldData    = "data"
	FieldHeaders = "headers"
	FieldProxies = "proxies"
	FieldSession = "session"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeForm   = "application/x-www-form-urlencoded"
)

// Verb is the HTTP method an HTTPHandler sends.
type Verb int

const (
	VerbGet Verb = iota
	VerbPost
	VerbPut
	VerbPatch
	VerbDelete
)

// Method returns the HTTP method name.
func (v Verb) Method() string {
	switch v {
	case VerbGet:
		return http.MethodGet
	case VerbPost:
		return http.MethodPost
	case VerbPut:
		return http.MethodPut
	case VerbPatch:
		return http.MethodPatch
	case VerbDelete:
		return http.MethodDelete
	default:
		return ""
	}
}

func (v Verb) String() string {
	if m := v.Method(); m != "" {
		return m
	}
	return fmt.Sprintf("Verb(%d)", int(v))
}

// HTTPHandler sends one HTTP request per attempt with a fixed verb.
//
// It reads these description fields:
//
//	url      string, required
//	data     request body, ignored for GET (see encodeData)
//	headers  map of header values
//	proxies  map of scheme ("http", "https", "all") to proxy URL
//	session  an httpclient.Client used instead of the handler's client
type HTTPHandler struct {
	verb   Verb
	client httpclient.Client
}

var _ Handler = (*HTTPHandler)(nil)

// NewHTTPHandler creates a handler sending verb requests through client.
func NewHTTPHandler(verb Verb, client httpclient.Client) *HTTPHandler {
	return &HTTPHandler{verb: verb, client: client}
}

// NewGetHandler creates the retrieval handler.
func NewGetHandler(client httpclient.Client) *HTTPHandler {
	return NewHTTPHandler(VerbGet, client)
}

// NewPostHandler creates the submission handler.
func NewPostHandler(client httpclient.Client) *HTTPHandler {
	return NewHTTPHandler(VerbPost, client)
}

// Verb returns the method this handler sends.
func (h *HTTPHandler) Verb() Verb {
	return h.verb
}

type httpFields struct {
	URL     string            `mapstructure:"url"`
	Data    any               `mapstructure:"data"`
	Headers map[string]string `mapstructure:"headers"`
	Proxies map[string]string `mapstructure:"proxies"`
	Session any               `mapstructure:"session"`
}

// Execute sends the request. Non-2xx statuses, timeouts and connection errors
// are transport failures; an unusable description is rejected.
func (h *HTTPHandler) Execute(ctx context.Context, d Description, timeout time.Duration) Outcome {
	var fields httpFields
	if err := mapstructure.Decode(map[string]any(d), &fields); err != nil {
		return Rejected(fmt.Errorf("decode description: %w", err))
	}
	if fields.URL == "" {
		return Rejected(fmt.Errorf("description field %q is required", FieldURL))
	}

	client := h.client
	if fields.Session != nil {
		session, ok := fields.Session.(httpclient.Client)
		if !ok {
			return Rejected(fmt.Errorf("description field %q must be an httpclient.Client, got %T", FieldSession, fields.Session))
		}
		client = session
	}
	if client == nil {
		return Rejected(errors.New("no HTTP client configured"))
	}

	req := &httpclient.Request{
		URL:     fields.URL,
		Headers: make(map[string]string, len(fields.Headers)+1),
		Proxies: fields.Proxies,
		Timeout: timeout,
	}
	for k, v := range fields.Headers {
		req.Headers[k] = v
	}

	if h.verb != VerbGet && fields.Data != nil {
		body, contentType, err := encodeData(fields.Data)
		if err != nil {
			return Rejected(fmt.Errorf("encode %q: %w", FieldData, err))
		}
		req.Body = body
		if contentType != "" && !hasHeader(req.Headers, contentTypeHeader) {
			req.Headers[contentTypeHeader] = contentType
		}
	}

	resp, err := client.Do(ctx, h.verb.Method(), req)
	if err != nil {
		if httpclient.IsErrorType(err, httpclient.ValidationError) {
			return Rejected(err)
		}
		return TransportFailed(err)
	}
	if !httpclient.IsSuccessStatus(resp.StatusCode) {
		return TransportFailed(httpclient.NewHTTPError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode, resp.Body))
	}
	return Succeeded(string(resp.Body))
}

// encodeData turns a data field into a body. Maps are form encoded, strings and
// bytes are sent as is and anything else is marshaled to JSON. An empty content
// type leaves the client default in place.
func encodeData(data any) ([]byte, string, error) {
	switch v := data.(type) {
	case string:
		return []byte(v), "", nil
	case []byte:
		return v, "", nil
	case url.Values:
		return []byte(v.Encode()), contentTypeForm, nil
	case map[string][]string:
		return []byte(url.Values(v).Encode()), contentTypeForm, nil
	case map[string]string:
		form := make(url.Values, len(v))
		for key, value := range v {
			form.Set(key, value)
		}
		return []byte(form.Encode()), contentTypeForm, nil
	case map[string]any:
		form := make(url.Values, len(v))
		for key, value := range v {
			if items, ok := value.([]any); ok {
				for _, item := range items {
					form.Add(key, fmt.Sprint(item))
				}
				continue
			}
			form.Set(key, fmt.Sprint(value))
		}
		return []byte(form.Encode()), contentTypeForm, nil
	default:
		body, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return body, "application/json", nil
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
