package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Transport performs authenticated requests against one kanban instance.
type Transport interface {
	// Do sends req and decodes a JSON response body into result.
	//
	// A nil result discards the body. A 204 response leaves result untouched.
	// Non-2xx responses are returned as *TransportError.
	Do(ctx context.Context, req Request, result any) error

	// Download streams the body at an absolute URL into w using the instance's credentials.
	Download(ctx context.Context, rawURL string, w io.Writer) error

	// Domain returns the instance host name.
	Domain() string
}

// Request describes one API call relative to the instance's API root.
type Request struct {
	Method string
	Path   string     // e.g. "cards/42/tags"
	Body   any        // JSON-encoded when non-nil and Files is empty
	Query  url.Values // appended to the URL
	Files  []FilePart // sent as multipart/form-data when non-empty
}

// FilePart is one file in a multipart upload.
type FilePart struct {
	Field    string // form field name, "file" for attachments
	Filename string
	Content  io.Reader
}

// TransportError is a non-2xx response.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}
