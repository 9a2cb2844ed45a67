package auth

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/url"
)

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
	errorTmpl   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// EndpointMetadata controls how the callback page is rendered after the
// user completes (or fails) the browser step. Payloads are passed through
// untouched; when nil, default pages referencing Label are rendered.
type EndpointMetadata struct {
	// Label names the endpoint on the default pages, typically the
	// hostname of the authorization endpoint.
	Label string

	// SuccessHTML replaces the default success page when set.
	SuccessHTML []byte

	// FailureHTML replaces the default failure page when set.
	FailureHTML []byte
}

// MetadataForEndpoint derives default endpoint metadata from an
// authorization endpoint URL, labeling pages with its hostname.
func MetadataForEndpoint(authEndpoint string) EndpointMetadata {
	label := authEndpoint
	if u, err := url.Parse(authEndpoint); err == nil && u.Hostname() != "" {
		label = u.Hostname()
	}
	return EndpointMetadata{Label: label}
}

// DefaultSuccessHTML renders the default login-success page for an
// endpoint label.
func DefaultSuccessHTML(label string) []byte {
	var buf bytes.Buffer
	// The template only fails on invalid data types, which cannot happen
	// with a string map.
	_ = successTmpl.Execute(&buf, map[string]string{"Label": label})
	return buf.Bytes()
}

// DefaultFailureHTML renders the default login-failure page.
func DefaultFailureHTML(label, errCode, description string) []byte {
	var buf bytes.Buffer
	_ = errorTmpl.Execute(&buf, map[string]string{
		"Label":       label,
		"Error":       errCode,
		"Description": description,
	})
	return buf.Bytes()
}
