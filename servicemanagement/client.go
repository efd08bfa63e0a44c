// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package servicemanagement is a client for the Azure Service
// Management REST API, which exchanges XML documents over HTTPS and
// authenticates with a management certificate.
package servicemanagement

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azsm/version"
)

var logger = loggo.GetLogger("azsm.servicemanagement")

const (
	// DefaultEndpoint is the public cloud management endpoint.
	DefaultEndpoint = "https://management.core.windows.net"

	// DefaultAPIVersion is the x-ms-version sent with each request.
	DefaultAPIVersion = "2014-06-01"

	// Namespace is the XML namespace of request and response bodies.
	Namespace = "http://schemas.microsoft.com/windowsazure"

	headerVersion         = "x-ms-version"
	headerRequestID       = "x-ms-request-id"
	headerClientRequestID = "x-ms-client-request-id"
)

// ClientConfig holds the configuration of a Client.
type ClientConfig struct {
	SubscriptionID string

	// Endpoint is the management endpoint. DefaultEndpoint is used
	// when it is empty.
	Endpoint string

	// APIVersion is the service version requested. DefaultAPIVersion
	// is used when it is empty.
	APIVersion string

	// Certificate is the management certificate presented to the
	// service. It is required unless Transport is set.
	Certificate *tls.Certificate

	// Transport, if set, replaces the HTTP client.
	Transport policy.Transporter

	// Retry configures the transport level retries.
	Retry policy.RetryOptions

	// Clock is used to wait between polls of asynchronous operations
	// and between retries of conflicting requests.
	Clock clock.Clock
}

// Validate checks the configuration is usable.
func (c ClientConfig) Validate() error {
	if c.SubscriptionID == "" {
		return errors.NotValidf("empty SubscriptionID")
	}
	if c.Certificate == nil && c.Transport == nil {
		return errors.NotValidf("nil Certificate")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NotValidf("endpoint %q", c.Endpoint)
		}
	}
	return nil
}

// Client makes requests against the management API of a single
// subscription.
type Client struct {
	config   ClientConfig
	pipeline runtime.Pipeline
}

// NewClient returns a client for the configured subscription.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	config.Endpoint = strings.TrimSuffix(config.Endpoint, "/")
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	transport := config.Transport
	if transport == nil {
		transport = newCertificateTransport(*config.Certificate)
	}
	bridgeLogging()

	opts := &policy.ClientOptions{
		Transport: transport,
		Retry:     config.Retry,
		Telemetry: policy.TelemetryOptions{ApplicationID: "azsm/" + version.Current},
	}
	pipeline := runtime.NewPipeline("azsm/servicemanagement", version.Current, runtime.PipelineOptions{
		AllowedHeaders: []string{headerVersion, headerRequestID, headerClientRequestID},
		PerCall: []policy.Policy{
			headerPolicy{name: headerVersion, value: func() string { return config.APIVersion }},
			headerPolicy{name: headerClientRequestID, value: uuid.NewString},
		},
	}, opts)
	return &Client{config: config, pipeline: pipeline}, nil
}

// SubscriptionID returns the subscription the client operates on.
func (c *Client) SubscriptionID() string {
	return c.config.SubscriptionID
}

func newCertificateTransport(cert tls.Certificate) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}
}

// headerPolicy sets a request header on every call.
type headerPolicy struct {
	name  string
	value func() string
}

func (p headerPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set(p.name, p.value())
	return req.Next()
}

// do sends a request to path, relative to the subscription, and
// decodes the XML response into out if it is not nil. The returned
// Operation identifies the request for status queries.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, statusCodes ...int) (Operation, error) {
	endpoint := c.config.Endpoint + "/" + url.PathEscape(c.config.SubscriptionID) + path
	req, err := runtime.NewRequest(ctx, method, endpoint)
	if err != nil {
		return Operation{}, errors.Trace(err)
	}
	if in != nil {
		if err := runtime.MarshalAsXML(req, in); err != nil {
			return Operation{}, errors.Annotate(err, "encoding request")
		}
	}
	if len(statusCodes) == 0 {
		statusCodes = []int{http.StatusOK}
	}
	resp, err := c.pipeline.Do(req)
	if err != nil {
		return Operation{}, errors.Trace(err)
	}
	op := Operation{
		ID:             resp.Header.Get(headerRequestID),
		HTTPStatusCode: resp.StatusCode,
		Status:         OperationSucceeded,
	}
	if !runtime.HasStatusCode(resp, statusCodes...) {
		return op, newError(resp)
	}
	if resp.StatusCode == http.StatusAccepted {
		op.Status = OperationInProgress
	}
	if out == nil {
		runtime.Drain(resp)
		return op, nil
	}
	if err := runtime.UnmarshalAsXML(resp, out); err != nil {
		return op, errors.Annotatef(err, "decoding response to %s %s", method, path)
	}
	return op, nil
}
