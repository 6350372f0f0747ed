package httpclient_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kmercier/go-vesync/internal/httpclient"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNew(t *testing.T) {
	t.Parallel()

	client := httpclient.New()
	if client == nil {
		t.Fatal("New() returned nil")
	}

	if got := client.HTTPClient().Timeout; got != httpclient.DefaultTimeout {
		t.Errorf("Default timeout = %v, want %v", got, httpclient.DefaultTimeout)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	timeout := 10 * time.Second
	client := httpclient.New(httpclient.WithTimeout(timeout))

	if client.HTTPClient().Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", client.HTTPClient().Timeout, timeout)
	}
}

func TestWithTimeoutZeroKeepsDefault(t *testing.T) {
	t.Parallel()

	client := httpclient.New(httpclient.WithTimeout(0))

	if got := client.HTTPClient().Timeout; got != httpclient.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, httpclient.DefaultTimeout)
	}
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	customClient := &http.Client{
		Timeout: 5 * time.Second,
	}

	client := httpclient.New(httpclient.WithHTTPClient(customClient))

	if client.HTTPClient() != customClient {
		t.Error("HTTPClient() did not return the custom client")
	}
}

func TestMiddlewareChaining(t *testing.T) {
	t.Parallel()

	var order []string

	middleware1 := func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			order = append(order, "middleware1-before")
			resp, err := next.RoundTrip(req)
			order = append(order, "middleware1-after")
			return resp, err
		})
	}

	middleware2 := func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			order = append(order, "middleware2-before")
			resp, err := next.RoundTrip(req)
			order = append(order, "middleware2-after")
			return resp, err
		})
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "server")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(
		httpclient.WithMiddleware(middleware1, middleware2),
	)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	want := []string{
		"middleware1-before",
		"middleware2-before",
		"server",
		"middleware2-after",
		"middleware1-after",
	}

	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}
