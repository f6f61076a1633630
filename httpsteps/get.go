package httpsteps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dcshock/runpipe/pipeline"
)

// Get returns a step that performs an HTTP GET and succeeds on a 2xx
// response. The step's context bounds the request. If client is nil,
// http.DefaultClient is used.
func Get(client *http.Client, url string) pipeline.CommandStep {
	return pipeline.Func("GET "+url, func(ctx context.Context, sc *pipeline.Scope) error {
		_, err := fetch(ctx, client, expand(url, sc))
		return err
	})
}

// fetch performs a GET and returns the body of a 2xx response.
func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http get: new request: %w", err)
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %q: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http %s %q: read body: %w", req.Method, req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode}
	}
	return body, nil
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s %q: status %d", e.Method, e.URL, e.Code)
}

// expand substitutes $VAR and ${VAR} from the scope's resolved environment.
func expand(s string, sc *pipeline.Scope) string {
	env := sc.Env()
	return os.Expand(s, func(key string) string { return env[key] })
}
