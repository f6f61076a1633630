package httpsteps

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"github.com/dcshock/runpipe/pipeline"
)

// ExpectJSON returns a step that GETs url, decodes the JSON body and runs
// predicate on the decoded value. The step fails with the predicate's error.
func ExpectJSON(client *http.Client, url string, predicate func(any) error) pipeline.CommandStep {
	if predicate == nil {
		panic("httpsteps.ExpectJSON: predicate must not be nil")
	}
	return pipeline.Func("expect GET "+url, func(ctx context.Context, sc *pipeline.Scope) error {
		body, err := fetch(ctx, client, expand(url, sc))
		if err != nil {
			return err
		}
		v, err := parseJSON(body)
		if err != nil {
			return err
		}
		if err := predicate(v); err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		return nil
	})
}

// ExpectEqual returns a step that checks the decoded JSON body of url equals
// expected using reflect.DeepEqual. JSON numbers decode as float64.
func ExpectEqual(client *http.Client, url string, expected any) pipeline.CommandStep {
	return ExpectJSON(client, url, func(v any) error {
		if !reflect.DeepEqual(v, expected) {
			return fmt.Errorf("got %v, want %v", v, expected)
		}
		return nil
	})
}
