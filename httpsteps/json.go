package httpsteps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dcshock/runpipe/pipeline"
)

// PostJSON returns a step that POSTs the JSON encoding of payload(sc) to url,
// typically a chat or deploy webhook in a post-stage. A nil payload sends
// the run summary from Summary.
func PostJSON(client *http.Client, url string, payload func(*pipeline.Scope) any) pipeline.CommandStep {
	if payload == nil {
		payload = func(sc *pipeline.Scope) any { return Summary(sc) }
	}
	return pipeline.Func("POST "+url, func(ctx context.Context, sc *pipeline.Scope) error {
		data, err := json.Marshal(payload(sc))
		if err != nil {
			return fmt.Errorf("http post: encode: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, expand(url, sc), bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("http post: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		_, err = do(client, req)
		return err
	})
}

// RunSummary identifies the run a notification is about.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
	Branch   string `json:"branch,omitempty"`
}

// Summary describes the run sc belongs to.
func Summary(sc *pipeline.Scope) RunSummary {
	return RunSummary{
		RunID:    sc.RunID(),
		Pipeline: sc.Pipeline().Name(),
		Stage:    sc.Path(),
		Branch:   sc.Branch(),
	}
}

func parseJSON(body []byte) (any, error) {
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return out, nil
}
