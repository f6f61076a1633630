// Package httpsteps provides pipeline steps that talk to HTTP services:
// health checks before a deploy, JSON assertions against a status endpoint,
// and webhook notifications from post-stages.
//
// URLs may reference the stage's resolved environment as $VAR or ${VAR}.
//
//	pipeline.NewStage("verify",
//	    httpsteps.Get(nil, "${DEPLOY_URL}/healthz"),
//	    httpsteps.ExpectJSON(nil, "${DEPLOY_URL}/status", func(v any) error {
//	        m, _ := v.(map[string]any)
//	        if m["status"] != "ok" {
//	            return fmt.Errorf("unexpected status %v", m["status"])
//	        }
//	        return nil
//	    }),
//	)
package httpsteps
