// Package config builds pipelines from YAML. Shell steps are written inline;
// Go steps and custom conditions are registered by name in a Registry and
// referenced from the file:
//
//	name: ci
//	timeout: 30m
//	args:
//	  - long: release
//	    short: r
//	    values: [beta, stable]
//	    description: cut a release
//	stages:
//	  - name: build
//	    parallel: true
//	    steps:
//	      - go build ./...
//	      - run: go vet ./...
//	  - name: test
//	    exit_codes: [0, 1]
//	    step_timeout: 10m
//	    steps: [go test ./...]
//	  - name: publish
//	    when:
//	      branch: [main, release/*]
//	      arg: release
//	    steps:
//	      - func: publish
//	      - stage:
//	          name: notify
//	          steps: [{func: notify, timeout: 30s}]
//	post:
//	  - name: cleanup
//	    steps: [rm -rf dist]
//
// Load parses, validates against the embedded JSON schema, and builds in one
// call. LoadEnvironment snapshots the process environment and overlays any
// .env files.
package config
