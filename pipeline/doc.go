// Package pipeline provides the stage/step execution engine. A Pipeline owns an
// ordered list of primary stages and an ordered list of post-stages; each Stage
// holds ordered steps, which are command steps (shell commands or Go functions)
// or nested stages.
//
// Stages and pipelines are immutable values. Build them with NewStage and
// NewPipeline and derive variants with With; every option call returns a new
// value, so a context already handed to a Runner never changes underneath it.
//
//	build := pipeline.NewStage("build",
//	    pipeline.Parallel(),
//	    pipeline.StepTimeout(5*time.Minute),
//	    pipeline.Sh("go build ./..."),
//	    pipeline.Sh("go vet ./..."),
//	)
//	deploy := pipeline.NewStage("deploy",
//	    pipeline.When(pipeline.Branch("main"), pipeline.EnvSet("DEPLOY_TOKEN")),
//	    pipeline.Sh("./deploy.sh"),
//	)
//	p := pipeline.NewPipeline("ci", pipeline.ProcessEnvironment(),
//	    pipeline.Timeout(30*time.Minute),
//	    pipeline.Stages(build, deploy),
//	    pipeline.PostStages(pipeline.NewStage("cleanup", pipeline.Sh("rm -rf tmp"))),
//	)
//	res, err := (&pipeline.Runner{Executor: exec, Reporter: rep}).Run(ctx, p)
//
// # Inheritance
//
// At run time the Runner builds a read-only Scope tree mirroring the stage tree.
// Working directory and timeouts resolve nearest-defined-wins up to the
// Pipeline; environment variables merge across the whole chain with the child
// winning; command-line arguments are read from the Pipeline's token list.
// Acceptable exit codes are the stage's own set plus its immediate parent's set.
//
// # Scheduling and outcomes
//
// Sequential stages stop at the first failing step. Parallel stages run every
// step concurrently and cancel siblings when one fails; results are always
// reported in declared order. Primary stages are fail-fast; post-stages all run
// unless the run was cancelled. Run returns exactly one of Succeeded, Cancelled
// or Failed; cancellation wins over failure.
//
// # Documentation mode
//
// With Runner.Mode set to Documentation the runner walks the tree, emits a
// ConditionDescribed event for every activation condition and an ArgDocumented
// event for every declared argument, and runs nothing.
package pipeline
