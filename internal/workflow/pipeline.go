package workflow

import (
	"context"
	"fmt"
)

// Pipeline runs stages strictly in order over one ChatState. Stage order is
// fixed at construction; Run stops at the first stage error.
type Pipeline struct {
	stages []Stage
}

// NewPipeline assembles the standard five-stage chat pipeline.
func NewPipeline(analyzer Stage, decomposer Stage, retriever Stage, generator Stage, updater Stage) *Pipeline {
	return &Pipeline{stages: []Stage{analyzer, decomposer, retriever, generator, updater}}
}

// Run executes every stage in order. Most stages absorb their own failures;
// an error here almost always comes from the response generator.
func (p *Pipeline) Run(ctx context.Context, state *ChatState) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled before %s: %w", stage.Name(), err)
		}
		if err := stage.Run(ctx, state); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	return nil
}
