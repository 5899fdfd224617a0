package parser

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// queue holds deferred hooks in enqueue order.
type queue struct {
	items []*instance
}

func (q *queue) push(i *instance) {
	q.items = append(q.items, i)
}

func (q *queue) len() int { return len(q.items) }

// drain runs the queued hooks in order once the primary pass is complete.
// The first failure stops the drain; side effects of earlier hooks stay.
func (r *run) drain(ctx context.Context) error {
	n := r.queue.len()
	if n == 0 {
		return nil
	}

	switch r.opts.Mode.AcceptHooks {
	case AcceptNo:
		r.log.Info("post-gen hooks not accepted, skipping", zap.Int("count", n))
		r.queue.items = nil
		return nil
	case AcceptAsk:
		if !r.opts.Mode.NoInput {
			ok, err := r.opts.Prompter.Confirm(fmt.Sprintf("Run %d post-generation hook(s)?", n), true)
			if err != nil {
				return fmt.Errorf("phase=post_gen: %w", err)
			}
			if !ok {
				r.log.Info("post-gen hooks declined", zap.Int("count", n))
				r.queue.items = nil
				return nil
			}
		}
	}

	// Deferred blocks may queue more hooks while draining; those run last.
	for r.queue.len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		inst := r.queue.items[0]
		r.queue.items = r.queue.items[1:]
		r.log.Debug("running post-gen hook", zap.String("key", inst.path), zap.String("type", inst.spec.Type))
		if _, err := inst.execute(ctx); err != nil {
			return fmt.Errorf("phase=post_gen: %w", err)
		}
	}
	return nil
}
