package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/loom/pkg/tech"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	tech   *tech.Tech
	errors []EvalError
	err    error
}

// waitWithTimeout waits for the result of evaluation gen. It gives up when
// ctx is done or EvalTimeout passes, and discards the result when a newer
// evaluation started in the meantime. The evaluating goroutine is not
// stopped; its late result is dropped.
func waitWithTimeout(ctx context.Context, ch <-chan evalResult, gen uint64, mu *sync.Mutex, currentGen *uint64) (*tech.Tech, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *currentGen
		mu.Unlock()
		if stale {
			return nil, nil, fmt.Errorf("evaluation %d superseded by a newer request", gen)
		}
		return res.tech, res.errors, res.err

	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
