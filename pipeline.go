package agentscope

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Sequential runs agents left-to-right, feeding each agent's result
// text back in as the next agent's user input (§4.9). It returns the
// final agent's CallResult. Per-agent interruption is honored: if an
// agent returns FinishInterrupted or FinishStopped, the chain halts
// there and that result is returned immediately.
func Sequential(ctx context.Context, agents []*Agent, input string) (CallResult, error) {
	var result CallResult
	msg := UserMsg(input)
	for _, agent := range agents {
		r, err := agent.Call(ctx, &msg, nil)
		if err != nil {
			return CallResult{}, err
		}
		result = r
		if result.FinishReason == FinishInterrupted || result.FinishReason == FinishStopped {
			return result, nil
		}
		msg = UserMsg(result.Message.ExtractText())
	}
	return result, nil
}

// Fanout runs every agent concurrently against the same input,
// returning results in agent order (§4.9). Cancelling ctx cancels every
// outstanding branch; the first branch error cancels the rest and is
// returned.
func Fanout(ctx context.Context, agents []*Agent, input string) ([]CallResult, error) {
	results := make([]CallResult, len(agents))
	msg := UserMsg(input)

	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range agents {
		i, agent := i, agent
		g.Go(func() error {
			r, err := agent.Call(gctx, &msg, nil)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
