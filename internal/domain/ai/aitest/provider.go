// Package aitest provides a scripted ai.Provider for tests.
package aitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
)

// Response is one scripted answer.
type Response struct {
	Output string
	Err    error
}

// Provider answers capability calls from per-capability queues. The last
// response of a queue is repeated once the queue is drained.
type Provider struct {
	mu        sync.Mutex
	responses map[ai.Capability][]Response
	calls     map[ai.Capability]int
	inputs    map[ai.Capability][]string
}

func New() *Provider {
	return &Provider{
		responses: make(map[ai.Capability][]Response),
		calls:     make(map[ai.Capability]int),
		inputs:    make(map[ai.Capability][]string),
	}
}

// On queues successful outputs for a capability.
func (p *Provider) On(c ai.Capability, outputs ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range outputs {
		p.responses[c] = append(p.responses[c], Response{Output: o})
	}
	return p
}

// Fail queues a failure for a capability.
func (p *Provider) Fail(c ai.Capability, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[c] = append(p.responses[c], Response{Err: err})
	return p
}

func (p *Provider) Invoke(ctx context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[req.Capability]++
	p.inputs[req.Capability] = append(p.inputs[req.Capability], req.Input)

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrInvocation, err)
	}
	queue := p.responses[req.Capability]
	if len(queue) == 0 {
		return "", fmt.Errorf("%w: no scripted response for %s", ai.ErrInvocation, req.Capability)
	}
	r := queue[0]
	if len(queue) > 1 {
		p.responses[req.Capability] = queue[1:]
	}
	return r.Output, r.Err
}

// Calls returns how many times a capability was invoked.
func (p *Provider) Calls(c ai.Capability) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[c]
}

// Total returns the number of invocations across all capabilities.
func (p *Provider) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.calls {
		n += v
	}
	return n
}

// Inputs returns the inputs a capability was invoked with, in order.
func (p *Provider) Inputs(c ai.Capability) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.inputs[c]...)
}
