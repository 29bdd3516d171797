package worker

import (
	"context"
	"sync"

	"github.com/akravchenko/alertmap/internal/models"
)

type ProcessFunc func(ctx context.Context, msg models.InboundMessage) error

// Pool is the bounded queue between "message received" and "pipeline
// invoked". The channel listener submits raw posts; workers run the pipeline.
type Pool struct {
	numWorkers int
	jobs       chan models.InboundMessage
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, bufferSize int, processor ProcessFunc) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan models.InboundMessage, bufferSize),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, msg)
		}
	}
}

func (p *Pool) Submit(msg models.InboundMessage) {
	p.jobs <- msg
}

func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
