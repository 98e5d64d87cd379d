package queue

import "context"

// Channel is an in-process buffered-channel Queue for the single-binary
// deployment and for synchronous tests (§9's "tests inject a synchronous
// queue").
type Channel struct {
	jobs chan string
}

// NewChannel returns a Channel with the given buffer size. A size of 0
// makes Enqueue block until a Dequeue call is ready, suitable for
// deterministic tests.
func NewChannel(size int) *Channel {
	return &Channel{jobs: make(chan string, size)}
}

var _ Queue = (*Channel)(nil)

func (c *Channel) Enqueue(ctx context.Context, jobID string) error {
	select {
	case c.jobs <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) Dequeue(ctx context.Context) (string, error) {
	select {
	case jobID := <-c.jobs:
		return jobID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
