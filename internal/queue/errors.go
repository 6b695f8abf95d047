package queue

import "errors"

// ErrQueueFull is returned by Add when the queue is at capacity. The caller
// must wait for a successful sync or clear the queue to make room.
var ErrQueueFull = errors.New("submission queue is full")
