// Package onestep implements one-step bootstrapped targets and
// advantages, along with a buffer for batching them
package onestep

import (
	"fmt"
)

// Target returns the one-step bootstrapped target of a transition:
//
//	G = r            if s' is terminal
//	G = r + ℽ v(s')  otherwise
//
// A transition cut off by a step limit is not terminal and is
// bootstrapped.
func Target(reward, discount, nextValue float64, terminal bool) float64 {
	if terminal {
		return reward
	}
	return reward + discount*nextValue
}

// Advantage returns the advantage G - v(s) of a transition with
// target G in a state with value v(s)
func Advantage(target, value float64) float64 {
	return target - value
}

// Buffer stores a fixed number of states, actions, and targets for a
// single batch update. Get may only be called on a full buffer, and
// empties it.
type Buffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions
	maxSize    int // Max buffer size

	currentPos int // Current position in the buffer

	// Buffers for storing data
	obsBuffer    []float64
	actBuffer    []float64
	targetBuffer []float64
}

// New creates and returns a new Buffer
func New(obsDim, actDim, size int) (*Buffer, error) {
	if obsDim <= 0 || actDim <= 0 || size <= 0 {
		return nil, fmt.Errorf("new: buffer dimensions must be positive "+
			"\n\tobs(%v) \n\tact(%v) \n\tsize(%v)", obsDim, actDim, size)
	}

	return &Buffer{
		obsSize:      obsDim,
		actionSize:   actDim,
		maxSize:      size,
		obsBuffer:    make([]float64, size*obsDim),
		actBuffer:    make([]float64, size*actDim),
		targetBuffer: make([]float64, size),
	}, nil
}

// Store stores a single state, action, and target in the Buffer
func (b *Buffer) Store(obs, act []float64, target float64) error {
	if b.currentPos >= b.maxSize {
		return fmt.Errorf("store: cannot add new transition, buffer at " +
			"maximum capacity")
	}
	if len(obs) != b.obsSize {
		return fmt.Errorf("store: illegal obs length \n\twant(%v)\n\thave(%v)",
			b.obsSize, len(obs))
	}
	if len(act) != b.actionSize {
		return fmt.Errorf("store: illegal act length \n\twant(%v)\n\thave(%v)",
			b.actionSize, len(act))
	}

	// Add observations
	start := b.currentPos * b.obsSize
	copy(b.obsBuffer[start:start+b.obsSize], obs)

	// Add actions
	start = b.currentPos * b.actionSize
	copy(b.actBuffer[start:start+b.actionSize], act)

	b.targetBuffer[b.currentPos] = target
	b.currentPos++
	return nil
}

// Full returns whether the buffer is full
func (b *Buffer) Full() bool {
	return b.currentPos == b.maxSize
}

// Len returns the number of stored transitions
func (b *Buffer) Len() int {
	return b.currentPos
}

// Cap returns the capacity of the buffer
func (b *Buffer) Cap() int {
	return b.maxSize
}

// Get returns copies of the observations, actions, and targets stored
// in the buffer in row major order and empties the buffer.
func (b *Buffer) Get() (obs, act, targets []float64, err error) {
	if !b.Full() {
		err := fmt.Errorf("get: buffer must be full before sampling "+
			"\n\twant(%v) \n\thave(%v)", b.maxSize, b.currentPos)
		return nil, nil, nil, err
	}
	b.currentPos = 0

	obs = append([]float64{}, b.obsBuffer...)
	act = append([]float64{}, b.actBuffer...)
	targets = append([]float64{}, b.targetBuffer...)
	return obs, act, targets, nil
}
