package tracker

import (
	ts "github.com/samuelfneumann/locopg/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	currentReturn  float64
	episodeReturns []float64
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn() *Return {
	return &Return{}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return. The first timestep of an episode carries no reward
// and starts a new episode.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.currentReturn = 0.0
		return
	}

	r.currentReturn += step.Reward
	if step.Last() {
		// Episode has ended, save the return and begin tracking the
		// return for a new episode
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
	}
}

// Current returns the return accumulated so far in the current
// episode
func (r *Return) Current() float64 {
	return r.currentReturn
}

// Data returns the returns of all finished episodes
func (r *Return) Data() []float64 {
	return append([]float64{}, r.episodeReturns...)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save(filename string) error {
	return save(filename, r.episodeReturns)
}
