package tracker

import (
	"github.com/samuelfneumann/locopg/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
// Note that an episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []int
}

// NewEpisodeLength returns a new EpisodeLength tracker
func NewEpisodeLength() *EpisodeLength {
	return &EpisodeLength{}
}

// Track tracks the episode lengths in an experiment. When this function
// is called, it caches the episode length if the timestep passed to it
// is the last timestep in the episode.
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
	}
}

// Data returns the lengths of all finished episodes
func (e *EpisodeLength) Data() []int {
	return append([]int{}, e.episodeLengths...)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save(filename string) error {
	return save(filename, e.episodeLengths)
}
