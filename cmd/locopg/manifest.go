package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
)

// manifest records a single run of a training command
type manifest struct {
	ID          string    `json:"id"`
	Parent      string    `json:"parent,omitempty"`
	Command     string    `json:"command"`
	Started     time.Time `json:"started"`
	Options     options   `json:"options"`
	Checkpoints []int     `json:"checkpoints"`
	Updates     int       `json:"updates"`
	TestReturns []float64 `json:"test_returns,omitempty"`
}

func newManifest(command string, o options) *manifest {
	return &manifest{
		ID:          uuid.New().String(),
		Command:     command,
		Started:     time.Now(),
		Options:     o,
		Checkpoints: []int{},
	}
}

// write saves the manifest as JSON to filename
func (m *manifest) write(filename string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("write: could not encode manifest: %v", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write: could not write manifest: %v", err)
	}
	return nil
}

// fail records the manifest at filename and returns cause. An error
// writing the manifest is reported along with cause.
func (m *manifest) fail(filename string, cause error) error {
	if err := m.write(filename); err != nil {
		return fmt.Errorf("%v (could not record run: %v)", cause, err)
	}
	return cause
}

// resume continues the run recorded by prev from the checkpoint at
// epoch. The checkpoints of prev are carried over. An error is returned
// if prev never saved a checkpoint at epoch.
func (m *manifest) resume(prev *manifest, epoch int) error {
	m.Parent = prev.ID
	m.addCheckpoints(prev.Checkpoints)
	for _, saved := range prev.Checkpoints {
		if saved == epoch {
			return nil
		}
	}
	return fmt.Errorf("resume: run %v saved no checkpoint at epoch %v",
		prev.ID, epoch)
}

// addCheckpoints records the epochs of new checkpoints
func (m *manifest) addCheckpoints(epochs []int) {
	seen := make(map[int]bool, len(m.Checkpoints))
	for _, epoch := range m.Checkpoints {
		seen[epoch] = true
	}
	for _, epoch := range epochs {
		if !seen[epoch] {
			m.Checkpoints = append(m.Checkpoints, epoch)
			seen[epoch] = true
		}
	}
	sort.Ints(m.Checkpoints)
}

// readManifest reads the manifest saved at filename
func readManifest(filename string) (*manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("readManifest: %v", err)
	}
	m := &manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("readManifest: could not decode %v: %v",
			filename, err)
	}
	return m, nil
}

func manifestFile(path string) string { return path + "_manifest.json" }

func historyFile(path string) string { return path + "_history.gob" }
