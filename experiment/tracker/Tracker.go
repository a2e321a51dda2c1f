// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/locopg/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save(filename string) error
}

// save gob-encodes data to filename
func save(filename string, data interface{}) error {
	// Open the file to save to
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	// Encode and save the file
	en := gob.NewEncoder(file)
	if err = en.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

// load decodes gob-encoded data from filename into data
func load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("load: could not decode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the data saved by a Return Tracker
func LoadData(filename string) ([]float64, error) {
	var data []float64
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadData: %v", err)
	}
	return data, nil
}
