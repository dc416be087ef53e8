// Package trackers implements Trackers, which track and save data in
// an experiment
package trackers

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
	ts "github.com/samuelfneumann/godriving/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// save gob encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save: could not open save file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return errors.Wrapf(err, "save: could not encode data to %v", filename)
	}
	return file.Close()
}

// load decodes gob encoded data from filename into data
func load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "load: could not open data file")
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return errors.Wrapf(err, "load: could not decode %v", filename)
	}
	return nil
}
