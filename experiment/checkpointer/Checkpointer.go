// Package checkpointer implements functionality for saving the weights
// of agents during training
package checkpointer

import "fmt"

// Saver is an object whose state can be saved to files sharing a
// filename prefix
type Saver interface {
	Save(prefix string) error
}

// Loader is an object whose state can be restored from files sharing
// a filename prefix
type Loader interface {
	Load(prefix string) error
}

// Checkpointer checkpoints/saves objects at the end of epochs
type Checkpointer interface {
	Checkpoint(epoch int) error
}

// Prefix returns the filename prefix of the checkpoint of the given
// epoch under path
func Prefix(path string, epoch int) string {
	return fmt.Sprintf("%v_%v", path, epoch)
}

// Load loads the checkpoint of the given epoch under path into object
func Load(object Loader, path string, epoch int) error {
	if epoch < 0 {
		return fmt.Errorf("load: illegal checkpoint epoch %v", epoch)
	}
	if err := object.Load(Prefix(path, epoch)); err != nil {
		return fmt.Errorf("load: could not load epoch %v from %v: %v",
			epoch, path, err)
	}
	return nil
}
