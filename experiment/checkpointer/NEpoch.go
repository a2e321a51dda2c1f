package checkpointer

// NEpoch implements checkpointing every N epochs. The final epoch of
// training is always checkpointed.
type NEpoch struct {
	interval int
	final    int
	object   Saver // Object to save
	path     string

	saved []int
}

// NewNEpoch returns a checkpointer that checkpoints object every n
// epochs and on the final epoch. Checkpoints are saved with the prefix
// returned by Prefix(path, epoch).
func NewNEpoch(n, final int, object Saver, path string) *NEpoch {
	return &NEpoch{
		interval: n,
		final:    final,
		object:   object,
		path:     path,
	}
}

// Checkpoint saves the tracked object if epoch is a multiple of the
// interval or the final epoch
func (n *NEpoch) Checkpoint(epoch int) error {
	if !n.Due(epoch) {
		return nil
	}
	if err := n.object.Save(Prefix(n.path, epoch)); err != nil {
		return err
	}
	n.saved = append(n.saved, epoch)
	return nil
}

// Due returns whether epoch will be checkpointed
func (n *NEpoch) Due(epoch int) bool {
	return (n.interval > 0 && epoch%n.interval == 0) || epoch == n.final
}

// Saved returns the epochs that have been checkpointed
func (n *NEpoch) Saved() []int {
	return append([]int{}, n.saved...)
}
