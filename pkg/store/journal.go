package store

// Journal records undo steps for every write made through the maps and values
// bound to it. Writes outside Atomic are applied directly and never undone.
type Journal struct {
	undo  []func()
	depth int
}

// NewJournal creates an empty journal
func NewJournal() *Journal {
	return &Journal{}
}

// Atomic runs fn and reverts every journaled write it made when fn returns an
// error. Calls may nest; an inner failure only reverts the inner writes.
func (j *Journal) Atomic(fn func() error) (err error) {
	mark := len(j.undo)
	j.depth++
	defer func() {
		j.depth--
		if r := recover(); r != nil {
			j.rollback(mark)
			panic(r)
		}
		if err != nil {
			j.rollback(mark)
			return
		}
		if j.depth == 0 {
			j.undo = j.undo[:0]
		}
	}()
	return fn()
}

// InTx reports whether a write would currently be journaled
func (j *Journal) InTx() bool {
	return j.depth > 0
}

func (j *Journal) record(step func()) {
	if j.depth == 0 {
		return
	}
	j.undo = append(j.undo, step)
}

func (j *Journal) rollback(mark int) {
	for i := len(j.undo) - 1; i >= mark; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:mark]
}
