package recordlist

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Change describes one mutation of the record list. Record holds the state
// after the change, or the removed record for Deleted.
type Change struct {
	Kind   ChangeKind
	Record Record
}

// Listener is called synchronously after every list mutation, once the store
// lock has been released.
type Listener func(change Change)

type subscription struct {
	listener Listener
}
