package policies

// SyncRunner executes a feed sync in the background after a link has been
// moved into the syncing state. Completion is reported on the link record,
// not to the caller.
type SyncRunner interface {
	Kick(propertyID string, linkID string)
}
