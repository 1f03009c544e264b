package shared

// SyncOutcome classifies the result of one send to the remote endpoint
type SyncOutcome string

const (
	SyncOutcomeSuccess      SyncOutcome = "SUCCESS"
	SyncOutcomeTimeout      SyncOutcome = "TIMEOUT"
	SyncOutcomeNetworkError SyncOutcome = "NETWORK_ERROR"
	SyncOutcomeRejected     SyncOutcome = "REJECTED"    // Endpoint answered but did not confirm the append
	SyncOutcomeSkipped      SyncOutcome = "SKIPPED"     // In flight elsewhere or already synced
	SyncOutcomeStoreError   SyncOutcome = "STORE_ERROR" // Local flag update failed, nothing was sent
	SyncOutcomeOffline      SyncOutcome = "OFFLINE"     // Connectivity unavailable, nothing was attempted
)

// IsSuccess reports whether the endpoint confirmed the entry
func (o SyncOutcome) IsSuccess() bool {
	return o == SyncOutcomeSuccess
}

// IsRetryable reports whether the entry goes back to the unsynced queue
func (o SyncOutcome) IsRetryable() bool {
	switch o {
	case SyncOutcomeTimeout, SyncOutcomeNetworkError, SyncOutcomeRejected:
		return true
	default:
		return false
	}
}

// SyncEventType defines the events published after each send attempt
type SyncEventType string

const (
	SyncEventEntrySynced     SyncEventType = "ENTRY_SYNCED"
	SyncEventEntrySyncFailed SyncEventType = "ENTRY_SYNC_FAILED"
)
