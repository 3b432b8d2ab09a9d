package constants

// JobStatus is the canonical status for a batch processing job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusTextOK    JobStatus = "TEXT_OK"   // stage 1 completed (text extracted)
	JobStatusExtracted JobStatus = "EXTRACTED" // stage 2 completed (records assembled)
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
