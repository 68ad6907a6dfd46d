package model

// RunReport carries partial progress of an aggregate run so operators can resume.
type RunReport struct {
	RunID            string         `json:"run_id"`
	Stage            string         `json:"stage"`
	TotalProcessed   int            `json:"total_processed"`
	TaggedMessages   int            `json:"tagged_messages,omitempty"`
	TotalMessages    int            `json:"total_messages,omitempty"`
	TotalChunks      int            `json:"total_chunks,omitempty"`
	VectorizedChunks int            `json:"vectorized_chunks,omitempty"`
	FailedBatches    []BatchFailure `json:"failed_batches,omitempty"`
	StartedAt        int64          `json:"started_at"`
	FinishedAt       int64          `json:"finished_at"`
}

type BatchFailure struct {
	Batch    int    `json:"batch"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

func (r *RunReport) Failed() bool {
	return len(r.FailedBatches) > 0
}
