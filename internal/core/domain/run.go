package domain

import "time"

// RunStatus is the outcome of a query run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// QueryRequest asks a question against every file under a folder link.
type QueryRequest struct {
	// FolderLink is the shareable Drive folder link.
	FolderLink string
	// Question is asked against the uploaded corpus.
	Question string
	// Title names the answer document. Empty uses the configured default.
	Title string
	// SkipDoc disables writing the answer to a Google Doc.
	SkipDoc bool
	// KeepAssistant leaves the assistant in place after the run.
	KeepAssistant bool
}

// Run records one query pipeline execution.
type Run struct {
	ID          string    `json:"id"`
	FolderID    string    `json:"folder_id"`
	Question    string    `json:"question"`
	FileCount   int       `json:"file_count"`
	AssistantID string    `json:"assistant_id,omitempty"`
	Answer      string    `json:"answer,omitempty"`
	DocURL      string    `json:"doc_url,omitempty"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// LocalFile is a descriptor that has been written to local storage.
type LocalFile struct {
	File FileDescriptor
	Path string
}

// UploadRecord maps a Drive file to its uploaded assistant file.
type UploadRecord struct {
	DriveFileID     string    `json:"drive_file_id"`
	AssistantFileID string    `json:"assistant_file_id"`
	Name            string    `json:"name"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// WrittenDoc identifies a Google Doc created for an answer.
type WrittenDoc struct {
	ID  string
	URL string
}

// Stage is a step of the query pipeline.
type Stage string

// Pipeline stages, in order.
const (
	StageResolve  Stage = "resolve"
	StageCollect  Stage = "collect"
	StageDownload Stage = "download"
	StageUpload   Stage = "upload"
	StageIndex    Stage = "index"
	StageAsk      Stage = "ask"
	StageWrite    Stage = "write"
	StageDone     Stage = "done"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageResolve, StageCollect, StageDownload, StageUpload, StageIndex, StageAsk, StageWrite}
}

// ProgressEvent reports pipeline progress.
type ProgressEvent struct {
	Stage   Stage
	Done    int
	Total   int
	Message string
}
