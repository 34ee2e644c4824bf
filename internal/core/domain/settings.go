package domain

import "time"

// Default settings values.
const (
	DefaultDownloadDir           = "pdfs"
	DefaultAssistantModel        = "gpt-4o-mini"
	DefaultAssistantPoll         = 2 * time.Second
	DefaultAssistantTimeout      = 10 * time.Minute
	DefaultDocTitle              = "Drive Query Answer"
	DefaultListRetries           = 3
	DefaultAssistantName         = "PDF Query Assistant"
	DefaultAssistantInstructions = "You are a helpful assistant. Use the attached PDFs to answer questions."
)

// GoogleSettings holds Google API configuration.
type GoogleSettings struct {
	// CredentialsFile is the OAuth client secrets JSON downloaded from the Cloud console.
	CredentialsFile string
}

// DriveSettings holds folder walk configuration.
type DriveSettings struct {
	// MaxDepth bounds the folder walk.
	MaxDepth int
	// Concurrency bounds concurrent folder listings and downloads.
	Concurrency int
	// Dedupe drops files linked into several folders.
	Dedupe bool
	// SkipFailedFolders continues past folders that fail to list.
	SkipFailedFolders bool
	// PageSize is the listing page size (max 1000).
	PageSize int
	// Retries is the number of attempts for a transiently failing page.
	Retries int
}

// CollectOptions converts the settings to collector options.
func (d DriveSettings) CollectOptions() CollectOptions {
	return CollectOptions{
		MaxDepth:          d.MaxDepth,
		Concurrency:       d.Concurrency,
		Dedupe:            d.Dedupe,
		SkipFailedFolders: d.SkipFailedFolders,
	}.Normalised()
}

// AssistantSettings holds document assistant configuration.
type AssistantSettings struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// BaseURL is the API endpoint (empty uses the provider default).
	BaseURL string
	// Model is the assistant model name.
	Model string
	// Instructions is the assistant system prompt.
	Instructions string
	// PollInterval is the delay between run status checks.
	PollInterval time.Duration
	// Timeout bounds a single question.
	Timeout time.Duration
}

// IsConfigured returns true if the assistant can be called.
func (a AssistantSettings) IsConfigured() bool {
	return a.APIKey != ""
}

// DocsSettings holds answer document configuration.
type DocsSettings struct {
	// Title is the default document title.
	Title string
	// FolderID places new documents in this Drive folder when set.
	FolderID string
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Google      GoogleSettings
	Drive       DriveSettings
	DownloadDir string
	Assistant   AssistantSettings
	Docs        DocsSettings
}

// DefaultAppSettings returns settings with default values.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Drive: DriveSettings{
			MaxDepth:    DefaultMaxDepth,
			Concurrency: DefaultCollectConcurrency,
			PageSize:    MaxPageSize,
			Retries:     DefaultListRetries,
		},
		DownloadDir: DefaultDownloadDir,
		Assistant: AssistantSettings{
			Model:        DefaultAssistantModel,
			Instructions: DefaultAssistantInstructions,
			PollInterval: DefaultAssistantPoll,
			Timeout:      DefaultAssistantTimeout,
		},
		Docs: DocsSettings{
			Title: DefaultDocTitle,
		},
	}
}
