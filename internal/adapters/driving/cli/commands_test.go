package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/drivequery/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/core/services"
)

const link = "https://drive.google.com/drive/folders/root"

func sampleCollection() *domain.Collection {
	return &domain.Collection{
		RootID: "root",
		Files: []domain.FileDescriptor{
			{ID: "f1", Name: "report.pdf", MIMEType: domain.MimeTypePDF},
			{ID: "f2", Name: "Notes", MIMEType: domain.MimeTypeGoogleDoc},
		},
		FoldersVisited: 2,
	}
}

func TestCollectCmd_PrintsFiles(t *testing.T) {
	q := &fakeQuery{collection: sampleCollection()}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "collect", link)

	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "exportable")
	assert.Contains(t, out, "2 files in 2 folders")
}

func TestCollectCmd_JSON(t *testing.T) {
	q := &fakeQuery{collection: sampleCollection()}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "collect", link, "--json")

	require.NoError(t, err)
	var got domain.Collection
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "root", got.RootID)
	assert.Len(t, got.Files, 2)
}

func TestCollectCmd_PartialResultOnError(t *testing.T) {
	partial := sampleCollection()
	partial.Skipped = []domain.FolderFailure{{FolderID: "bad", Depth: 1, Reason: "permission denied"}}
	q := &fakeQuery{collection: partial, collectErr: domain.ErrTransientList}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "collect", link)

	require.ErrorIs(t, err, domain.ErrTransientList)
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "Skipped folder bad (depth 1): permission denied")
}

func TestCollectCmd_RequiresLink(t *testing.T) {
	q := &fakeQuery{}

	_, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "collect")

	assert.Error(t, err)
}

func TestDownloadCmd(t *testing.T) {
	q := &fakeQuery{files: []domain.LocalFile{
		{File: domain.FileDescriptor{ID: "f1"}, Path: "out/report.pdf"},
		{File: domain.FileDescriptor{ID: "f2"}, Path: "out/Notes.pdf"},
	}}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "download", link, "--dir", "out")

	require.NoError(t, err)
	assert.Equal(t, "out", q.downloadDir)
	assert.Contains(t, out, "out/report.pdf")
	assert.Contains(t, out, "[download] 2/2")
	assert.Contains(t, out, "Downloaded 2 files to out")
}

func TestDownloadCmd_DefaultDir(t *testing.T) {
	q := &fakeQuery{}

	_, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "download", link)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDownloadDir, q.downloadDir)
}

func TestAskCmd(t *testing.T) {
	q := &fakeQuery{run: &domain.Run{
		ID:          "run-1",
		Answer:      "Revenue grew 12%.",
		FileCount:   3,
		DocURL:      "https://docs.google.com/document/d/doc1/edit",
		AssistantID: "asst_1",
	}}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil,
		"ask", link, "How", "did", "revenue", "change?", "--title", "Q3", "--keep-assistant")

	require.NoError(t, err)
	assert.Equal(t, domain.QueryRequest{
		FolderLink:    link,
		Question:      "How did revenue change?",
		Title:         "Q3",
		KeepAssistant: true,
	}, q.req)
	assert.Contains(t, out, "[ask] waiting for answer")
	assert.Contains(t, out, "Revenue grew 12%.")
	assert.Contains(t, out, "Document: https://docs.google.com/document/d/doc1/edit")
	assert.Contains(t, out, "Assistant: asst_1")
	assert.Contains(t, out, "Run: run-1")
}

func TestAskCmd_PromptsForQuestion(t *testing.T) {
	q := &fakeQuery{run: &domain.Run{ID: "run-2", Answer: "Yes."}}

	out, err := execute(t, Services{Settings: newSettings(), Query: q.factory()},
		strings.NewReader("Is it signed?\n"), "ask", link, "--no-doc")

	require.NoError(t, err)
	assert.Contains(t, out, "Question: ")
	assert.Equal(t, "Is it signed?", q.req.Question)
	assert.True(t, q.req.SkipDoc)
	assert.NotContains(t, out, "Assistant:")
}

func TestAskCmd_EmptyQuestion(t *testing.T) {
	q := &fakeQuery{}

	_, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, strings.NewReader("\n"), "ask", link)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, q.settings)
}

func TestAskCmd_ErrorIncludesRunID(t *testing.T) {
	q := &fakeQuery{
		run:    &domain.Run{ID: "run-3", Status: domain.RunStatusFailed},
		runErr: domain.ErrAssistantRun,
	}

	_, err := execute(t, Services{Settings: newSettings(), Query: q.factory()}, nil, "ask", link, "why?")

	require.ErrorIs(t, err, domain.ErrAssistantRun)
	assert.Contains(t, err.Error(), "run run-3")
}

func TestAskCmd_FactoryError(t *testing.T) {
	factory := func(_ context.Context, _ *domain.AppSettings) (driving.QueryService, error) {
		return nil, domain.ErrAuthRequired
	}

	_, err := execute(t, Services{Settings: newSettings(), Query: factory}, nil, "ask", link, "why?")

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func seedRuns(t *testing.T) *memory.RunStore {
	t.Helper()
	store := memory.NewRunStore()
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), domain.Run{
		ID:         "run-old",
		Question:   "first question",
		Status:     domain.RunStatusFailed,
		Error:      "assistant run did not complete",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	}))
	require.NoError(t, store.Save(context.Background(), domain.Run{
		ID:         "run-new",
		Question:   "second question",
		FileCount:  4,
		Answer:     "All good.",
		DocURL:     "https://docs.google.com/document/d/d2/edit",
		Status:     domain.RunStatusCompleted,
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + 30*time.Second),
	}))
	return store
}

func TestRunsListCmd(t *testing.T) {
	history := services.NewRunHistory(seedRuns(t))

	out, err := execute(t, Services{History: history}, nil, "runs", "list")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run-new")
	assert.Contains(t, lines[0], "completed")
	assert.Contains(t, lines[1], "run-old")
}

func TestRunsListCmd_JSONAndLimit(t *testing.T) {
	history := services.NewRunHistory(seedRuns(t))

	out, err := execute(t, Services{History: history}, nil, "runs", "list", "--json", "--limit", "1")

	require.NoError(t, err)
	var runs []domain.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].ID)
}

func TestRunsListCmd_Empty(t *testing.T) {
	history := services.NewRunHistory(memory.NewRunStore())

	out, err := execute(t, Services{History: history}, nil, "runs", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs yet.")
}

func TestRunsShowCmd(t *testing.T) {
	history := services.NewRunHistory(seedRuns(t))

	out, err := execute(t, Services{History: history}, nil, "runs", "show", "run-new")

	require.NoError(t, err)
	assert.Contains(t, out, "second question")
	assert.Contains(t, out, "Duration:  30s")
	assert.Contains(t, out, "All good.")
}

func TestRunsShowCmd_NotFound(t *testing.T) {
	history := services.NewRunHistory(memory.NewRunStore())

	_, err := execute(t, Services{History: history}, nil, "runs", "show", "missing")

	assert.EqualError(t, err, "run missing not found")
}

func TestAuthLoginCmd(t *testing.T) {
	var opened string
	original := openBrowser
	openBrowser = func(url string) error {
		opened = url
		return nil
	}
	defer func() { openBrowser = original }()
	auth := &fakeAuth{creds: &domain.Credentials{AccountIdentifier: "ada@example.com"}}

	out, err := execute(t, Services{Auth: auth}, nil, "auth", "login")

	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/auth?state=x", opened)
	assert.Contains(t, out, opened)
	assert.Contains(t, out, "Signed in as ada@example.com")
}

func TestAuthStatusCmd(t *testing.T) {
	auth := &fakeAuth{creds: &domain.Credentials{
		AccountIdentifier: "ada@example.com",
		OAuth: &domain.OAuthCredentials{
			AccessToken:  "at",
			RefreshToken: "rt",
			Expiry:       time.Now().Add(time.Hour),
		},
	}}

	out, err := execute(t, Services{Auth: auth}, nil, "auth", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "valid until")
	assert.Contains(t, out, "Refresh:  yes")
}

func TestAuthStatusCmd_NotSignedIn(t *testing.T) {
	auth := &fakeAuth{err: domain.ErrAuthRequired}

	out, err := execute(t, Services{Auth: auth}, nil, "auth", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")
}

func TestAuthLogoutCmd(t *testing.T) {
	auth := &fakeAuth{}

	out, err := execute(t, Services{Auth: auth}, nil, "auth", "logout")

	require.NoError(t, err)
	assert.True(t, auth.loggedOut)
	assert.Contains(t, out, "Signed out.")
}

func TestAuthLogoutCmd_Error(t *testing.T) {
	auth := &fakeAuth{err: errors.New("disk full")}

	_, err := execute(t, Services{Auth: auth}, nil, "auth", "logout")

	assert.EqualError(t, err, "logout: disk full")
}

func TestConfigShowCmd_MasksSecrets(t *testing.T) {
	settings := newSettings()
	require.NoError(t, settings.SetValue("openai.api_key", "sk-abcdefghijklmnop"))

	out, err := execute(t, Services{Settings: settings}, nil, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "sk-a...mnop")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
	assert.Contains(t, out, "drive.max_depth")
}

func TestConfigGetCmd(t *testing.T) {
	out, err := execute(t, Services{Settings: newSettings()}, nil, "config", "get", "drive.max_depth")

	require.NoError(t, err)
	assert.Equal(t, "64\n", out)
}

func TestConfigGetCmd_UnknownKey(t *testing.T) {
	_, err := execute(t, Services{Settings: newSettings()}, nil, "config", "get", "drive.colour")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigSetCmd(t *testing.T) {
	settings := newSettings()

	out, err := execute(t, Services{Settings: settings}, nil, "config", "set", "docs.title", "Weekly")

	require.NoError(t, err)
	assert.Contains(t, out, "docs.title = Weekly")
	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "Weekly", got.Docs.Title)
}

func TestConfigSetCmd_PromptsForSecret(t *testing.T) {
	settings := newSettings()

	out, err := execute(t, Services{Settings: settings}, strings.NewReader("sk-abcdefghijklmnop\n"),
		"config", "set", "openai.api_key")

	require.NoError(t, err)
	assert.Contains(t, out, "openai.api_key = sk-a...mnop")
	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijklmnop", got.Assistant.APIKey)
}

func TestConfigSetCmd_VerifiesAPIKey(t *testing.T) {
	settings := newSettings()
	var checked string
	verify := func(_ context.Context, s *domain.AppSettings) error {
		checked = s.Assistant.APIKey
		return nil
	}

	out, err := execute(t, Services{Settings: settings, VerifyAssistant: verify}, nil,
		"config", "set", "openai.api_key", "sk-abcdefghijklmnop")

	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijklmnop", checked)
	assert.Contains(t, out, "API key verified")
}

func TestConfigSetCmd_RejectedAPIKeyIsKept(t *testing.T) {
	settings := newSettings()
	verify := func(context.Context, *domain.AppSettings) error {
		return errors.New("openai: ping failed: 401 invalid_api_key")
	}

	out, err := execute(t, Services{Settings: settings, VerifyAssistant: verify}, nil,
		"config", "set", "openai.api_key", "sk-bad")

	require.NoError(t, err)
	assert.Contains(t, out, "API key verification failed")
	assert.NotContains(t, out, "API key verified")
	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-bad", got.Assistant.APIKey)
}

func TestConfigSetCmd_VerifyOnlyForSecrets(t *testing.T) {
	called := false
	verify := func(context.Context, *domain.AppSettings) error {
		called = true
		return nil
	}

	_, err := execute(t, Services{Settings: newSettings(), VerifyAssistant: verify}, nil,
		"config", "set", "docs.title", "Weekly")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestConfigSetCmd_ResetsToDefault(t *testing.T) {
	settings := newSettings()
	require.NoError(t, settings.SetValue("drive.max_depth", "5"))

	out, err := execute(t, Services{Settings: settings}, nil, "config", "set", "drive.max_depth")

	require.NoError(t, err)
	assert.Contains(t, out, "drive.max_depth reset to default")
	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxDepth, got.Drive.MaxDepth)
}

func TestConfigSetCmd_RejectsInvalid(t *testing.T) {
	_, err := execute(t, Services{Settings: newSettings()}, nil, "config", "set", "drive.max_depth", "deep")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
