package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/drivequery/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/core/services"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// execute runs the root command with svc and returns everything written to
// stdout and stderr.
func execute(t *testing.T, svc Services, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	prev := deps
	SetServices(svc)
	t.Cleanup(func() {
		deps = prev
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
		logger.SetVerbose(false)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)

	err := Execute(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func newSettings() *services.SettingsService {
	return services.NewSettingsService(memory.NewConfigStore()).WithEnv(func(string) string { return "" })
}

type fakeQuery struct {
	collection  *domain.Collection
	collectErr  error
	files       []domain.LocalFile
	downloadErr error
	downloadDir string
	run         *domain.Run
	runErr      error
	req         domain.QueryRequest
	settings    *domain.AppSettings
}

func (q *fakeQuery) factory() QueryFactory {
	return func(_ context.Context, s *domain.AppSettings) (driving.QueryService, error) {
		q.settings = s
		return q, nil
	}
}

func (q *fakeQuery) Collect(_ context.Context, _ string) (*domain.Collection, error) {
	return q.collection, q.collectErr
}

func (q *fakeQuery) Download(
	_ context.Context,
	_ string,
	dir string,
	progress driving.ProgressFunc,
) ([]domain.LocalFile, error) {
	q.downloadDir = dir
	progress(domain.ProgressEvent{Stage: domain.StageDownload, Done: len(q.files), Total: len(q.files)})
	return q.files, q.downloadErr
}

func (q *fakeQuery) Run(
	_ context.Context,
	req domain.QueryRequest,
	progress driving.ProgressFunc,
) (*domain.Run, error) {
	q.req = req
	progress(domain.ProgressEvent{Stage: domain.StageAsk, Message: "waiting for answer"})
	return q.run, q.runErr
}

type fakeAuth struct {
	creds     *domain.Credentials
	err       error
	loggedOut bool
}

func (a *fakeAuth) Login(_ context.Context, openURL func(string) error) (*domain.Credentials, error) {
	if err := openURL("https://accounts.example.com/auth?state=x"); err != nil {
		return nil, err
	}
	return a.creds, a.err
}

func (a *fakeAuth) Status(context.Context) (*domain.Credentials, error) {
	return a.creds, a.err
}

func (a *fakeAuth) Logout(context.Context) error {
	a.loggedOut = true
	return a.err
}
