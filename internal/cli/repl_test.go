package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isLoggedIn() bool                           { return s.loggedIn }
func (s *stubExec) Login(ctx context.Context) error            { return s.record("login") }
func (s *stubExec) Register(ctx context.Context) error         { return s.record("register") }
func (s *stubExec) ResendVerification(ctx context.Context) error { return s.record("resend") }
func (s *stubExec) Logout(ctx context.Context) error           { return s.record("logout") }
func (s *stubExec) WhoAmI(ctx context.Context) error           { return s.record("whoami") }
func (s *stubExec) Models(ctx context.Context) error           { return s.record("models") }
func (s *stubExec) Backgrounds(ctx context.Context) error      { return s.record("backgrounds") }
func (s *stubExec) Upload(ctx context.Context) error           { return s.record("upload") }
func (s *stubExec) Generate(ctx context.Context) error         { return s.record("generate") }
func (s *stubExec) Status(ctx context.Context) error           { return s.record("status") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(t *testing.T, s *stubExec, input string) {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(input))
	runREPL(context.Background(), s, func() string { return "test" }, scanner)
}

func TestREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)
	s := &stubExec{loggedIn: true}

	run(t, s, "whoami\nmodels\nbackgrounds\nupload\ngenerate\nstatus\nlogout\nexit\n")

	require.Equal(t,
		[]string{"whoami", "models", "backgrounds", "upload", "generate", "status", "logout"},
		s.calls)
}

func TestREPL_ShortAliases(t *testing.T) {
	captureOutput(t)
	s := &stubExec{loggedIn: true}

	run(t, s, "m\nb\nquit\n")

	require.Equal(t, []string{"models", "backgrounds"}, s.calls)
}

func TestREPL_AnonymousCommands(t *testing.T) {
	captureOutput(t)
	s := &stubExec{}

	run(t, s, "register\nlogin\nresend\nexit\n")

	require.Equal(t, []string{"register", "login", "resend"}, s.calls)
}

func TestREPL_UnknownCommandReported(t *testing.T) {
	out := captureOutput(t)
	s := &stubExec{}

	run(t, s, "frobnicate\nexit\n")

	require.Empty(t, s.calls)
	joined := strings.Join(*out, "")
	require.Contains(t, joined, "Unknown command: frobnicate")
}

func TestREPL_HelpMatchesLoginState(t *testing.T) {
	out := captureOutput(t)
	run(t, &stubExec{}, "help\nexit\n")
	require.Contains(t, strings.Join(*out, ""), "register, login")

	out = captureOutput(t)
	run(t, &stubExec{loggedIn: true}, "help\nexit\n")
	require.Contains(t, strings.Join(*out, ""), "upload, generate")
}

func TestREPL_ExitsOnEOF(t *testing.T) {
	captureOutput(t)
	s := &stubExec{}
	run(t, s, "") // immediate EOF, must not loop forever
	require.Empty(t, s.calls)
}

func TestREPL_BlankLinesIgnored(t *testing.T) {
	captureOutput(t)
	s := &stubExec{loggedIn: true}
	run(t, s, "\n\nwhoami\nexit\n")
	require.Equal(t, []string{"whoami"}, s.calls)
}
