package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/avatar-cli/avatar/internal/config"
	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/docker"
	"github.com/avatar-cli/avatar/internal/exitcode"
	"github.com/avatar-cli/avatar/internal/logging"
	"github.com/avatar-cli/avatar/internal/session"
	"github.com/avatar-cli/avatar/internal/testutil"
)

type fakeEngine struct {
	name    string
	path    string
	pathErr error
	missing map[string]bool
	probes  []string
}

func (f *fakeEngine) Name() string {
	if f.name == "" {
		return "docker"
	}
	return f.name
}

func (f *fakeEngine) Path() (string, error) {
	if f.pathErr != nil {
		return "", f.pathErr
	}
	return f.path, nil
}

func (f *fakeEngine) ImageExists(_ context.Context, ref string) (bool, error) {
	if f.pathErr != nil {
		return false, f.pathErr
	}
	f.probes = append(f.probes, ref)
	return !f.missing[ref], nil
}

type execCall struct {
	path string
	argv []string
	env  []string
}

type execRecorder struct {
	calls []execCall
}

func (r *execRecorder) exec(path string, argv []string, env []string) error {
	r.calls = append(r.calls, execCall{path: path, argv: argv, env: env})
	return nil
}

type testApp struct {
	*app
	engine *fakeEngine
	execs  *execRecorder
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(sc session.Context) *testApp {
	engine := &fakeEngine{path: "/usr/bin/docker"}
	rec := &execRecorder{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	a := &app{
		sc:       sc,
		settings: config.Defaults(),
		logger:   logging.Discard(),
		stdout:   stdout,
		stderr:   stderr,
		engine:   engine,
		invokerOpts: []docker.InvokerOption{
			docker.WithExec(rec.exec),
			docker.WithInteractive(func() bool { return false }),
			docker.WithHostIDs(func() (int, int) { return 1000, 1000 }),
		},
		exec:     rec.exec,
		lookPath: func(file string) (string, error) { return file, nil },
	}
	return &testApp{app: a, engine: engine, execs: rec, stdout: stdout, stderr: stderr}
}

func hostContext(wd string) session.Context {
	return session.Context{
		WorkingDir: wd,
		Shell:      "/bin/bash",
		Path:       "/usr/local/bin:/usr/bin",
		HasPath:    true,
		Environ:    []string{"HOME=/home/dev", "PATH=/usr/local/bin:/usr/bin", "SHELL=/bin/bash"},
	}
}

// sessionContext derives the environment a session shell would hand to a
// shim, from the environment passed to the shell exec.
func sessionContext(t *testing.T, env []string, wd string) session.Context {
	t.Helper()
	lookup := func(key string) (string, bool) {
		for _, kv := range env {
			if k, v, ok := strings.Cut(kv, "="); ok && k == key {
				return v, true
			}
		}
		return "", false
	}
	token, ok := lookup(constants.EnvSessionToken)
	if !ok {
		t.Fatalf("session env has no %s", constants.EnvSessionToken)
	}
	projectPath, _ := lookup(constants.EnvProjectPath)
	configPath, _ := lookup(constants.EnvConfigPath)
	lockPath, _ := lookup(constants.EnvLockPath)
	statePath, _ := lookup(constants.EnvStatePath)
	path, hasPath := lookup("PATH")

	return session.Context{
		Token:       token,
		HasToken:    true,
		ProjectPath: projectPath,
		ConfigPath:  configPath,
		LockPath:    lockPath,
		StatePath:   statePath,
		WorkingDir:  wd,
		Path:        path,
		HasPath:     hasPath,
		Environ:     env,
	}
}

func TestShellThenTool(t *testing.T) {
	p := testutil.NewProject(t)
	sub := p.Mkdir(t, "sub")

	shell := newTestApp(hostContext(sub))
	if code := shell.report(shell.execute(context.Background(), []string{"shell"})); code != exitcode.OK {
		t.Fatalf("avatar shell exited %v: %s", code, shell.stderr)
	}
	if len(shell.execs.calls) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(shell.execs.calls))
	}
	call := shell.execs.calls[0]
	if call.path != "/bin/bash" {
		t.Errorf("shell path = %q, want /bin/bash", call.path)
	}
	wantPath := "PATH=" + p.Paths.Shims + ":/usr/local/bin:/usr/bin"
	if !slices.Contains(call.env, wantPath) {
		t.Errorf("shell env missing %q: %v", wantPath, call.env)
	}
	if !slices.Contains(call.env, "HOME=/home/dev") {
		t.Errorf("shell env dropped HOME: %v", call.env)
	}
	if len(shell.engine.probes) != 2 {
		t.Errorf("expected 2 image probes, got %v", shell.engine.probes)
	}

	sc := sessionContext(t, call.env, sub)
	tool := newTestApp(sc)
	if code := tool.report(tool.runTool("terraform", []string{"plan", "-out=x"})); code != exitcode.OK {
		t.Fatalf("terraform exited %v: %s", code, tool.stderr)
	}
	if len(tool.execs.calls) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(tool.execs.calls))
	}
	run := tool.execs.calls[0]
	if run.path != "/usr/bin/docker" {
		t.Errorf("engine path = %q, want /usr/bin/docker", run.path)
	}
	argv := strings.Join(run.argv, " ")
	for _, want := range []string{
		"docker run --rm --init -i ",
		"--user 1000:1000",
		"--mount type=bind,source=" + p.Root + ",target=/playground",
		"--workdir /playground/sub",
		"--env " + constants.EnvSessionToken + "=" + sc.Token,
		"org/tf@sha256:" + testutil.TerraformDigest + " /usr/bin/terraform plan -out=x",
	} {
		if !strings.Contains(argv, want) {
			t.Errorf("argv missing %q:\n%s", want, argv)
		}
	}
}

func TestShell_Nested(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Token, sc.HasToken = "abcdefgh12345678", true

	a := newTestApp(sc)
	code := a.report(a.execute(context.Background(), []string{"shell"}))
	if code != exitcode.Usage {
		t.Errorf("nested shell exited %v, want %v", code, exitcode.Usage)
	}
	if len(a.execs.calls) != 0 {
		t.Error("nested shell must not exec")
	}
	if !strings.Contains(a.stderr.String(), "exit") {
		t.Errorf("stderr = %q, want a hint to exit", a.stderr)
	}
}

func TestShell_EmptyTokenCountsAsSession(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.HasToken = true

	a := newTestApp(sc)
	if code := a.report(a.execute(context.Background(), []string{"shell"})); code != exitcode.Usage {
		t.Errorf("shell with empty token exited %v, want %v", code, exitcode.Usage)
	}
}

func TestShell_StaleLock(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteConfig(t, []byte(testutil.DefaultConfig+"# edited\n"))

	a := newTestApp(hostContext(p.Root))
	code := a.report(a.execute(context.Background(), []string{"shell"}))
	if code != exitcode.DataErr {
		t.Errorf("stale lock exited %v, want %v", code, exitcode.DataErr)
	}
	if !strings.Contains(a.stderr.String(), constants.LockFile) {
		t.Errorf("stderr = %q, want it to name the lock file", a.stderr)
	}
	if len(a.execs.calls) != 0 || len(a.engine.probes) != 0 {
		t.Error("stale chain must stop before probing or exec")
	}
}

func TestShell_NotInProject(t *testing.T) {
	a := newTestApp(hostContext(t.TempDir()))
	if code := a.report(a.execute(context.Background(), []string{"shell"})); code != exitcode.Usage {
		t.Errorf("shell outside project exited %v, want %v", code, exitcode.Usage)
	}
}

func TestShell_ImageMissing(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(p.Root))
	a.engine.missing = map[string]bool{"org/tf@sha256:" + testutil.TerraformDigest: true}

	code := a.report(a.execute(context.Background(), []string{"shell"}))
	if code != exitcode.Unavailable {
		t.Errorf("missing image exited %v, want %v", code, exitcode.Unavailable)
	}
	if !strings.Contains(a.stderr.String(), "docker pull org/tf@sha256:") {
		t.Errorf("stderr = %q, want a pull hint", a.stderr)
	}
	if len(a.execs.calls) != 0 {
		t.Error("missing image must not exec the shell")
	}
}

func TestShell_ImageMissingHintNamesEngine(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(p.Root))
	a.engine.name = "podman"
	a.engine.missing = map[string]bool{"bitnami/kubectl@sha256:" + testutil.KubectlDigest: true}

	if code := a.report(a.execute(context.Background(), []string{"shell"})); code != exitcode.Unavailable {
		t.Errorf("missing image exited %v, want %v", code, exitcode.Unavailable)
	}
	if !strings.Contains(a.stderr.String(), "podman pull bitnami/kubectl@sha256:") {
		t.Errorf("stderr = %q, want a podman pull hint", a.stderr)
	}
}

func TestShell_MissingShell(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Shell = "/no/such/shell"

	a := newTestApp(sc)
	a.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	code := a.report(a.execute(context.Background(), []string{"shell"}))
	if code != exitcode.OSErr {
		t.Errorf("missing shell exited %v, want %v", code, exitcode.OSErr)
	}
	out := a.stderr.String()
	if !strings.Contains(out, "/no/such/shell") {
		t.Errorf("stderr = %q, want it to name the shell", out)
	}
	if strings.Contains(out, "--help") {
		t.Errorf("stderr = %q, a missing shell is not a usage error", out)
	}
	if len(a.execs.calls) != 0 {
		t.Error("missing shell must not exec")
	}
}

func TestExecute_CommandErrorsAreNotUsage(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(p.Root))
	a.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	err := a.execute(context.Background(), []string{"shell"})
	var usage *usageError
	if errors.As(err, &usage) {
		t.Errorf("execute() = %v, want the command's own error, not a usage error", err)
	}
}

func TestShell_NoPath(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Path, sc.HasPath = "", false

	a := newTestApp(sc)
	if code := a.report(a.execute(context.Background(), []string{"shell"})); code != exitcode.OSErr {
		t.Errorf("shell without PATH exited %v, want %v", code, exitcode.OSErr)
	}
}

func TestShell_DefaultShell(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Shell = ""

	a := newTestApp(sc)
	if code := a.report(a.execute(context.Background(), []string{"shell"})); code != exitcode.OK {
		t.Fatalf("shell exited %v: %s", code, a.stderr)
	}
	if got := a.execs.calls[0].path; got != constants.DefaultShell {
		t.Errorf("shell path = %q, want %q", got, constants.DefaultShell)
	}
}

func TestTool_OutsideProject(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(t.TempDir())
	sc.Token, sc.HasToken = "abcdefgh12345678", true
	sc.ProjectPath = p.Root

	a := newTestApp(sc)
	code := a.report(a.runTool("terraform", nil))
	if code != exitcode.Usage {
		t.Errorf("tool outside project exited %v, want %v", code, exitcode.Usage)
	}
	if !strings.Contains(a.stderr.String(), p.Root) {
		t.Errorf("stderr = %q, want it to name the project directory", a.stderr)
	}
	if len(a.execs.calls) != 0 {
		t.Error("tool outside project must not exec")
	}
}

func TestTool_NoSession(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(p.Root))
	if code := a.report(a.runTool("terraform", nil)); code != exitcode.Usage {
		t.Errorf("tool outside session exited %v, want %v", code, exitcode.Usage)
	}
}

func TestTool_Unknown(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Token, sc.HasToken = "abcdefgh12345678", true
	sc.ProjectPath = p.Root

	a := newTestApp(sc)
	if code := a.report(a.runTool("helm", nil)); code != exitcode.UnknownTool {
		t.Errorf("unknown tool exited %v, want %v", code, exitcode.UnknownTool)
	}
}

func TestTool_EngineMissing(t *testing.T) {
	p := testutil.NewProject(t)
	sc := hostContext(p.Root)
	sc.Token, sc.HasToken = "abcdefgh12345678", true
	sc.ProjectPath = p.Root

	a := newTestApp(sc)
	a.engine.pathErr = &docker.EngineNotFoundError{Engine: "docker", Err: errors.New("executable file not found in $PATH")}

	code := a.report(a.runTool("kubectl", []string{"get", "pods"}))
	if code != exitcode.Unavailable {
		t.Errorf("missing engine exited %v, want %v", code, exitcode.Unavailable)
	}
	if len(a.execs.calls) != 0 {
		t.Error("missing engine must not launch a container")
	}
}

func TestRun_Standalone(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(p.Root))

	err := a.execute(context.Background(), []string{"run", "kubectl", "get", "pods", "--all-namespaces"})
	if code := a.report(err); code != exitcode.OK {
		t.Fatalf("avatar run exited %v: %s", code, a.stderr)
	}
	argv := a.execs.calls[0].argv
	want := []string{"bitnami/kubectl@sha256:" + testutil.KubectlDigest, "/opt/bitnami/kubectl/bin/kubectl", "get", "pods", "--all-namespaces"}
	if got := argv[len(argv)-len(want):]; !slices.Equal(got, want) {
		t.Errorf("argv tail = %v, want %v", got, want)
	}
	if got := valueAfter(argv, "--workdir"); got != "/playground" {
		t.Errorf("--workdir = %q, want /playground", got)
	}
}

func TestExecute_UsageErrors(t *testing.T) {
	for _, args := range [][]string{{"bogus"}, {"run"}, {"shell", "extra"}, {"--nope"}} {
		a := newTestApp(hostContext(t.TempDir()))
		if code := a.report(a.execute(context.Background(), args)); code != exitcode.Usage {
			t.Errorf("avatar %v exited %v, want %v", args, code, exitcode.Usage)
		}
	}
}

func TestVersion(t *testing.T) {
	a := newTestApp(hostContext(t.TempDir()))
	if err := a.execute(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := a.stdout.String(); got != "avatar "+version+"\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestStatus(t *testing.T) {
	p := testutil.NewProject(t)
	a := newTestApp(hostContext(filepath.Join(p.Root)))
	if err := a.execute(context.Background(), []string{"status"}); err != nil {
		t.Fatalf("status: %v", err)
	}
	out := a.stdout.String()
	for _, want := range []string{p.Root, "verified", "terraform", "kubectl", "org/tf@sha256:" + testutil.TerraformDigest, "present"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestStatus_NoProject(t *testing.T) {
	a := newTestApp(hostContext(t.TempDir()))
	if err := a.execute(context.Background(), []string{"status"}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(a.stdout.String(), "not found") {
		t.Errorf("status output = %q, want project not found", a.stdout)
	}
}

func valueAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
