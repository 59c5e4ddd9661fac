package state

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/avatar-cli/avatar/internal/integrity"
	"github.com/avatar-cli/avatar/internal/session"
	"github.com/avatar-cli/avatar/internal/testutil"
)

type fakeEngine struct {
	pathErr error
	present map[string]bool
}

func (f *fakeEngine) Path() (string, error) {
	if f.pathErr != nil {
		return "", f.pathErr
	}
	return "/usr/bin/docker", nil
}

func (f *fakeEngine) ImageExists(_ context.Context, ref string) (bool, error) {
	return f.present[ref], nil
}

func TestDetect_Healthy(t *testing.T) {
	p := testutil.NewProject(t)
	engine := &fakeEngine{present: map[string]bool{
		"org/tf@sha256:" + testutil.TerraformDigest: true,
	}}

	st := NewDetector(session.Context{WorkingDir: p.Root}, engine).Detect(context.Background())

	if !st.Verified() {
		t.Fatalf("Verified() = false, ChainErr = %v", st.ChainErr)
	}
	if !st.ConfigExists || !st.LockExists || !st.StateExists {
		t.Errorf("artifacts = %v/%v/%v, want all present", st.ConfigExists, st.LockExists, st.StateExists)
	}
	if len(st.Tools) != 2 || st.Tools[0] != "kubectl" || st.Tools[1] != "terraform" {
		t.Errorf("Tools = %v", st.Tools)
	}
	if len(st.Images) != 2 {
		t.Fatalf("Images = %v, want 2", st.Images)
	}
	for _, img := range st.Images {
		wantPresent := img.Ref == "org/tf@sha256:"+testutil.TerraformDigest
		if img.Present != wantPresent {
			t.Errorf("%s present = %v, want %v", img.Ref, img.Present, wantPresent)
		}
	}
}

func TestDetect_ReportsBrokenChain(t *testing.T) {
	p := testutil.NewProject(t)
	if err := os.Remove(p.Paths.State); err != nil {
		t.Fatalf("remove: %v", err)
	}

	st := NewDetector(session.Context{WorkingDir: p.Root}, &fakeEngine{}).Detect(context.Background())

	var missing *integrity.MissingArtifactError
	if !errors.As(st.ChainErr, &missing) || missing.Which != integrity.ArtifactState {
		t.Fatalf("ChainErr = %v, want missing state", st.ChainErr)
	}
	if st.StateExists {
		t.Error("StateExists = true")
	}
	if st.Images != nil {
		t.Errorf("Images = %v, want none for an unverified chain", st.Images)
	}
}

func TestDetect_NoProject(t *testing.T) {
	st := NewDetector(session.Context{WorkingDir: t.TempDir()}, &fakeEngine{pathErr: exec.ErrNotFound}).Detect(context.Background())

	if st.ProjectFound || st.Verified() {
		t.Errorf("state = %+v, want no project", st)
	}
	if st.EngineErr == nil {
		t.Error("EngineErr = nil, want lookup failure")
	}
}

func TestDetect_SessionPathsFromEnvironment(t *testing.T) {
	p := testutil.NewProject(t)
	alt := filepath.Join(t.TempDir(), "state.yml")
	testutil.WriteFile(t, alt, testutil.ReadFile(t, p.Paths.State))
	if err := os.Remove(p.Paths.State); err != nil {
		t.Fatalf("remove: %v", err)
	}

	sc := session.Context{
		Token:       "abcdefgh12345678",
		HasToken:    true,
		ProjectPath: p.Root,
		StatePath:   alt,
		WorkingDir:  p.Root,
	}
	st := NewDetector(sc, &fakeEngine{}).Detect(context.Background())

	if st.Paths.State != alt {
		t.Errorf("Paths.State = %v, want %v", st.Paths.State, alt)
	}
	if !st.Verified() {
		t.Errorf("Verified() = false, ChainErr = %v", st.ChainErr)
	}
}
