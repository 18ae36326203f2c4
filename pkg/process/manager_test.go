package process

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/psryland/rylogic-code-sub008/pkg/testutil"
)

func TestManager_StartAndOutput(t *testing.T) {
	mock := testutil.NewMockPTY("line one\nline two\n")
	m := NewManager(mock)

	if err := m.Start("make", []string{"build"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mock.IsStarted() {
		t.Error("expected PTY to be started")
	}
	cmd, args := mock.GetCommand()
	if cmd != "make" || !reflect.DeepEqual(args, []string{"build"}) {
		t.Errorf("expected make [build] but got %s %v", cmd, args)
	}

	out, err := io.ReadAll(m.Output())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "line one\nline two\n" {
		t.Errorf("unexpected output %q", out)
	}

	if err := m.Wait(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mock.IsWaited() {
		t.Error("expected Wait to reach the PTY")
	}
	if m.ExitCode() != 0 {
		t.Errorf("expected exit code 0 but got %d", m.ExitCode())
	}
}

func TestManager_StartError(t *testing.T) {
	mock := testutil.NewMockPTY("")
	startErr := errors.New("no such file")
	mock.SetStartError(startErr)

	m := NewManager(mock)
	if err := m.Start("missing", nil); !errors.Is(err, startErr) {
		t.Errorf("expected wrapped start error but got %v", err)
	}
}

func TestManager_WaitError(t *testing.T) {
	mock := testutil.NewMockPTY("")
	waitErr := errors.New("wait failed")
	mock.SetWaitError(waitErr)

	m := NewManager(mock)
	_ = m.Start("x", nil)
	if err := m.Wait(); !errors.Is(err, waitErr) {
		t.Errorf("expected wait error but got %v", err)
	}
}

func TestManager_StopWithoutProcess(t *testing.T) {
	m := NewManager(testutil.NewMockPTY(""))
	if err := m.Stop(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
