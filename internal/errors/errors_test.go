package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestToToolErrorWrapsUnknown(t *testing.T) {
	err := ToToolError(fmt.Errorf("boom: password=secret"))
	if err.Code != CodeInternalError {
		t.Fatalf("expected internal error code, got %s", err.Code)
	}
	if err.Details["cause"] == "boom: password=secret" {
		t.Fatalf("expected scrubbed cause, got %v", err.Details["cause"])
	}
}

func TestToToolErrorFindsWrapped(t *testing.T) {
	inner := NewUnknownDiagnostic("NOPE")
	err := ToToolError(fmt.Errorf("run: %w", inner))
	if err != inner {
		t.Fatalf("expected wrapped error to be returned as-is, got %v", err)
	}
}

func TestKindSentinels(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := fmt.Errorf("check: %w", NewConnectivity("db1:5432", cause))
	if !stderrors.Is(err, ErrConnectivity) {
		t.Fatalf("expected connectivity kind")
	}
	if stderrors.Is(err, ErrAmbiguousPrimary) {
		t.Fatalf("connectivity must not match ambiguous primary")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via Unwrap")
	}
	if CodeOf(err) != CodeConnectivity {
		t.Fatalf("expected CONNECTIVITY, got %s", CodeOf(err))
	}
}

func TestAmbiguousPrimaryReasons(t *testing.T) {
	none := NewNoPrimary(3)
	if !stderrors.Is(none, ErrNoPrimary) || !stderrors.Is(none, ErrAmbiguousPrimary) {
		t.Fatalf("no-primary error should match both sentinel and kind")
	}
	if none.Details["reason"] != ReasonNoPrimary || none.Details["probed"] != 3 {
		t.Fatalf("unexpected details %v", none.Details)
	}
	split := NewSplitBrain([]string{"a:5432", "b:5432"})
	if !stderrors.Is(split, ErrSplitBrain) {
		t.Fatalf("expected split brain cause")
	}
	if split.Details["hosts"] != "a:5432,b:5432" {
		t.Fatalf("unexpected hosts %v", split.Details["hosts"])
	}
}

func TestNewInvalidInput(t *testing.T) {
	e := NewInvalidInput("bad", "hint", map[string]any{"field": "x"})
	if e.Code != CodeInvalidInput {
		t.Fatalf("expected %s, got %s", CodeInvalidInput, e.Code)
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if CodeOf(stderrors.New("x")) != CodeInternalError {
		t.Fatalf("plain errors map to INTERNAL_ERROR")
	}
}
