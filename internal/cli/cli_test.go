package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/config"
	"github.com/information-sharing-networks/pass-issuer/internal/pass"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	cfg = &config.IssuerEnvironment{
		Environment:     "test",
		RegistryAddress: "0x8c9460deDCBe881ddaE1681c3aa48d6eEC723160",
		VerifyBaseURL:   "https://action.openattestation.com/",
		StorageBaseURL:  "https://passes.example.com/passes",
	}
	appLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(out)
	return cmd
}

func TestPassword(t *testing.T) {
	setupTestConfig(t)

	if _, err := password(""); err == nil {
		t.Errorf("password() with no flag or ENCRYPTION_PASSWORD returned no error")
	}

	cfg.EncryptionPassword = "from-env"
	if got, _ := password(""); got != "from-env" {
		t.Errorf("password(\"\") = %q, want from-env", got)
	}
	if got, _ := password("from-flag"); got != "from-flag" {
		t.Errorf("password(\"from-flag\") = %q, want from-flag", got)
	}
}

func TestSamplePasses(t *testing.T) {
	setupTestConfig(t)

	if _, err := samplePasses(pass.KindLTVP, pass.IdentityProofDNSTxt, 0, ""); err == nil {
		t.Errorf("samplePasses() with count 0 returned no error")
	}

	raws, err := samplePasses(pass.KindSTP, pass.IdentityProofDNSDid, 3, "")
	if err != nil {
		t.Fatalf("samplePasses() returned error: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("got %d passes, want 3", len(raws))
	}
	for i, raw := range raws {
		if len(raw) == 0 {
			t.Errorf("pass %d is empty", i)
		}
	}
}

func TestRunSubmit_Arguments(t *testing.T) {
	setupTestConfig(t)

	if err := runSubmit(testCommand(io.Discard), nil, registry.TransitionIssue, ""); err == nil {
		t.Errorf("runSubmit() with no hashes and no dir returned no error")
	}
	if err := runSubmit(testCommand(io.Discard), []string{"0xaa"}, registry.TransitionIssue, t.TempDir()); err == nil {
		t.Errorf("runSubmit() with hashes and a dir returned no error")
	}
}

func TestRunSubmit_Issue(t *testing.T) {
	setupTestConfig(t)

	var buf bytes.Buffer
	if err := runSubmit(testCommand(&buf), []string{"0xAA", "0xaa", "0xBB"}, registry.TransitionIssue, ""); err != nil {
		t.Fatalf("runSubmit() returned error: %v", err)
	}

	var result registry.Result
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if !result.Bulk || len(result.Statuses) != 2 {
		t.Errorf("result = %+v, want a bulk submission of 2 hashes", result)
	}
	for _, s := range result.Statuses {
		if s.Status() != registry.StatusIssued {
			t.Errorf("%s is %s, want issued", s.Hash, s.Status())
		}
	}
}

func TestRunSubmit_RevokeUnissued(t *testing.T) {
	setupTestConfig(t)

	// each command opens a fresh in-memory ledger
	err := runSubmit(testCommand(io.Discard), []string{"0xaa"}, registry.TransitionRevoke, "")
	if err == nil {
		t.Fatalf("revoking an unissued hash returned no error")
	}
}
