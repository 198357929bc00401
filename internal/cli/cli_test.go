package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"relation-chatter/internal/affinity"
	"relation-chatter/internal/relation"
)

// resetFlags puts every flag of c and its subcommands back to its default.
// Cobra keeps parsed values between Execute calls in the same process.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

// run executes the root command with fresh flag state and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, RootCmd)
	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestEditAndShow(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "relation.json")

	out, err := run(t, "--file", file, "set-score", "42", "80")
	if err != nil {
		t.Fatalf("set-score: %v", err)
	}
	if out != "42: 80/100 (+30)\n" {
		t.Fatalf("unexpected set-score output: %q", out)
	}
	if _, err := run(t, "--file", file, "set-note", "42", "likes", "tea"); err != nil {
		t.Fatalf("set-note: %v", err)
	}

	out, err = run(t, "--file", file, "show", "42")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Affinity: 80/100", "Note: likes tea", "+30 (admin override)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "--file", file, "--format", "json", "show", "42")
	if err != nil {
		t.Fatalf("show json: %v", err)
	}
	var rec relation.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rec.Score != 80 || rec.CustomNote != "likes tea" || len(rec.History) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := run(t, "--file", file, "clear-note", "42"); err != nil {
		t.Fatalf("clear-note: %v", err)
	}
	out, _ = run(t, "--file", file, "show", "42")
	if !strings.Contains(out, "Note: none") {
		t.Fatalf("note not cleared:\n%s", out)
	}
}

func TestSetScoreClampsAndUsesReason(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relation.json")
	out, err := run(t, "--file", file, "set-score", "7", "500", "--reason", "manual fix")
	if err != nil {
		t.Fatalf("set-score: %v", err)
	}
	if out != "7: 100/100 (+50)\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	out, _ = run(t, "--file", file, "show", "7")
	if !strings.Contains(out, "manual fix") {
		t.Fatalf("reason not recorded:\n%s", out)
	}
}

func TestSetScoreRejectsNonInteger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relation.json")
	if _, err := run(t, "--file", file, "set-score", "7", "lots"); err == nil {
		t.Fatalf("expected an error")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("failed command must not create the file")
	}
}

func TestShowUnknownUserDoesNotWrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relation.json")
	if _, err := run(t, "--file", file, "show", "nobody"); err == nil {
		t.Fatalf("expected an error for unknown user")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("show must not create the file")
	}
}

func TestList(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relation.json")
	out, err := run(t, "--file", file, "list")
	if err != nil || out != "No relations recorded yet." {
		t.Fatalf("unexpected empty list: %q %v", out, err)
	}
	run(t, "--file", file, "set-score", "a", "20")
	run(t, "--file", file, "set-score", "b", "70")

	out, err = run(t, "--file", file, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Index(out, "- b:") > strings.Index(out, "- a:") {
		t.Fatalf("list not ordered by score:\n%s", out)
	}

	out, err = run(t, "--file", file, "-f", "json", "list")
	if err != nil {
		t.Fatalf("list json: %v", err)
	}
	var recs []relation.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil || len(recs) != 2 {
		t.Fatalf("unexpected json list: %v %s", err, out)
	}
}

func TestUnknownFormat(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relation.json")
	if _, err := run(t, "--file", file, "-f", "yaml", "list"); err == nil {
		t.Fatalf("expected an error for unknown format")
	}
}

func TestAdmins(t *testing.T) {
	admins := filepath.Join(t.TempDir(), "admins.json")
	out, err := run(t, "--admins-file", admins, "admins", "list")
	if err != nil || out != "No admins configured.\n" {
		t.Fatalf("unexpected empty admins: %q %v", out, err)
	}
	if _, err := run(t, "--admins-file", admins, "admins", "add", "1", "--username", "owner", "--comment", "me"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := run(t, "--admins-file", admins, "admins", "add", "2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, _ = run(t, "--admins-file", admins, "admins", "list")
	if out != "1 @owner (me)\n2\n" {
		t.Fatalf("unexpected admins: %q", out)
	}
	if _, err := run(t, "--admins-file", admins, "admins", "remove", "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out, _ = run(t, "--admins-file", admins, "admins", "list")
	if out != "2\n" {
		t.Fatalf("unexpected admins after remove: %q", out)
	}
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "relation.json")
	admins := filepath.Join(dir, "admins.json")

	run(t, "--admins-file", admins, "admins", "add", "1", "--username", "owner", "--comment", "me")
	run(t, "--admins-file", admins, "admins", "add", "2")
	out, _ := run(t, "--admins-file", admins, "-f", "json", "admins", "list")
	if strings.Count(out, "owner") != 1 {
		t.Fatalf("username leaked into a later add:\n%s", out)
	}

	run(t, "--file", file, "set-score", "a", "60", "--reason", "manual fix")
	run(t, "--file", file, "set-score", "b", "60")
	out, _ = run(t, "--file", file, "show", "b")
	if !strings.Contains(out, affinity.ReasonOverride) || strings.Contains(out, "manual fix") {
		t.Fatalf("reason leaked into a later set-score:\n%s", out)
	}
	if formatFlag != "text" {
		t.Fatalf("format flag not reset: %q", formatFlag)
	}
}
