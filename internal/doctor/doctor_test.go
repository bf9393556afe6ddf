package doctor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-tiktoken-bridge/internal/config"
)

func okResolve(model string) (string, error) {
	return "cl100k_base", nil
}

func okConstruct(name string) error {
	return nil
}

// --- all checks pass ---

func TestRun_AllPass(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderOffline,
		Models:     []string{"gpt-4", "gpt-4o"},
		Resolve:    okResolve,
		Construct:  okConstruct,
	}, &out)

	if res.Failed() {
		t.Fatalf("Run reported failures: %v", res.Failures())
	}
	if strings.Contains(out.String(), FailMark) {
		t.Errorf("output contains %s:\n%s", FailMark, out.String())
	}
	if got := strings.Count(out.String(), PassMark); got != 3 {
		t.Errorf("pass marks = %d; want 3\n%s", got, out.String())
	}
}

// --- individual failures ---

func TestRun_BadLoaderMode(t *testing.T) {
	var out strings.Builder
	res := Run(Config{LoaderMode: "telegraph"}, &out)

	if !res.Failed() {
		t.Fatal("Run with bad loader mode reported success")
	}
	if !strings.Contains(out.String(), FailMark) {
		t.Errorf("output missing %s:\n%s", FailMark, out.String())
	}
}

func TestRun_MissingCacheDir(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderDownload,
		CacheDir:   filepath.Join(t.TempDir(), "does-not-exist"),
	}, &out)

	if !res.Failed() {
		t.Fatal("Run with missing cache dir reported success")
	}
}

func TestRun_CacheDirExists(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderDownload,
		CacheDir:   t.TempDir(),
	}, &out)

	if res.Failed() {
		t.Fatalf("Run with valid cache dir failed: %v", res.Failures())
	}
}

func TestRun_CacheDirIgnoredWhenOffline(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderOffline,
		CacheDir:   filepath.Join(t.TempDir(), "does-not-exist"),
	}, &out)

	if res.Failed() {
		t.Fatalf("offline Run checked the cache dir: %v", res.Failures())
	}
}

func TestRun_UnresolvedModel(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderOffline,
		Models:     []string{"mystery-model"},
		Resolve: func(model string) (string, error) {
			return "", fmt.Errorf("unable to find model %q", model)
		},
	}, &out)

	if !res.Failed() {
		t.Fatal("Run with unresolved model reported success")
	}
	if !strings.Contains(out.String(), "mystery-model") {
		t.Errorf("output does not name the failing model:\n%s", out.String())
	}
}

func TestRun_ConstructionFailure(t *testing.T) {
	var out strings.Builder
	res := Run(Config{
		LoaderMode: config.LoaderOffline,
		Models:     []string{"gpt-4"},
		Resolve:    okResolve,
		Construct: func(name string) error {
			return errors.New("vocabulary unavailable")
		},
	}, &out)

	if !res.Failed() {
		t.Fatal("Run with failing construction reported success")
	}
	if len(res.Failures()) != 1 {
		t.Errorf("Failures() = %v; want one entry", res.Failures())
	}
}

// --- Result ---

func TestResult_AddFailure(t *testing.T) {
	var res Result
	if res.Failed() {
		t.Fatal("zero Result reports failure")
	}

	res.AddFailure("external problem")
	if !res.Failed() {
		t.Fatal("Result with added failure reports success")
	}
	if got := res.Failures(); len(got) != 1 || got[0] != "external problem" {
		t.Errorf("Failures() = %v; want [external problem]", got)
	}
}
