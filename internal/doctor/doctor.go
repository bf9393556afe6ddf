// Package doctor provides environment preflight checks for the tokenizer
// bridge.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/example/go-tiktoken-bridge/internal/config"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ResolveFunc maps a model name to its encoding name.
type ResolveFunc func(model string) (string, error)

// ConstructFunc materializes the named encoding.
type ConstructFunc func(name string) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// LoaderMode is the configured vocabulary loader mode.
	LoaderMode string
	// CacheDir is verified to be a usable directory when the download
	// loader is active. Empty means the loader's default location.
	CacheDir string
	// Models are the model names expected to resolve.
	Models []string
	// Resolve resolves a model name; nil skips model checks.
	Resolve ResolveFunc
	// Construct materializes an encoding; nil skips construction checks.
	Construct ConstructFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- loader mode ------------------------------------------------------
	loader, err := config.NormalizeLoader(cfg.LoaderMode)
	if err != nil {
		res.fail(fmt.Sprintf("loader mode: %v", err))
		fmt.Fprintf(w, "%s loader mode: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s loader mode: %s\n", PassMark, loader)
	}

	// ---- cache directory --------------------------------------------------
	if loader == config.LoaderDownload && cfg.CacheDir != "" {
		info, err := os.Stat(cfg.CacheDir)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("cache dir %q: %v", cfg.CacheDir, err))
			fmt.Fprintf(w, "%s cache dir %s: not found\n", FailMark, cfg.CacheDir)
		case !info.IsDir():
			res.fail(fmt.Sprintf("cache dir %q: not a directory", cfg.CacheDir))
			fmt.Fprintf(w, "%s cache dir %s: not a directory\n", FailMark, cfg.CacheDir)
		default:
			fmt.Fprintf(w, "%s cache dir: %s\n", PassMark, cfg.CacheDir)
		}
	}

	// ---- model resolution -------------------------------------------------
	if cfg.Resolve != nil {
		for _, model := range cfg.Models {
			name, err := cfg.Resolve(model)
			if err != nil {
				res.fail(fmt.Sprintf("model %q: %v", model, err))
				fmt.Fprintf(w, "%s model %s: unresolved (%v)\n", FailMark, model, err)
				continue
			}

			if cfg.Construct != nil {
				if err := cfg.Construct(name); err != nil {
					res.fail(fmt.Sprintf("encoding %q: %v", name, err))
					fmt.Fprintf(w, "%s model %s: encoding %s failed (%v)\n", FailMark, model, name, err)
					continue
				}
			}

			fmt.Fprintf(w, "%s model %s: %s\n", PassMark, model, name)
		}
	}

	return res
}
