// Package encoding resolves model names to constructed tokenizer engine
// instances.
//
// Resolution is the two-step lookup the engine's own tables define: model
// name to encoding name, then encoding name to a materialized vocabulary.
// Both tables are read-only after process start, so resolution itself needs
// no locking; only first-time vocabulary materialization is coordinated.
package encoding

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
	"golang.org/x/sync/singleflight"
)

// ErrLoaderConflict reports a resolver requesting a different vocabulary
// loader mode than the one already fixed for this process.
var ErrLoaderConflict = errors.New("vocabulary loader mode already fixed for this process")

// ErrNoOfflineAsset reports a known encoding whose vocabulary is not part
// of the offline loader's embedded assets.
var ErrNoOfflineAsset = errors.New("encoding has no offline vocabulary asset")

// NotFoundError reports a name absent from the model table or the encoding
// registry.
type NotFoundError struct {
	Kind string // "model" or "encoding"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find %s %q", e.Kind, e.Name)
}

// ConstructionError reports a vocabulary load or engine construction
// failure for a known encoding name.
type ConstructionError struct {
	Encoding string
	Err      error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct encoding %s: %v", e.Encoding, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// knownEncodings mirrors the engine's encoding registry. A name outside
// this set is a lookup failure, not a construction failure.
var knownEncodings = map[string]bool{
	tiktoken.MODEL_O200K_BASE:  true,
	tiktoken.MODEL_CL100K_BASE: true,
	tiktoken.MODEL_P50K_BASE:   true,
	tiktoken.MODEL_P50K_EDIT:   true,
	tiktoken.MODEL_R50K_BASE:   true,
}

// offlineEncodings lists the encodings whose BPE files ship inside the
// offline loader module. o200k_base is absent from those assets, so
// constructing it requires the download loader.
var offlineEncodings = map[string]bool{
	tiktoken.MODEL_CL100K_BASE: true,
	tiktoken.MODEL_P50K_BASE:   true,
	tiktoken.MODEL_P50K_EDIT:   true,
	tiktoken.MODEL_R50K_BASE:   true,
}

// Options configures a Resolver.
type Options struct {
	// Aliases overlays the engine's model table; keys are model names,
	// values encoding names. Checked before the built-in tables.
	Aliases map[string]string

	// Offline serves vocabulary data from assets embedded in the loader
	// module instead of downloading it.
	Offline bool

	// CacheDir overrides the download loader's cache directory. Ignored
	// when Offline is set.
	CacheDir string
}

// Resolver maps model names to freshly constructed engine instances. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	aliases map[string]string
	offline bool
	group   singleflight.Group
}

// The engine's vocabulary loader is a process-global knob. The first
// resolver constructed fixes the mode; a later resolver asking for the
// other mode is refused instead of silently running in the wrong one.
var (
	loaderMu   sync.Mutex
	loaderMode string
)

const (
	loaderModeOffline  = "offline"
	loaderModeDownload = "download"
)

func applyLoaderMode(opts Options) error {
	mode := loaderModeDownload
	if opts.Offline {
		mode = loaderModeOffline
	}

	loaderMu.Lock()
	defer loaderMu.Unlock()

	if loaderMode == "" {
		if opts.Offline {
			tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
		} else if opts.CacheDir != "" {
			// The download loader reads its cache location from the
			// environment at load time.
			os.Setenv("TIKTOKEN_CACHE_DIR", opts.CacheDir)
		}
		loaderMode = mode
		return nil
	}

	if loaderMode != mode {
		return fmt.Errorf("%w: %s requested, %s active", ErrLoaderConflict, mode, loaderMode)
	}
	return nil
}

func NewResolver(opts Options) (*Resolver, error) {
	if err := applyLoaderMode(opts); err != nil {
		return nil, err
	}

	aliases := make(map[string]string, len(opts.Aliases))
	for model, name := range opts.Aliases {
		aliases[model] = name
	}

	return &Resolver{aliases: aliases, offline: opts.Offline}, nil
}

// ResolveModel returns the encoding name for model: alias overlay first,
// then the engine's exact table, then its prefix table.
func (r *Resolver) ResolveModel(model string) (string, error) {
	if name, ok := r.aliases[model]; ok {
		return name, nil
	}
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name, nil
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return name, nil
		}
	}
	return "", &NotFoundError{Kind: "model", Name: model}
}

// Construct materializes the vocabulary for the named encoding and returns
// a fresh engine instance for it. Concurrent first-time materialization of
// one name is collapsed into a single load (the load may download BPE
// files); after that, every caller still receives its own instance, so no
// engine is ever shared between handles.
func (r *Resolver) Construct(name string) (*tiktoken.Tiktoken, error) {
	if !knownEncodings[name] {
		return nil, &NotFoundError{Kind: "encoding", Name: name}
	}

	if r.offline && !offlineEncodings[name] {
		return nil, &ConstructionError{Encoding: name, Err: ErrNoOfflineAsset}
	}

	v, err, shared := r.group.Do(name, func() (any, error) {
		return tiktoken.GetEncoding(name)
	})
	if err != nil {
		return nil, &ConstructionError{Encoding: name, Err: err}
	}
	if !shared {
		return v.(*tiktoken.Tiktoken), nil
	}

	// The flight's instance went to more than one caller; construct a
	// private instance around the vocabulary the flight cached so no
	// engine is shared between handles.
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, &ConstructionError{Encoding: name, Err: err}
	}
	return enc, nil
}
