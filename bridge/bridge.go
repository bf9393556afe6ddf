// Package bridge exposes a byte-pair-encoding tokenizer engine to a managed
// host runtime.
//
// The host drives three synchronous entry points keyed by a per-object
// identity: Init constructs an engine for a model name and installs it,
// Encode tokenizes text under the object's handle, Destroy removes the
// handle and releases the engine. Every entry point takes an Env carrying
// the host's pending-exception state; failures become the pending exception
// and a sentinel result, never a Go panic across the boundary.
//
// Calls against one object are serialized by the handle's lock; calls
// against distinct objects run in parallel.
package bridge

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/example/go-tiktoken-bridge/internal/config"
	"github.com/example/go-tiktoken-bridge/internal/encoding"
	"github.com/example/go-tiktoken-bridge/internal/engine"
	"github.com/example/go-tiktoken-bridge/internal/handles"
)

// ObjectID identifies one host-side object.
type ObjectID = handles.ObjectID

// Unbounded disables Encode's truncation bound.
const Unbounded = engine.Unbounded

var objectIDs atomic.Uint64

// NewObjectID reserves a fresh object identity. Hosts that derive
// identities from their own object model may ignore this and supply their
// own, as long as each live object has a distinct id.
func NewObjectID() ObjectID {
	return ObjectID(objectIDs.Add(1))
}

// Bridge owns the handle registry and the model resolver. One Bridge
// serves the whole host runtime; it is safe for concurrent use.
type Bridge struct {
	registry *handles.Registry[*engine.Engine]
	resolver *encoding.Resolver
	log      *slog.Logger
}

type Option func(*Bridge)

// WithLogger sets the logger used for lifecycle events. The encode path
// never logs.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// New builds a bridge from cfg. It fails when the requested vocabulary
// loader mode conflicts with the mode already fixed for this process.
func New(cfg config.Config, opts ...Option) (*Bridge, error) {
	resolver, err := encoding.NewResolver(encoding.Options{
		Aliases:  cfg.Models.Aliases,
		Offline:  cfg.Encoding.Loader == config.LoaderOffline,
		CacheDir: cfg.Encoding.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("configure resolver: %w", err)
	}

	b := &Bridge{
		registry: handles.NewRegistry[*engine.Engine](),
		resolver: resolver,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Init resolves model to an encoding, constructs an engine for it, and
// installs the engine under obj. On any failure nothing is installed and
// the failure is thrown on env, so Init may safely be retried.
func (b *Bridge) Init(env *Env, obj ObjectID, model string) {
	guard0(env, func() error {
		name, err := b.resolver.ResolveModel(model)
		if err != nil {
			return err
		}

		enc, err := b.resolver.Construct(name)
		if err != nil {
			return err
		}

		if err := b.registry.Install(obj, engine.New(name, enc)); err != nil {
			return fmt.Errorf("install handle for object %d: %w", obj, err)
		}

		b.log.Debug("handle installed",
			"object", uint64(obj),
			"model", model,
			"encoding", name,
		)
		return nil
	})
}

// Encode tokenizes text under obj's handle and returns a freshly allocated
// token-id array. allowedSpecial lists the special-token strings permitted
// to appear literally in text; maxTokens bounds the result length, with any
// negative value (Unbounded) meaning the full input is tokenized.
//
// The nil return is the sentinel for both a thrown and an already-pending
// failure. A failed call leaves the handle intact and reusable.
func (b *Bridge) Encode(env *Env, obj ObjectID, text string, allowedSpecial []string, maxTokens int64) []int64 {
	return guard(env, nil, func() ([]int64, error) {
		g, err := b.registry.Acquire(obj)
		if err != nil {
			return nil, fmt.Errorf("acquire handle for object %d: %w", obj, err)
		}
		defer g.Release()

		input, err := marshalText(text)
		if err != nil {
			return nil, err
		}

		allowed, err := marshalAllowedSpecial(allowedSpecial)
		if err != nil {
			return nil, err
		}

		ids, err := g.Engine().Encode(input, allowed, maxTokens)
		if err != nil {
			return nil, err
		}

		return marshalTokens(ids), nil
	})
}

// Destroy removes obj's handle and releases the engine it owns. Destroy on
// an object with no live handle — never initialized, or destroyed already —
// throws rather than proceeding silently. Destroy waits out any in-flight
// Encode on the same handle.
func (b *Bridge) Destroy(env *Env, obj ObjectID) {
	guard0(env, func() error {
		if _, err := b.registry.Remove(obj); err != nil {
			return fmt.Errorf("destroy handle for object %d: %w", obj, err)
		}

		b.log.Debug("handle destroyed", "object", uint64(obj))
		return nil
	})
}

// Handles reports the number of live handles, for diagnostics.
func (b *Bridge) Handles() int {
	return b.registry.Len()
}
