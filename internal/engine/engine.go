// Package engine wraps one constructed tokenizer engine instance behind the
// narrow contract the bridge needs: encode with an allowed-special set and
// an optional truncation bound, reporting failures as error values.
package engine

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Unbounded disables the truncation bound. Any negative bound means the
// full input is tokenized.
const Unbounded = -1

// EncodeError reports a failure inside the tokenizer engine during
// encoding.
type EncodeError struct {
	Encoding string
	Reason   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode with %s: %s", e.Encoding, e.Reason)
}

// Engine owns one tokenizer instance. It performs no locking of its own;
// the handle registry serializes all access.
type Engine struct {
	name string
	enc  *tiktoken.Tiktoken
}

func New(name string, enc *tiktoken.Tiktoken) *Engine {
	return &Engine{name: name, enc: enc}
}

// Name returns the encoding name the engine was constructed from.
func (e *Engine) Name() string { return e.name }

// Encode tokenizes text. Special-token strings listed in allowedSpecial are
// emitted as their reserved ids when they appear literally in text; any
// other occurrence of a special token is tokenized as ordinary text. A
// non-negative maxTokens bounds the result length; tokens are emitted left
// to right, so the bounded result is the prefix of the unbounded one.
//
// The underlying engine reports misuse by panicking; that is converted into
// an *EncodeError so every failure crosses the boundary as a value.
func (e *Engine) Encode(text string, allowedSpecial []string, maxTokens int64) (ids []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ids = nil
			err = &EncodeError{Encoding: e.name, Reason: fmt.Sprint(r)}
		}
	}()

	ids = e.enc.Encode(text, allowedSpecial, nil)
	if maxTokens >= 0 && int64(len(ids)) > maxTokens {
		ids = ids[:maxTokens]
	}
	return ids, nil
}
