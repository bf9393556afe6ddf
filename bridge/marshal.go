package bridge

import (
	"fmt"
	"unicode/utf8"
)

// MarshalError reports a value that cannot be converted between the host
// and native representations.
type MarshalError struct {
	What   string
	Detail string
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("marshal %s: %s", e.What, e.Detail)
}

// marshalText converts a host string for the engine. Host strings arrive in
// the host's own encoding; well-formed UTF-8 is the conversion contract,
// and anything else fails the whole call.
func marshalText(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", &MarshalError{What: "text", Detail: "invalid UTF-8"}
	}
	return text, nil
}

// marshalAllowedSpecial builds the call-scoped allowed-special set. Every
// element is converted individually and any failure aborts the call before
// the engine sees a partial set. The result is deduplicated; order carries
// no meaning for a set.
func marshalAllowedSpecial(elems []string) ([]string, error) {
	if len(elems) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(elems))
	out := make([]string, 0, len(elems))
	for i, s := range elems {
		if !utf8.ValidString(s) {
			return nil, &MarshalError{
				What:   fmt.Sprintf("allowed special token %d", i),
				Detail: "invalid UTF-8",
			}
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// marshalTokens copies token ids into a freshly allocated array whose
// ownership transfers to the host; the native sequence is not retained.
func marshalTokens(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
