package adapter

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"docbase.evalgo.org/dberr"
	"docbase.evalgo.org/store"
)

// Local implements Router directly over an in-process store.Cache, with no
// network hop — the transport the CLI and any in-process caller use by
// default.
type Local struct {
	cache *store.Cache
}

// NewLocal builds a Local adapter backed by cache.
func NewLocal(cache *store.Cache) *Local {
	return &Local{cache: cache}
}

// Do routes a request by verb and endpoint sub-path, validating the
// collection name and payload before dispatch. On failure it returns an
// empty Envelope and the error; callers needing the {error,code} shape for
// transport should use ErrorEnvelopeFor(err) on a non-nil error.
func (l *Local) Do(ctx context.Context, verb, endpoint string, payload map[string]any) (Envelope, error) {
	name, sub, err := parseEndpoint(endpoint)
	if err != nil {
		return Envelope{}, err
	}
	if err := ValidateCollectionName(name); err != nil {
		return Envelope{}, err
	}

	switch {
	case verb == VerbGet && sub == "":
		return l.find(name, payload)
	case verb == VerbGet && sub == subCount:
		return l.count(name, payload)
	case verb == VerbGet && sub != "":
		return l.findByID(name, sub, payload)
	case verb == VerbPost && sub == "":
		return l.insert(name, payload)
	case verb == VerbPatch && sub == "":
		return l.update(name, payload)
	case verb == VerbPatch && sub != "":
		return l.updateByID(name, sub, payload)
	case verb == VerbDelete && sub == subDrop:
		return l.drop(name)
	case verb == VerbDelete && sub == "":
		return l.delete(name, payload)
	case verb == VerbDelete && sub != "":
		return l.deleteByID(name, sub)
	default:
		return Envelope{}, dberr.Validation("unsupported verb/endpoint combination: %s %s", verb, endpoint)
	}
}

// parseEndpoint splits "/collections/<name>[/<sub>]" into name and an
// optional sub-path segment (an id, "count", or "drop").
func parseEndpoint(endpoint string) (name, sub string, err error) {
	trimmed := strings.Trim(endpoint, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] != "collections" || parts[1] == "" {
		return "", "", dberr.Validation("malformed endpoint %q", endpoint)
	}
	name = parts[1]
	if len(parts) >= 3 {
		sub = parts[2]
	}
	return name, sub, nil
}

// generateID produces a 16-hex-character random id for a single-document
// insert without a caller-supplied id, using uuid's random source rather
// than hand-rolling one.
func generateID() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:16]
}
