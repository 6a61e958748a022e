package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Namespace distinguishes which feature a key belongs to, preventing
// cross-feature collisions between otherwise identical identities.
type Namespace string

// Well-known namespaces.
const (
	// NamespaceMetric holds cached dashboard metric results.
	NamespaceMetric Namespace = "metric"

	// NamespaceBadge holds cached menu badge values.
	NamespaceBadge Namespace = "badge"

	// NamespaceMenu holds cached menu-section authorization results.
	NamespaceMenu Namespace = "menu"
)

// Params is an identity's parameter bag. Insertion order is insignificant:
// two bags with the same names and values derive the same key.
type Params map[string]any

// KeySpec identifies one cacheable result: a stable identity plus the
// parameters that distinguish its variants.
type KeySpec struct {
	// Namespace scopes the derived key. Empty defaults to "cache".
	Namespace Namespace

	// Identity is the stable name of the thing being cached. Must be
	// non-empty.
	Identity string

	// Params are the named inputs that vary the result (range, timezone,
	// user, ...). May be nil.
	Params Params
}

// Handle is an opaque stand-in for a non-serializable parameter such as a
// computation callback. It is keyed by a caller-chosen tag rather than by
// contents.
type Handle struct {
	tag string
}

// NewHandle creates a handle with a caller-chosen stable tag. Handles with
// equal tags derive equal keys across processes.
func NewHandle(tag string) Handle {
	return Handle{tag: tag}
}

var handleSeq atomic.Uint64

// AnonymousHandle creates a handle with a process-unique tag. Two
// separately constructed anonymous handles never collide, and keys derived
// from them are not stable across process restarts. Prefer NewHandle with
// an explicit tag where key stability matters.
func AnonymousHandle() Handle {
	return Handle{tag: "anon-" + strconv.FormatUint(handleSeq.Add(1), 10)}
}

// Tag returns the handle's tag.
func (h Handle) Tag() string {
	return h.tag
}

// Keyer derives deterministic cache keys from key specs.
//
// Contract:
// - Determinism: value-equal specs must produce the same key regardless of
//   parameter insertion order.
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: derivation never fails; unsupported values are stringified
//   best-effort.
type Keyer interface {
	// Key derives the cache key for a spec.
	Key(spec KeySpec) string
}

// DefaultKeyer derives SHA-256 based keys.
// Format: <namespace>:<identity>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the identity
// and the sorted name=value parameter pairs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache key for the spec.
func (k *DefaultKeyer) Key(spec KeySpec) string {
	ns := spec.Namespace
	if ns == "" {
		ns = "cache"
	}

	names := make([]string, 0, len(spec.Params))
	for name := range spec.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(spec.Identity)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(encodeScalar(spec.Params[name]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	hash := hex.EncodeToString(sum[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("%s:%s:%s", ns, spec.Identity, hash)
}

// encodeScalar renders a parameter value in a canonical form so that
// value-equal bags always serialize identically.
func encodeScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Duration:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case Handle:
		return "handle:" + val.tag
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
