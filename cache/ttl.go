package cache

import "time"

type ttlKind int

const (
	ttlNone ttlKind = iota
	ttlSeconds
	ttlDuration
	ttlUntil
	ttlForever
)

// TTL specifies how long a remembered value stays valid. It is normalized
// once, at the call boundary, to an absolute expiry instant. The zero TTL
// disables caching for the call.
type TTL struct {
	kind ttlKind
	secs int
	dur  time.Duration
	at   time.Time
}

// Seconds specifies a lifetime of n seconds. n <= 0 disables caching,
// which is how callers turn caching off per identity.
func Seconds(n int) TTL {
	return TTL{kind: ttlSeconds, secs: n}
}

// For specifies a lifetime relative to now. d <= 0 disables caching.
func For(d time.Duration) TTL {
	return TTL{kind: ttlDuration, dur: d}
}

// Until specifies an absolute expiry instant. An instant at or before now
// disables caching.
func Until(t time.Time) TTL {
	return TTL{kind: ttlUntil, at: t}
}

// Forever specifies that the value never expires. Distinct from a disabled
// TTL: the entry is stored and kept until explicitly removed.
func Forever() TTL {
	return TTL{kind: ttlForever}
}

// Expiry resolves the TTL against now. ok=false means do not cache; a zero
// instant with ok=true means never expire. Malformed and negative
// durations degrade to not caching rather than failing, so a misconfigured
// duration always recomputes instead of breaking the caller.
func (t TTL) Expiry(now time.Time) (expiresAt time.Time, ok bool) {
	switch t.kind {
	case ttlSeconds:
		if t.secs <= 0 {
			return time.Time{}, false
		}
		return now.Add(time.Duration(t.secs) * time.Second), true
	case ttlDuration:
		if t.dur <= 0 {
			return time.Time{}, false
		}
		return now.Add(t.dur), true
	case ttlUntil:
		if !t.at.After(now) {
			return time.Time{}, false
		}
		return t.at, true
	case ttlForever:
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}
