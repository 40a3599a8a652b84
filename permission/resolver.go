package permission

import "github.com/officegrid/sentinel/principal"

// Resolve computes a principal's effective permission set:
// role defaults, union recognized explicit grants, minus bans.
// Bans always win — no permission survives a ban, whatever granted it.
//
// Pure function of its argument: no I/O, no side effects, safe for
// concurrent reuse.
func Resolve(p *principal.Principal) Set {
	if p == nil {
		return Set{}
	}

	effective := Defaults(p.Role)

	for _, raw := range p.Granted {
		// Unknown identifiers may linger in stale account data; drop them.
		if perm, ok := Recognized(raw); ok {
			effective[perm] = struct{}{}
		}
	}

	for _, raw := range p.Banned {
		delete(effective, Permission(raw))
	}

	return effective
}

// Authorize reports whether every required permission is in the principal's
// effective set. An empty required set always authorizes: no restriction was
// declared. A nil principal never authorizes a non-empty requirement; the
// pipeline distinguishes that as Unauthenticated before ever calling here.
func Authorize(p *principal.Principal, required ...Permission) bool {
	if len(required) == 0 {
		return true
	}
	if p == nil {
		return false
	}

	effective := Resolve(p)
	for _, perm := range required {
		if !effective.Has(perm) {
			return false
		}
	}
	return true
}
