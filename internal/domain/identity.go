package domain

// IdentityKind distinguishes authenticated users from anonymous devices.
type IdentityKind string

const (
	IdentityUser   IdentityKind = "user"
	IdentityDevice IdentityKind = "device"
)

// Identity is the resolved caller: a stable user id for authenticated
// sessions, or a hashed device fingerprint otherwise. The fingerprint
// is an abuse-resistance heuristic, not a security boundary.
type Identity struct {
	Kind IdentityKind
	ID   string
}

func UserIdentity(id string) Identity {
	return Identity{Kind: IdentityUser, ID: id}
}

func DeviceIdentity(fingerprint string) Identity {
	return Identity{Kind: IdentityDevice, ID: fingerprint}
}

func (i Identity) Authenticated() bool {
	return i.Kind == IdentityUser
}

// Zero reports whether no identity could be resolved.
func (i Identity) Zero() bool {
	return i.ID == ""
}

// Key is the storage key for everything scoped to this identity.
func (i Identity) Key() string {
	return string(i.Kind) + ":" + i.ID
}
