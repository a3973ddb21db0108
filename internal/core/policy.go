package core

import "strings"

// Capability is a privilege an identity may hold.
type Capability uint8

const (
	// CapKick allows forcibly disconnecting other participants.
	CapKick Capability = 1 << iota
	// CapListIPs allows viewing participant IP addresses.
	CapListIPs

	capNone Capability = 0
	capAll             = CapKick | CapListIPs
)

// Has reports whether every bit of want is set.
func (c Capability) Has(want Capability) bool {
	return want != 0 && c&want == want
}

// Role is what the policy grants an identity.
type Role struct {
	DisplayName  string
	Capabilities Capability
}

// Policy resolves the role of an identity. It is consulted on every admit and
// on every privileged request, so roles are never stored on the client.
type Policy interface {
	Resolve(id Identity) Role
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(id Identity) Role

// Resolve calls f(id).
func (f PolicyFunc) Resolve(id Identity) Role {
	return f(id)
}

// Default reserved identity.
const (
	DefaultAdminName        = "admin215"
	DefaultAdminDisplayName = "Admin"
)

// ReservedAdminPolicy grants every capability to the identity whose name
// case-insensitively equals name and presents it as displayName.
// Everyone else gets no capabilities and no display override.
func ReservedAdminPolicy(name, displayName string) Policy {
	reserved := normalizeName(name)
	return PolicyFunc(func(id Identity) Role {
		if reserved == "" || normalizeName(id.Name) != reserved {
			return Role{Capabilities: capNone}
		}
		return Role{DisplayName: strings.TrimSpace(displayName), Capabilities: capAll}
	})
}
