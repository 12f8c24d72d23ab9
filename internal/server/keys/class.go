// Package keys provisions, persists and caches the RSA key pairs that sign
// access and refresh tokens.
package keys

// Class selects one of the token key pairs.
type Class string

const (
	Access  Class = "access"
	Refresh Class = "refresh"
)

// Classes lists every token class in provisioning order.
var Classes = []Class{Access, Refresh}

func (c Class) Valid() bool {
	return c == Access || c == Refresh
}

func (c Class) String() string {
	return string(c)
}
