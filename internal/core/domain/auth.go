/*
 * file: auth.go
 * package: domain
 * description:
 *     The authentication state attached to a connection: either anonymous or
 *     bound to exactly one user identity.
 */

package domain

// AuthState is the authentication half of a connection's state (§3). A
// connection is either unauthenticated or bound to one user for its
// lifetime; signing out returns it to the unauthenticated zero value.
type AuthState struct {
	Authenticated bool
	UserID        uint
	Username      string
}
