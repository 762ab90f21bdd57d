/*
Package user holds the identity model referenced by live connections.

A User is produced once per connection by the identity verifier and never
changes for the connection's lifetime. The identity subsystem owns the
underlying account; the coordinator only reads these fields.
*/
package user

// User is the authenticated identity behind one connection.
type User struct {

	// ID is the stable identifier assigned by the identity subsystem.
	ID string `json:"id"`

	// Username is the display name shown in presence lists and messages.
	Username string `json:"username"`

	// Avatar is the user's avatar location (absolute URL or storage key).
	Avatar string `json:"avatar,omitempty"`
}
