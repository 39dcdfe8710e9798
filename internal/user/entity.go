package user

import "time"

// User is a registered account. Token is the opaque API credential minted at
// registration; it never appears in API responses except the registration
// reply itself.
type User struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	Token     string    `yaml:"token"`
	CreatedAt time.Time `yaml:"created_at"`
}
