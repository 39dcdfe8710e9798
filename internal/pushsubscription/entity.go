package pushsubscription

import "time"

// Subscription is a webpush endpoint registered by a user. UserID ties it to
// the account so task events can target assigned members only.
type Subscription struct {
	ID        string    `yaml:"id"`
	UserID    string    `yaml:"user_id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}
