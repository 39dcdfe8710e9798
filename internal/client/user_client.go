package client

import (
	"context"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/user"
)

type RegisteredUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

type registerUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Register creates a user. It is the one unauthenticated call: the returned
// token is what every other call authenticates with.
func (c *Client) Register(ctx context.Context, name, email string) (*RegisteredUser, error) {
	var created RegisteredUser
	if err := c.do(ctx, http.MethodPost, "/api/users", registerUserRequest{Name: name, Email: email}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]user.Summary, error) {
	var users []user.Summary
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
