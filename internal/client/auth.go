package client

import (
	"context"
	"net/http"

	"flowtasks/internal/dto"
)

func (c *Client) Register(ctx context.Context, name, email, password string) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", false, dto.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", false, dto.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	return out, err
}

// Profile validates the current token and returns its owner.
func (c *Client) Profile(ctx context.Context) (dto.Profile, error) {
	var out dto.Profile
	err := c.do(ctx, http.MethodGet, "/auth/profile", true, nil, &out)
	return out, err
}
