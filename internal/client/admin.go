package client

import (
	"context"
	"net/http"
	"net/url"

	"flowtasks/internal/dto"
)

func (c *Client) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	var out []dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/admin/users", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) ResetPassword(ctx context.Context, id, password string) error {
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/password", true,
		dto.PasswordRequest{Password: password}, nil)
}
