package api

import (
	"context"
	"fmt"
	"net/http"
)

// Profile holds the user's job-seeker profile used to seed generation.
type Profile struct {
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	Headline     string   `json:"headline,omitempty"`
	Location     string   `json:"location,omitempty"`
	LinkedInURL  string   `json:"linkedin_url,omitempty"`
	TargetRoles  []string `json:"target_roles,omitempty"`
	YearsOfExp   int      `json:"years_of_experience,omitempty"`
	Preferences  string   `json:"preferences,omitempty"`
}

// GetProfile fetches the user profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &p); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile patches the user profile. Zero-valued fields are omitted
// from the request body by the struct tags, so partial updates are safe.
func (c *Client) UpdateProfile(ctx context.Context, p Profile) (*Profile, error) {
	var updated Profile
	if err := c.do(ctx, http.MethodPatch, "/profile", p, &updated); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &updated, nil
}
