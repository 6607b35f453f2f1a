// Package auth holds the OAuth token model and the pluggable backends that
// persist tokens between runs: filesystem, environment variable, in-memory,
// SQLite, AWS Secrets Manager and Azure Key Vault.
package auth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RefreshThreshold is how long before the real expiry a token is already
// reported as expired, so a refresh happens before requests start failing.
const RefreshThreshold = 2 * time.Minute

// Token is an OAuth token as stored by a Backend.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// IsLongLived reports whether the token carries a refresh token and can
// therefore outlive its access token.
func (t *Token) IsLongLived() bool {
	return t != nil && t.RefreshToken != ""
}

// Expired reports whether the access token is expired or within the refresh
// threshold of expiring. A token without an expiry is considered expired.
func (t *Token) Expired() bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().After(t.ExpiresAt.Add(-RefreshThreshold))
}

// Clone returns a deep copy, or nil for a nil token.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	c.Scopes = append([]string(nil), t.Scopes...)
	return &c
}

// FromOAuth2 converts a golang.org/x/oauth2 token.
func FromOAuth2(token *oauth2.Token) *Token {
	if token == nil {
		return nil
	}
	t := &Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		t.Scopes = strings.Fields(scope)
	}
	return t
}

// OAuth2 converts to a golang.org/x/oauth2 token.
func (t *Token) OAuth2() *oauth2.Token {
	if t == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.ExpiresAt,
	}
}
