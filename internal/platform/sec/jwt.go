// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides token verification and role primitives.
//
// # Architecture
//
// Tokens are issued by the gym's identity provider; this service only holds the
// public key and verifies them. Handlers only ever see [AuthClaims]; the
// training package never imports jwt directly.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnknownRole rejects tokens whose role claim is outside the hierarchy.
var ErrUnknownRole = errors.New("sec: unknown role claim")

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// UserID doubles as the participant or trainer identifier, so the roster
// handlers resolve who is enrolling without a lookup.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

// RoleOf returns the role carried by the claims, or an empty role for anonymous callers.
func (claims *AuthClaims) RoleOf() UserRole {
	if claims == nil {
		return ""
	}
	return UserRole(claims.Role)
}

// Verifier checks RS256 access tokens against a single public key.
type Verifier struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewVerifier reads a PEM-encoded RSA public key from disk.
func NewVerifier(publicKeyPath, issuer string, leeway time.Duration) (*Verifier, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return NewVerifierFromKey(publicKey, issuer, leeway), nil
}

// NewVerifierFromKey builds a Verifier from an already parsed key.
//
// Tokens must be RS256, carry the given issuer and an expiry.
func NewVerifierFromKey(publicKey *rsa.PublicKey, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{
		publicKey: publicKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// VerifyToken checks signature, issuer, expiry and role of a JWT string.
func (verifier *Verifier) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := verifier.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return verifier.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("sec: token carries no user id")
	}
	if !claims.RoleOf().Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return claims, nil
}
