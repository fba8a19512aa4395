package flows

import (
	"context"
	"errors"
)

// RegisterFailureKind classifies registration failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalid
	RegisterFailureRole
	RegisterFailureHash
	RegisterFailureExists
	RegisterFailureCreate
)

// RegisterResult carries the created principal or failure metadata.
type RegisterResult struct {
	Failure   RegisterFailureKind
	Err       error
	Principal Principal
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	DefaultRole     string
	ValidRole       func(role string) bool
	HashCredential  func(secret string) (string, error)
	CreatePrincipal func(ctx context.Context, email, credentialHash, role string) (Principal, error)
	// Exists is the error the creator returns for a duplicate email.
	Exists error
}

// RunRegister hashes the credential and creates a principal. The plaintext
// secret never leaves this function.
func RunRegister(ctx context.Context, email, secret, role string, deps RegisterDeps) RegisterResult {
	if email == "" || secret == "" {
		return RegisterResult{Failure: RegisterFailureInvalid}
	}
	if role == "" {
		role = deps.DefaultRole
	}
	if !deps.ValidRole(role) {
		return RegisterResult{Failure: RegisterFailureRole}
	}

	hash, err := deps.HashCredential(secret)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	p, err := deps.CreatePrincipal(ctx, email, hash, role)
	if err != nil {
		if deps.Exists != nil && errors.Is(err, deps.Exists) {
			return RegisterResult{Failure: RegisterFailureExists, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err}
	}
	return RegisterResult{Principal: p}
}
