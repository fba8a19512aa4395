package test

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/authcore"
	"github.com/google/uuid"
)

// mapProvider is an in-memory PrincipalProvider and PrincipalCreator.
type mapProvider struct {
	mu      sync.RWMutex
	byID    map[string]authcore.Principal
	byEmail map[string]string
}

func newMapProvider() *mapProvider {
	return &mapProvider{
		byID:    make(map[string]authcore.Principal),
		byEmail: make(map[string]string),
	}
}

func (p *mapProvider) FindByEmail(_ context.Context, email string) (authcore.Principal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byEmail[strings.ToLower(email)]
	if !ok {
		return authcore.Principal{}, authcore.ErrPrincipalNotFound
	}
	return p.byID[id], nil
}

func (p *mapProvider) FindByID(_ context.Context, id string) (authcore.Principal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.byID[id]
	if !ok {
		return authcore.Principal{}, authcore.ErrPrincipalNotFound
	}
	return u, nil
}

func (p *mapProvider) UpdateCredentialHash(_ context.Context, id, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.byID[id]
	if !ok {
		return authcore.ErrPrincipalNotFound
	}
	u.CredentialHash = hash
	p.byID[id] = u
	return nil
}

func (p *mapProvider) CreatePrincipal(_ context.Context, email, hash, role string) (authcore.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return authcore.Principal{}, authcore.ErrPrincipalExists
	}
	u := authcore.Principal{ID: uuid.NewString(), Email: email, CredentialHash: hash, Role: role}
	p.byID[u.ID] = u
	p.byEmail[email] = u.ID
	return u, nil
}
