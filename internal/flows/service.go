package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.FindByEmail != nil && s.deps.Refresh.ParseRefresh != nil
}

func (s Service) Login(ctx context.Context, email, secret string) LoginResult {
	return RunLogin(ctx, email, secret, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, principalID, deviceID string) error {
	return RunLogout(ctx, principalID, deviceID, s.deps.Logout)
}

func (s Service) Register(ctx context.Context, email, secret, role string) RegisterResult {
	return RunRegister(ctx, email, secret, role, s.deps.Register)
}

func (s Service) SetRole(ctx context.Context, principalID, role string) (RoleFailureKind, error) {
	return RunSetRole(ctx, principalID, role, s.deps.Role)
}
