package sessionmock

import "context"

// Provider is a function-backed mock that satisfies session.Provider.
type Provider struct {
	CurrentTokenFn func(ctx context.Context, uid string) (string, error)
	EnsureTokenFn  func(ctx context.Context, uid string) (string, error)
}

func (m *Provider) CurrentToken(ctx context.Context, uid string) (string, error) {
	if m.CurrentTokenFn != nil {
		return m.CurrentTokenFn(ctx, uid)
	}
	return "tok-test", nil
}

func (m *Provider) EnsureToken(ctx context.Context, uid string) (string, error) {
	if m.EnsureTokenFn != nil {
		return m.EnsureTokenFn(ctx, uid)
	}
	return "tok-test", nil
}
