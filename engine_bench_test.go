package authcore

import (
	"context"
	"testing"
)

func BenchmarkValidateAccess(b *testing.B) {
	env := newTestEnv(b, nil)
	env.register(b, "bench@college.edu", RoleAdvisor)
	pair := env.login(b, "bench@college.edu")
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	env := newTestEnv(b, nil)
	env.register(b, "bench@college.edu", RoleAdvisor)
	pair := env.login(b, "bench@college.edu")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := env.engine.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			b.Fatal(err)
		}
		pair = next
	}
}

func BenchmarkAuthorize(b *testing.B) {
	env := newTestEnv(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !env.engine.Authorize(RoleDepartmentHead, CapApproveReport) {
			b.Fatal("departmentHead should approve reports")
		}
	}
}
