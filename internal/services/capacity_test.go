package services

import (
	"context"
	"testing"

	"communityhub/internal/domain"
)

func TestCapacityService_RoleOccupancySumsBothKinds(t *testing.T) {
	regs := &fakeRegRepo{}
	guests := &fakeGuestRepo{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = regs.Create(ctx, &domain.Registration{EventID: "e1", RoleID: "r1", UserID: "u1", Status: domain.RegistrationStatusActive})
	}
	_ = guests.Create(ctx, &domain.GuestRegistration{EventID: "e1", RoleID: "r1", Email: "g@example.com", Status: domain.RegistrationStatusActive})
	// Cancelled and other-role records must not count.
	_ = regs.Create(ctx, &domain.Registration{EventID: "e1", RoleID: "r1", UserID: "u2", Status: domain.RegistrationStatusCancelled})
	_ = guests.Create(ctx, &domain.GuestRegistration{EventID: "e1", RoleID: "r2", Email: "h@example.com", Status: domain.RegistrationStatusActive})

	svc := NewCapacityService(regs, guests)
	occ, err := svc.RoleOccupancy(ctx, "e1", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if occ.Active != 3 || occ.Total != 3 {
		t.Fatalf("expected 3 active, got %+v", occ)
	}
}

func TestCapacityService_IsRoleFull(t *testing.T) {
	svc := NewCapacityService(&fakeRegRepo{}, &fakeGuestRepo{})

	tests := []struct {
		name  string
		total int
		max   int
		want  bool
	}{
		{"empty role", 0, 3, false},
		{"one seat left", 2, 3, false},
		{"exactly full", 3, 3, true},
		{"over full", 4, 3, true},
		{"capacity one", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.IsRoleFull(domain.Occupancy{Active: tt.total, Total: tt.total}, tt.max)
			if got != tt.want {
				t.Fatalf("IsRoleFull(%d, %d) = %v, want %v", tt.total, tt.max, got, tt.want)
			}
		})
	}
}
