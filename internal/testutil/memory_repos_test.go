package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/repository"
)

func newRequest(t *testing.T, requests *MemoryRequestRepo, ownerID string) *domain.Request {
	t.Helper()
	req := &domain.Request{
		OwnerID:     ownerID,
		Title:       "a title",
		Description: "a description",
		Category:    "IT Support",
		Priority:    domain.RequestPriorityMedium,
		Status:      domain.RequestStatusPending,
	}
	require.NoError(t, requests.Create(context.Background(), req))
	return req
}

func TestMemoryRequestRepo_StatusGuard(t *testing.T) {
	users := NewMemoryUserRepo()
	requests := NewMemoryRequestRepo(users)
	ctx := context.Background()

	owner := NewUser(t, users, "owner@company.com", "pw", domain.RoleMember)
	req := newRequest(t, requests, owner.ID)

	approved := domain.RequestStatusApproved
	updated, err := requests.ApplyPatch(ctx, req.ID, repository.RequestPatch{Status: &approved})
	require.NoError(t, err)
	require.Equal(t, approved, updated.Status)

	// a second status write finds no pending row
	rejected := domain.RequestStatusRejected
	_, err = requests.ApplyPatch(ctx, req.ID, repository.RequestPatch{Status: &rejected})
	require.ErrorIs(t, err, pgx.ErrNoRows)

	// non-status fields stay patchable after resolution
	title := "still editable"
	updated, err = requests.ApplyPatch(ctx, req.ID, repository.RequestPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "still editable", updated.Title)
	require.Equal(t, approved, updated.Status)
}

func TestMemoryRequestRepo_ConcurrentAccess(t *testing.T) {
	users := NewMemoryUserRepo()
	requests := NewMemoryRequestRepo(users)
	ctx := context.Background()

	owner := NewUser(t, users, "owner@company.com", "pw", domain.RoleMember)
	req := newRequest(t, requests, owner.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		title := fmt.Sprintf("title %d", i)
		wg.Add(3)
		go func() {
			defer wg.Done()
			got, err := requests.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.Equal(t, "owner@company.com", got.CreatorEmail)
		}()
		go func() {
			defer wg.Done()
			list, err := requests.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
		}()
		go func() {
			defer wg.Done()
			_, err := requests.ApplyPatch(ctx, req.ID, repository.RequestPatch{Title: &title})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
}
