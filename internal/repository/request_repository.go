package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/request-portal/internal/domain"
)

// RequestPatch carries the optional fields of a partial update. A nil field
// is left untouched. The set of patchable columns is closed: status, title,
// description, priority.
type RequestPatch struct {
	Status      *domain.RequestStatus
	Title       *string
	Description *string
	Priority    *domain.RequestPriority
}

// IsEmpty reports whether the patch changes no recognized field.
func (p RequestPatch) IsEmpty() bool {
	return p.Status == nil && p.Title == nil && p.Description == nil && p.Priority == nil
}

// RequestRepository encapsulates request persistence. Reads annotate each
// row with the creator's email.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	ListAll(ctx context.Context) ([]domain.Request, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Request, error)
	ApplyPatch(ctx context.Context, id string, patch RequestPatch) (*domain.Request, error)
	Delete(ctx context.Context, id string) (*domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `r.id, r.user_id, u.email, r.title, r.description, r.category,
               r.priority, r.status, r.created_at, r.updated_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	const query = `
        INSERT INTO requests (user_id, title, description, category, priority, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.OwnerID,
		req.Title,
		req.Description,
		req.Category,
		req.Priority,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM requests r JOIN users u ON r.user_id = u.id
        WHERE r.id=$1`, requestColumns)

	var req domain.Request
	if err := scanRequest(r.pool.QueryRow(ctx, query, id), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListAll(ctx context.Context) ([]domain.Request, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM requests r JOIN users u ON r.user_id = u.id
        ORDER BY r.created_at DESC`, requestColumns)
	return r.list(ctx, query)
}

func (r *requestRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Request, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM requests r JOIN users u ON r.user_id = u.id
        WHERE r.user_id=$1
        ORDER BY r.created_at DESC`, requestColumns)
	return r.list(ctx, query, ownerID)
}

// ApplyPatch updates exactly the fields present in the patch through a fixed
// ordered rule list, stamps updated_at, and returns the resulting row.
// Returns pgx.ErrNoRows when the id does not exist, or when a status write
// finds the row no longer pending.
func (r *requestRepository) ApplyPatch(ctx context.Context, id string, patch RequestPatch) (*domain.Request, error) {
	sets := []string{}
	args := []any{}

	rules := []struct {
		column  string
		present bool
		value   any
	}{
		{"status", patch.Status != nil, deref(patch.Status)},
		{"title", patch.Title != nil, deref(patch.Title)},
		{"description", patch.Description != nil, deref(patch.Description)},
		{"priority", patch.Priority != nil, deref(patch.Priority)},
	}
	for _, rule := range rules {
		if !rule.present {
			continue
		}
		args = append(args, rule.value)
		sets = append(sets, fmt.Sprintf("%s=$%d", rule.column, len(args)))
	}
	sets = append(sets, "updated_at=clock_timestamp()")
	args = append(args, id)

	// Only pending requests have outgoing transitions, so a status write is
	// guarded here as well: a patch that lost the race to a concurrent
	// resolution matches no row instead of overwriting a terminal status.
	where := fmt.Sprintf("r.id=$%d AND u.id = r.user_id", len(args))
	if patch.Status != nil {
		where += " AND r.status='pending'"
	}

	query := fmt.Sprintf(`
        UPDATE requests r SET %s
        FROM users u
        WHERE %s
        RETURNING %s`, strings.Join(sets, ", "), where, requestColumns)

	var req domain.Request
	if err := scanRequest(r.pool.QueryRow(ctx, query, args...), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) (*domain.Request, error) {
	const query = `
        DELETE FROM requests
        WHERE id=$1
        RETURNING id, user_id, title, description, category, priority, status, created_at, updated_at`

	var req domain.Request
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.OwnerID,
		&req.Title,
		&req.Description,
		&req.Category,
		&req.Priority,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) list(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		var req domain.Request
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, req *domain.Request) error {
	return row.Scan(
		&req.ID,
		&req.OwnerID,
		&req.CreatorEmail,
		&req.Title,
		&req.Description,
		&req.Category,
		&req.Priority,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
