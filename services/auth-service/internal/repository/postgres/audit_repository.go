package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// AuditRepository реализация журнала аудита для PostgreSQL
type AuditRepository struct {
	*BaseRepository
}

// NewAuditRepository создает новый экземпляр AuditRepository
func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &AuditRepository{BaseRepository: NewBaseRepository(pool)}
}

// Create добавляет запись аудита
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	query := `INSERT INTO audit_entries (id, actor, action, entity_type, entity_id, detail, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.Pool.Exec(ctx, query,
		entry.ID,
		entry.Actor,
		string(entry.Action),
		entry.EntityType,
		entry.EntityID,
		entry.Detail,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}
