package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akeren/mandarin-waitlist/internal/models"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// Insert appends one entry. A rejection by the store is a *StoreError;
	// anything else is a transport fault.
	Insert(ctx context.Context, entry *models.WaitlistEntry) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

var ErrStoreNotConfigured = apperrors.NewUnavailableError("waitlist store is not configured", nil)

type waitlistRepository struct {
	db    *gorm.DB
	table string
}

func NewWaitlistRepository(db *gorm.DB, table string) WaitlistRepository {
	if strings.TrimSpace(table) == "" {
		table = models.WaitlistTableName
	}
	return &waitlistRepository{db: db, table: table}
}

func (wr *waitlistRepository) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	if wr.db == nil {
		return ErrStoreNotConfigured
	}

	if err := wr.db.WithContext(ctx).Table(wr.table).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return newUniqueViolation(err)
		}
		// Raw database text never reaches the caller.
		return apperrors.NewDatabaseError(fmt.Sprintf("insert into %s failed", wr.table), err)
	}

	return nil
}

func (wr *waitlistRepository) Ping(ctx context.Context) error {
	if wr.db == nil {
		return ErrStoreNotConfigured
	}

	sqlDB, err := wr.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
