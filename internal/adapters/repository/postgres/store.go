package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
	"github.com/ogurasousui/hr-employee-model/internal/platform/config"
	pgdb "github.com/ogurasousui/hr-employee-model/internal/platform/db/postgres"
)

// Store は接続プールと、それを共有するリポジトリ・トランザクション管理をまとめます。
type Store struct {
	pool      *pgxpool.Pool
	Employees *EmployeeRepository
	Roles     *EmployeeRoleRepository
	Tx        *pgdb.TransactionManager
}

// OpenStore は database 設定から接続プールを作成し、リポジトリを組み立てます。
// 読み書きトランザクションには設定の lock_timeout が適用されます。
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pool, err := pgdb.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		pool:      pool,
		Employees: NewEmployeeRepository(pool),
		Roles:     NewEmployeeRoleRepository(pool),
		Tx:        pgdb.NewTransactionManager(pool, pgdb.WithLockTimeout(cfg.LockTimeout)),
	}, nil
}

// Service は Store のリポジトリとトランザクション管理で employee.Service を生成します。
func (s *Store) Service(clock employee.Clock, logger *slog.Logger) *employee.Service {
	return employee.NewService(s.Employees, s.Roles, clock, s.Tx, logger)
}

// Pool は内部の接続プールを返します。
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close は接続プールを閉じます。
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
