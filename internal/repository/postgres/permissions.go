package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
)

// grantTable locates the grant relation addressed by a permission kind.
type grantTable struct {
	name     string
	idColumn string
}

var grantTables = map[domain.PermissionKind]grantTable{
	domain.PermissionKindRole:    {name: tableUserITRoles, idColumn: colRoleID},
	domain.PermissionKindRequest: {name: tableUserRequestRights, idColumn: colRightID},
}

func grantTableFor(kind domain.PermissionKind) (grantTable, error) {
	table, ok := grantTables[kind]
	if !ok {
		return grantTable{}, fmt.Errorf("%w: unknown kind %q", domain.ErrMalformedIdentifier, kind)
	}
	return table, nil
}

// PermissionRepository implements port.PermissionRepository using PostgreSQL.
type PermissionRepository struct {
	db      pgDB
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository constructs a PostgreSQL-backed permission repository.
func NewPermissionRepository(db pgDB) *PermissionRepository {
	return &PermissionRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *PermissionRepository) WithTx(tx pgx.Tx) *PermissionRepository {
	if tx == nil {
		return r
	}
	return &PermissionRepository{
		db:      tx,
		builder: r.builder,
	}
}

// ListRequestRights returns the request-rights catalog ordered by id.
func (r *PermissionRepository) ListRequestRights(ctx context.Context) ([]domain.RequestRight, error) {
	stmt, args, err := r.builder.Select(colID, colName).
		From(tableRequestRights).
		OrderBy(colID + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list request rights sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query request rights: %w", err)
	}
	defer rows.Close()

	rights := make([]domain.RequestRight, 0)
	for rows.Next() {
		var right domain.RequestRight
		if err := rows.Scan(&right.ID, &right.Name); err != nil {
			return nil, fmt.Errorf("scan request right: %w", err)
		}
		rights = append(rights, right)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request rights: %w", err)
	}

	return rights, nil
}

// ListITRoles returns the IT roles catalog ordered by id.
func (r *PermissionRepository) ListITRoles(ctx context.Context) ([]domain.ITRole, error) {
	stmt, args, err := r.builder.Select(colID, colName).
		From(tableITRoles).
		OrderBy(colID + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list it roles sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query it roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.ITRole, 0)
	for rows.Next() {
		var role domain.ITRole
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan it role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate it roles: %w", err)
	}

	return roles, nil
}

// ListUserITRoles returns the IT role grants held by the login.
func (r *PermissionRepository) ListUserITRoles(ctx context.Context, login string) ([]domain.UserITRole, error) {
	stmt, args, err := r.builder.Select(colUserID, colRoleID).
		From(tableUserITRoles).
		Where(squirrel.Eq{colUserID: login}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user it roles sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query user it roles: %w", err)
	}
	defer rows.Close()

	grants := make([]domain.UserITRole, 0)
	for rows.Next() {
		var grant domain.UserITRole
		if err := rows.Scan(&grant.UserID, &grant.RoleID); err != nil {
			return nil, fmt.Errorf("scan user it role: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user it roles: %w", err)
	}

	return grants, nil
}

// ListUserRequestRights returns the request right grants held by the login.
func (r *PermissionRepository) ListUserRequestRights(ctx context.Context, login string) ([]domain.UserRequestRight, error) {
	stmt, args, err := r.builder.Select(colUserID, colRightID).
		From(tableUserRequestRights).
		Where(squirrel.Eq{colUserID: login}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user request rights sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query user request rights: %w", err)
	}
	defer rows.Close()

	grants := make([]domain.UserRequestRight, 0)
	for rows.Next() {
		var grant domain.UserRequestRight
		if err := rows.Scan(&grant.UserID, &grant.RightID); err != nil {
			return nil, fmt.Errorf("scan user request right: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user request rights: %w", err)
	}

	return grants, nil
}

// Grant inserts one grant row per reference in a single transaction. Existing
// identical grants are not looked up; a unique constraint in the store, if
// any, absorbs repeats through ON CONFLICT DO NOTHING.
func (r *PermissionRepository) Grant(ctx context.Context, login string, refs []domain.PermissionRef) error {
	if len(refs) == 0 {
		return nil
	}

	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)
		for _, ref := range refs {
			if err := txRepo.insertGrant(ctx, login, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PermissionRepository) insertGrant(ctx context.Context, login string, ref domain.PermissionRef) error {
	table, err := grantTableFor(ref.Kind)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert(table.name).
		Columns(colUserID, table.idColumn).
		Values(login, ref.ID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build grant %s sql: %w", ref, err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("grant %s: %w", ref, err)
	}

	return nil
}

// Revoke deletes every grant row matching each reference, duplicates
// included, in a single transaction. References with no matching row are
// skipped silently.
func (r *PermissionRepository) Revoke(ctx context.Context, login string, refs []domain.PermissionRef) error {
	if len(refs) == 0 {
		return nil
	}

	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)
		for _, ref := range refs {
			if err := txRepo.deleteGrant(ctx, login, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PermissionRepository) deleteGrant(ctx context.Context, login string, ref domain.PermissionRef) error {
	table, err := grantTableFor(ref.Kind)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Delete(table.name).
		Where(squirrel.Eq{colUserID: login}).
		Where(squirrel.Eq{table.idColumn: ref.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke %s sql: %w", ref, err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke %s: %w", ref, err)
	}

	return nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
