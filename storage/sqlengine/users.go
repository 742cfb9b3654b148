package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/datdd/library-management-system/domain"
)

// SaveUser upserts one user row.
func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	sqlQuery, args, buildErr := builder().
		Insert(tableUsers).
		Cols(colUserID, colUserName).
		Vals(goqu.Vals{user.ID(), user.Name()}).
		OnConflict(goqu.DoUpdate(colUserID, goqu.Record{colUserName: user.Name()})).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building user upsert for", user.ID(), buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("saving user", user.ID(), err)
	}

	return nil
}

// LoadUser reads one user by id, or nil when absent.
func (s *Store) LoadUser(ctx context.Context, userID domain.EntityID) (*domain.User, error) {
	sqlQuery, args, buildErr := builder().
		From(tableUsers).
		Select(colUserID, colUserName).
		Where(goqu.Ex{colUserID: userID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building user select for", userID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading user", userID, err)
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return nil, nil
	}

	var id, name string
	if scanErr := rows.Scan(&id, &name); scanErr != nil {
		return nil, failOp("scanning user", userID, scanErr)
	}

	user, buildUserErr := domain.NewUser(id, name)
	if buildUserErr != nil {
		return nil, failOp("rebuilding user", userID, buildUserErr)
	}

	return &user, nil
}

// LoadAllUsers reads every user row; rows that fail domain validation are
// logged and skipped.
func (s *Store) LoadAllUsers(ctx context.Context) ([]*domain.User, error) {
	sqlQuery, args, buildErr := builder().
		From(tableUsers).
		Select(colUserID, colUserName).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building users select", "", buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading all users", "", err)
	}
	defer s.closeRows(ctx, rows)

	users := make([]*domain.User, 0)
	for rows.Next() {
		var id, name string
		if scanErr := rows.Scan(&id, &name); scanErr != nil {
			return nil, failOp("scanning user row", "", scanErr)
		}

		user, buildUserErr := domain.NewUser(id, name)
		if buildUserErr != nil {
			s.logWarn(ctx, logMsgSkippingRow, logAttrTable, tableUsers, logAttrRecordID, id, logAttrError, buildUserErr.Error())
			continue
		}
		users = append(users, &user)
	}

	return users, nil
}

// DeleteUser removes one user row; absent ids affect zero rows.
func (s *Store) DeleteUser(ctx context.Context, userID domain.EntityID) error {
	sqlQuery, args, buildErr := builder().
		Delete(tableUsers).
		Where(goqu.Ex{colUserID: userID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building user delete for", userID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("deleting user", userID, err)
	}

	return nil
}
