package sqlengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/datdd/library-management-system/domain"
)

// SaveAuthor upserts one author row: merge-on-key, update when the id
// matches, insert otherwise.
func (s *Store) SaveAuthor(ctx context.Context, author *domain.Author) error {
	if author == nil {
		return errors.Join(domain.ErrInvalidArgument, errors.New("nil author supplied"))
	}

	sqlQuery, args, buildErr := builder().
		Insert(tableAuthors).
		Cols(colAuthorID, colAuthorName).
		Vals(goqu.Vals{author.ID(), author.Name()}).
		OnConflict(goqu.DoUpdate(colAuthorID, goqu.Record{colAuthorName: author.Name()})).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building author upsert for", author.ID(), buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("saving author", author.ID(), err)
	}

	return nil
}

// LoadAuthor reads one author by id, or nil when absent.
func (s *Store) LoadAuthor(ctx context.Context, authorID domain.EntityID) (*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadAuthorLocked(ctx, authorID)
}

func (s *Store) loadAuthorLocked(ctx context.Context, authorID domain.EntityID) (*domain.Author, error) {
	sqlQuery, args, buildErr := builder().
		From(tableAuthors).
		Select(colAuthorID, colAuthorName).
		Where(goqu.Ex{colAuthorID: authorID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building author select for", authorID, buildErr)
	}

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading author", authorID, err)
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return nil, nil
	}

	var id, name string
	if scanErr := rows.Scan(&id, &name); scanErr != nil {
		return nil, failOp("scanning author", authorID, scanErr)
	}

	author, buildAuthorErr := domain.NewAuthor(id, name)
	if buildAuthorErr != nil {
		return nil, failOp("rebuilding author", authorID, buildAuthorErr)
	}

	return author, nil
}

// LoadAllAuthors reads every author row; rows that fail domain validation
// are logged and skipped.
func (s *Store) LoadAllAuthors(ctx context.Context) ([]*domain.Author, error) {
	sqlQuery, args, buildErr := builder().
		From(tableAuthors).
		Select(colAuthorID, colAuthorName).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building authors select", "", buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading all authors", "", err)
	}
	defer s.closeRows(ctx, rows)

	authors := make([]*domain.Author, 0)
	for rows.Next() {
		var id, name string
		if scanErr := rows.Scan(&id, &name); scanErr != nil {
			return nil, failOp("scanning author row", "", scanErr)
		}

		author, buildAuthorErr := domain.NewAuthor(id, name)
		if buildAuthorErr != nil {
			s.logWarn(ctx, logMsgSkippingRow, logAttrTable, tableAuthors, logAttrRecordID, id, logAttrError, buildAuthorErr.Error())
			continue
		}
		authors = append(authors, author)
	}

	return authors, nil
}

// DeleteAuthor removes one author row; absent ids affect zero rows.
func (s *Store) DeleteAuthor(ctx context.Context, authorID domain.EntityID) error {
	sqlQuery, args, buildErr := builder().
		Delete(tableAuthors).
		Where(goqu.Ex{colAuthorID: authorID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building author delete for", authorID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("deleting author", authorID, err)
	}

	return nil
}
