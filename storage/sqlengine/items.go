package sqlengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage/sqlengine/internal/adapters"
)

// SaveItem upserts one item row. An item without an author reference is
// stored with a NULL AuthorId, never an empty string.
func (s *Store) SaveItem(ctx context.Context, item *domain.LibraryItem) error {
	if item == nil {
		return errors.Join(domain.ErrInvalidArgument, errors.New("nil item supplied"))
	}

	var authorID any
	if item.Author() != nil {
		authorID = item.Author().ID()
	}

	sqlQuery, args, buildErr := builder().
		Insert(tableItems).
		Cols(colItemID, colItemType, colTitle, colAuthorID, colISBN, colPubYear, colStatus).
		Vals(goqu.Vals{
			item.ID(),
			string(item.Kind()),
			item.Title(),
			authorID,
			item.ISBN(),
			item.PublicationYear(),
			int(item.Status()),
		}).
		OnConflict(goqu.DoUpdate(colItemID, goqu.Record{
			colItemType: string(item.Kind()),
			colTitle:    item.Title(),
			colAuthorID: authorID,
			colISBN:     item.ISBN(),
			colPubYear:  item.PublicationYear(),
			colStatus:   int(item.Status()),
		})).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building item upsert for", item.ID(), buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("saving item", item.ID(), err)
	}

	return nil
}

// LoadItem reads one item by id, or nil when absent. A dangling author id
// is tolerated: the item loads without an author reference.
func (s *Store) LoadItem(ctx context.Context, itemID domain.EntityID) (*domain.LibraryItem, error) {
	sqlQuery, args, buildErr := s.itemSelect().
		Where(goqu.Ex{colItemID: itemID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building item select for", itemID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading item", itemID, err)
	}

	var row itemRow
	found, scanErr := scanSingleItem(rows, &row)
	s.closeRows(ctx, rows)
	if scanErr != nil {
		return nil, failOp("scanning item", itemID, scanErr)
	}
	if !found {
		return nil, nil
	}

	item, buildItemErr := s.itemFromRow(ctx, row)
	if buildItemErr != nil {
		return nil, failOp("rebuilding item", itemID, buildItemErr)
	}

	return item, nil
}

// LoadAllItems reads every item row; rows that fail domain validation are
// logged and skipped.
func (s *Store) LoadAllItems(ctx context.Context) ([]*domain.LibraryItem, error) {
	sqlQuery, args, buildErr := s.itemSelect().
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building items select", "", buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading all items", "", err)
	}

	itemRows := make([]itemRow, 0)
	for rows.Next() {
		var row itemRow
		if scanErr := rows.Scan(&row.id, &row.kind, &row.title, &row.authorID, &row.isbn, &row.year, &row.status); scanErr != nil {
			s.closeRows(ctx, rows)
			return nil, failOp("scanning item row", "", scanErr)
		}
		itemRows = append(itemRows, row)
	}
	// Rows are fully drained before the per-item author lookups below reuse
	// the single connection.
	s.closeRows(ctx, rows)

	items := make([]*domain.LibraryItem, 0, len(itemRows))
	for _, row := range itemRows {
		item, buildItemErr := s.itemFromRow(ctx, row)
		if buildItemErr != nil {
			s.logWarn(ctx, logMsgSkippingRow, logAttrTable, tableItems, logAttrRecordID, row.id, logAttrError, buildItemErr.Error())
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// DeleteItem removes one item row; absent ids affect zero rows.
func (s *Store) DeleteItem(ctx context.Context, itemID domain.EntityID) error {
	sqlQuery, args, buildErr := builder().
		Delete(tableItems).
		Where(goqu.Ex{colItemID: itemID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building item delete for", itemID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("deleting item", itemID, err)
	}

	return nil
}

// itemRow carries one scanned LibraryItems row with its nullable columns
// still as pointers.
type itemRow struct {
	id       string
	kind     string
	title    string
	authorID *string
	isbn     *string
	year     *int
	status   int
}

func (s *Store) itemSelect() *goqu.SelectDataset {
	return builder().
		From(tableItems).
		Select(colItemID, colItemType, colTitle, colAuthorID, colISBN, colPubYear, colStatus)
}

func scanSingleItem(rows adapters.Rows, row *itemRow) (bool, error) {
	if !rows.Next() {
		return false, nil
	}
	if err := rows.Scan(&row.id, &row.kind, &row.title, &row.authorID, &row.isbn, &row.year, &row.status); err != nil {
		return false, err
	}

	return true, nil
}

// itemFromRow rebuilds the domain item, resolving the author reference
// through its own lookup. Callers hold the store lock.
func (s *Store) itemFromRow(ctx context.Context, row itemRow) (*domain.LibraryItem, error) {
	var author *domain.Author
	if row.authorID != nil {
		loaded, err := s.loadAuthorLocked(ctx, *row.authorID)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			s.logWarn(ctx, logMsgAuthorNotFoundInDB, logAttrItemID, row.id, logAttrAuthorID, *row.authorID)
		}
		author = loaded
	}

	status, err := domain.StatusFromInt(row.status)
	if err != nil {
		return nil, err
	}

	var isbn string
	if row.isbn != nil {
		isbn = *row.isbn
	}
	var year int
	if row.year != nil {
		year = *row.year
	}

	return domain.RehydrateBook(row.id, row.title, author, isbn, year, status)
}
