package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/datdd/library-management-system/datetime"
	"github.com/datdd/library-management-system/domain"
)

// SaveLoanRecord upserts one loan row. Dates are stored textually with
// microsecond precision; an open loan has a NULL ReturnDate.
func (s *Store) SaveLoanRecord(ctx context.Context, record domain.LoanRecord) error {
	var returnDate any
	if returned, ok := record.ReturnDate(); ok {
		returnDate = datetime.FormatSQL(returned)
	}

	sqlQuery, args, buildErr := builder().
		Insert(tableLoans).
		Cols(colLoanRecordID, colLoanItemID, colLoanUserID, colLoanDate, colDueDate, colReturnDate).
		Vals(goqu.Vals{
			record.ID(),
			record.ItemID(),
			record.UserID(),
			datetime.FormatSQL(record.LoanDate()),
			datetime.FormatSQL(record.DueDate()),
			returnDate,
		}).
		OnConflict(goqu.DoUpdate(colLoanRecordID, goqu.Record{
			colLoanItemID: record.ItemID(),
			colLoanUserID: record.UserID(),
			colLoanDate:   datetime.FormatSQL(record.LoanDate()),
			colDueDate:    datetime.FormatSQL(record.DueDate()),
			colReturnDate: returnDate,
		})).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building loan record upsert for", record.ID(), buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("saving loan record", record.ID(), err)
	}

	return nil
}

// UpdateLoanRecord has the same merge-on-key semantics as SaveLoanRecord.
func (s *Store) UpdateLoanRecord(ctx context.Context, record domain.LoanRecord) error {
	return s.SaveLoanRecord(ctx, record)
}

// LoadLoanRecord reads one loan by id, or nil when absent. Unlike the bulk
// loads, a row that cannot be rebuilt is reported as a failed operation.
func (s *Store) LoadLoanRecord(ctx context.Context, recordID domain.EntityID) (*domain.LoanRecord, error) {
	sqlQuery, args, buildErr := builder().
		From(tableLoans).
		Select(colLoanRecordID, colLoanItemID, colLoanUserID, colLoanDate, colDueDate, colReturnDate).
		Where(goqu.Ex{colLoanRecordID: recordID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return nil, failOp("building loan record select for", recordID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp("loading loan record", recordID, err)
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return nil, nil
	}

	var (
		rowID, itemID, userID, loanDate, dueDate string
		returnDate                               *string
	)
	if scanErr := rows.Scan(&rowID, &itemID, &userID, &loanDate, &dueDate, &returnDate); scanErr != nil {
		return nil, failOp("scanning loan record row", recordID, scanErr)
	}

	record, rebuildErr := rebuildLoanRecord(rowID, itemID, userID, loanDate, dueDate, returnDate)
	if rebuildErr != nil {
		return nil, failOp("rebuilding loan record", recordID, rebuildErr)
	}

	return &record, nil
}

// LoadLoanRecordsByUser reads every loan made by one user.
func (s *Store) LoadLoanRecordsByUser(ctx context.Context, userID domain.EntityID) ([]domain.LoanRecord, error) {
	return s.loadLoanRecords(ctx, goqu.Ex{colLoanUserID: userID}, "loading loan records for user", userID)
}

// LoadLoanRecordsByItem reads every loan made against one item.
func (s *Store) LoadLoanRecordsByItem(ctx context.Context, itemID domain.EntityID) ([]domain.LoanRecord, error) {
	return s.loadLoanRecords(ctx, goqu.Ex{colLoanItemID: itemID}, "loading loan records for item", itemID)
}

// LoadAllLoanRecords reads every loan row.
func (s *Store) LoadAllLoanRecords(ctx context.Context) ([]domain.LoanRecord, error) {
	return s.loadLoanRecords(ctx, nil, "loading all loan records", "")
}

// DeleteLoanRecord removes one loan row; absent ids affect zero rows.
func (s *Store) DeleteLoanRecord(ctx context.Context, recordID domain.EntityID) error {
	sqlQuery, args, buildErr := builder().
		Delete(tableLoans).
		Where(goqu.Ex{colLoanRecordID: recordID}).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		return failOp("building loan record delete for", recordID, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execLocked(ctx, sqlQuery, args); err != nil {
		return failOp("deleting loan record", recordID, err)
	}

	return nil
}

// loadLoanRecords runs one loan select, optionally filtered, and rebuilds
// the rows. Rows that fail date parsing or domain validation are logged
// and skipped.
func (s *Store) loadLoanRecords(
	ctx context.Context,
	filter goqu.Ex,
	what string,
	id domain.EntityID,
) ([]domain.LoanRecord, error) {

	query := builder().
		From(tableLoans).
		Select(colLoanRecordID, colLoanItemID, colLoanUserID, colLoanDate, colDueDate, colReturnDate)
	if filter != nil {
		query = query.Where(filter)
	}

	sqlQuery, args, buildErr := query.Prepared(true).ToSQL()
	if buildErr != nil {
		return nil, failOp("building loan records select", id, buildErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, sqlQuery, args)
	if err != nil {
		return nil, failOp(what, id, err)
	}
	defer s.closeRows(ctx, rows)

	records := make([]domain.LoanRecord, 0)
	for rows.Next() {
		var (
			recordID, itemID, userID, loanDate, dueDate string
			returnDate                                  *string
		)
		if scanErr := rows.Scan(&recordID, &itemID, &userID, &loanDate, &dueDate, &returnDate); scanErr != nil {
			return nil, failOp("scanning loan record row", id, scanErr)
		}

		record, rebuildErr := rebuildLoanRecord(recordID, itemID, userID, loanDate, dueDate, returnDate)
		if rebuildErr != nil {
			s.logWarn(ctx, logMsgSkippingRow, logAttrTable, tableLoans, logAttrRecordID, recordID, logAttrError, rebuildErr.Error())
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func rebuildLoanRecord(
	recordID, itemID, userID, loanDate, dueDate string,
	returnDate *string,
) (domain.LoanRecord, error) {

	loanedAt, err := datetime.ParseSQL(loanDate)
	if err != nil {
		return domain.LoanRecord{}, err
	}
	dueAt, err := datetime.ParseSQL(dueDate)
	if err != nil {
		return domain.LoanRecord{}, err
	}

	record, err := domain.NewLoanRecord(recordID, itemID, userID, loanedAt, dueAt)
	if err != nil {
		return domain.LoanRecord{}, err
	}

	if returnDate != nil {
		returnedAt, parseErr := datetime.ParseSQL(*returnDate)
		if parseErr != nil {
			return domain.LoanRecord{}, parseErr
		}
		if setErr := record.SetReturnDate(returnedAt); setErr != nil {
			return domain.LoanRecord{}, setErr
		}
	}

	return record, nil
}
