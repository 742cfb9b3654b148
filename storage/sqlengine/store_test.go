package sqlengine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datdd/library-management-system/datetime"
	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage/sqlengine"
	"github.com/datdd/library-management-system/storage/sqlengine/internal/adapters"
)

// --- fake protocol session ---

type statementCall struct {
	query  string
	params []any
}

type fakeConnection struct {
	pingErr error
	execs   []statementCall
	queries []statementCall
	onExec  func(query string, params []any) error
	onQuery func(query string, params []any) ([][]any, error)

	begins    int
	commits   int
	rollbacks int
	closed    bool
}

func (c *fakeConnection) Ping(_ context.Context) error { return c.pingErr }

func (c *fakeConnection) Prepare(query string) adapters.Statement {
	return &fakeStatement{conn: c, query: query}
}

func (c *fakeConnection) Begin(_ context.Context) error    { c.begins++; return nil }
func (c *fakeConnection) Commit(_ context.Context) error   { c.commits++; return nil }
func (c *fakeConnection) Rollback(_ context.Context) error { c.rollbacks++; return nil }
func (c *fakeConnection) Close(_ context.Context) error    { c.closed = true; return nil }

type fakeStatement struct {
	conn   *fakeConnection
	query  string
	params []any
}

func (s *fakeStatement) set(index int, value any) {
	for len(s.params) < index {
		s.params = append(s.params, nil)
	}
	s.params[index-1] = value
}

func (s *fakeStatement) BindString(index int, value string) { s.set(index, value) }
func (s *fakeStatement) BindInt(index int, value int)       { s.set(index, value) }
func (s *fakeStatement) BindNull(index int)                 { s.set(index, nil) }

func (s *fakeStatement) Exec(_ context.Context) (adapters.Result, error) {
	s.conn.execs = append(s.conn.execs, statementCall{query: s.query, params: s.params})
	if s.conn.onExec != nil {
		if err := s.conn.onExec(s.query, s.params); err != nil {
			return nil, err
		}
	}

	return fakeResult{}, nil
}

func (s *fakeStatement) Query(_ context.Context) (adapters.Rows, error) {
	s.conn.queries = append(s.conn.queries, statementCall{query: s.query, params: s.params})
	if s.conn.onQuery != nil {
		data, err := s.conn.onQuery(s.query, s.params)
		if err != nil {
			return nil, err
		}

		return &fakeRows{data: data}, nil
	}

	return &fakeRows{}, nil
}

type fakeResult struct{}

func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		if err := assignScanValue(d, row[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeRows) Close() error { return nil }

func assignScanValue(dest, src any) error {
	switch d := dest.(type) {
	case *string:
		d2, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", src)
		}
		*d = d2
	case **string:
		if src == nil {
			*d = nil
			return nil
		}
		v, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into **string", src)
		}
		*d = &v
	case *int:
		v, ok := src.(int)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int", src)
		}
		*d = v
	case **int:
		if src == nil {
			*d = nil
			return nil
		}
		v, ok := src.(int)
		if !ok {
			return fmt.Errorf("cannot scan %T into **int", src)
		}
		*d = &v
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}

	return nil
}

func newFakeStore(t *testing.T) (*sqlengine.Store, *fakeConnection) {
	t.Helper()
	conn := &fakeConnection{}
	store, err := sqlengine.NewStoreWithConnector(func(_ context.Context) (adapters.Connection, error) {
		return conn, nil
	})
	require.NoError(t, err)

	return store, conn
}

// --- tests ---

func Test_SaveAuthor_IssuesSingleUpsert(t *testing.T) {
	store, conn := newFakeStore(t)
	ctx := context.Background()

	author, err := domain.NewAuthor("author_1", "James Baldwin")
	require.NoError(t, err)
	require.NoError(t, store.SaveAuthor(ctx, author))

	require.Len(t, conn.execs, 1, "a save is one merge statement, not a select-then-write")
	call := conn.execs[0]
	assert.Contains(t, call.query, `INSERT INTO "Authors"`)
	assert.Contains(t, call.query, "ON CONFLICT")
	assert.Contains(t, call.params, "author_1")
	assert.Contains(t, call.params, "James Baldwin")
}

func Test_SaveAuthor_NilAuthorRejected(t *testing.T) {
	store, conn := newFakeStore(t)

	err := store.SaveAuthor(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Empty(t, conn.execs)
}

func Test_LoadAuthor_AbsentRow_ReturnsNilWithoutError(t *testing.T) {
	store, _ := newFakeStore(t)

	author, err := store.LoadAuthor(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, author)
}

func Test_LoadAuthor_RebuildsRow(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return [][]any{{"author_1", "Toni Morrison"}}, nil
	}

	author, err := store.LoadAuthor(context.Background(), "author_1")

	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, "Toni Morrison", author.Name())
	require.Len(t, conn.queries, 1)
	assert.Contains(t, conn.queries[0].params, "author_1", "the lookup must be parameterized by id")
}

func Test_BackendFailure_WrapsOperationFailed_KeepingDiagnostics(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onExec = func(_ string, _ []any) error {
		return errors.New("connection reset by peer")
	}

	author, err := domain.NewAuthor("author_1", "Anyone")
	require.NoError(t, err)
	saveErr := store.SaveAuthor(context.Background(), author)

	require.Error(t, saveErr)
	assert.ErrorIs(t, saveErr, domain.ErrOperationFailed)
	assert.Contains(t, saveErr.Error(), "connection reset by peer",
		"the protocol diagnostic must survive the rewrap")
}

func Test_Connection_EstablishedLazilyAndCached(t *testing.T) {
	conn := &fakeConnection{}
	dials := 0
	store, err := sqlengine.NewStoreWithConnector(func(_ context.Context) (adapters.Connection, error) {
		dials++
		return conn, nil
	})
	require.NoError(t, err)
	assert.Zero(t, dials, "construction must not dial")

	ctx := context.Background()
	_, err = store.LoadAuthor(ctx, "a")
	require.NoError(t, err)
	_, err = store.LoadAuthor(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 1, dials, "a healthy session is reused")
}

func Test_Connection_RedialedWhenPingFails(t *testing.T) {
	first := &fakeConnection{}
	second := &fakeConnection{}
	sessions := []*fakeConnection{first, second}
	dials := 0
	store, err := sqlengine.NewStoreWithConnector(func(_ context.Context) (adapters.Connection, error) {
		conn := sessions[dials]
		dials++
		return conn, nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.LoadAuthor(ctx, "a")
	require.NoError(t, err)

	first.pingErr = errors.New("server closed the connection unexpectedly")

	_, err = store.LoadAuthor(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 2, dials)
	assert.True(t, first.closed, "the dead session must be closed before redialing")
	assert.Len(t, second.queries, 1, "the retry must run on the fresh session")
}

func Test_Transactions_ExplicitAndNonNested(t *testing.T) {
	store, conn := newFakeStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginTransaction(ctx))
	assert.Equal(t, 1, conn.begins)

	err := store.BeginTransaction(ctx)
	assert.ErrorIs(t, err, sqlengine.ErrTransactionInProgress)

	require.NoError(t, store.CommitTransaction(ctx))
	assert.Equal(t, 1, conn.commits)

	err = store.CommitTransaction(ctx)
	assert.ErrorIs(t, err, sqlengine.ErrNoTransaction)

	assert.NoError(t, store.RollbackTransaction(ctx), "rollback without a transaction is a no-op")
	assert.Zero(t, conn.rollbacks)
}

func Test_SingleSaves_NeverOpenTransactions(t *testing.T) {
	store, conn := newFakeStore(t)

	author, err := domain.NewAuthor("author_1", "No Tx")
	require.NoError(t, err)
	require.NoError(t, store.SaveAuthor(context.Background(), author))

	assert.Zero(t, conn.begins)
	assert.Zero(t, conn.commits)
}

func Test_Close_RollsBackOpenTransaction(t *testing.T) {
	store, conn := newFakeStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginTransaction(ctx))
	require.NoError(t, store.Close(ctx))

	assert.Equal(t, 1, conn.rollbacks, "an open transaction must not outlive the store")
	assert.True(t, conn.closed)
}

func Test_SaveItem_AbsentAuthor_StoresNullNotEmptyString(t *testing.T) {
	store, conn := newFakeStore(t)

	item, err := domain.RehydrateBook("item_1", "No Author", nil, "isbn-1", 2002, domain.StatusAvailable)
	require.NoError(t, err)
	require.NoError(t, store.SaveItem(context.Background(), item))

	require.Len(t, conn.execs, 1)
	call := conn.execs[0]
	assert.NotContains(t, call.params, "", "an absent author must never serialize as an empty string")
	hasNullMarker := strings.Contains(call.query, "NULL") || containsNil(call.params)
	assert.True(t, hasNullMarker, "an absent author must reach the store as SQL NULL")
}

func Test_LoadItem_NullAuthorColumn_LoadsWithoutAuthor(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(query string, _ []any) ([][]any, error) {
		if strings.Contains(query, `"LibraryItems"`) {
			return [][]any{{"item_1", "Book", "Anonymous Work", nil, "isbn-1", 1850, 0}}, nil
		}
		t.Fatalf("unexpected query: %s", query)
		return nil, nil
	}

	item, err := store.LoadItem(context.Background(), "item_1")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Nil(t, item.Author())
	assert.Equal(t, domain.StatusAvailable, item.Status())
}

func Test_LoadItem_DanglingAuthorID_LoadsWithoutAuthor(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(query string, _ []any) ([][]any, error) {
		if strings.Contains(query, `"LibraryItems"`) {
			return [][]any{{"item_1", "Book", "Orphaned Work", "author_gone", "isbn-1", 1900, 1}}, nil
		}
		// Author lookup finds nothing.
		return nil, nil
	}

	item, err := store.LoadItem(context.Background(), "item_1")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Nil(t, item.Author(), "a dangling author id loads the item without an author")
	assert.Equal(t, domain.StatusBorrowed, item.Status())
}

func Test_LoadAllItems_SkipsMalformedRows(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(query string, _ []any) ([][]any, error) {
		if strings.Contains(query, `"LibraryItems"`) {
			return [][]any{
				{"item_good", "Book", "Kept", nil, "isbn-1", 2000, 0},
				{"item_bad_status", "Book", "Dropped", nil, "isbn-2", 2000, 42},
				{"item_null_isbn", "Book", "Dropped Too", nil, nil, 2000, 0},
			}, nil
		}
		return nil, nil
	}

	items, err := store.LoadAllItems(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item_good", items[0].ID())
}

func Test_SaveLoanRecord_WritesMicrosecondTimestamps(t *testing.T) {
	store, conn := newFakeStore(t)

	loaned := time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.Local)
	record, err := domain.NewLoanRecord("loan_1", "item_1", "user_1", loaned, loaned.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, store.SaveLoanRecord(context.Background(), record))

	require.Len(t, conn.execs, 1)
	call := conn.execs[0]
	assert.Contains(t, call.params, "2024-03-01 10:00:00.123456")
	assert.NotContains(t, call.params, "", "an open loan must store NULL, not an empty return date")
}

func Test_LoadLoanRecord_TruncatesSubSecondPrecision(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return [][]any{{
			"loan_1", "item_1", "user_1",
			"2024-03-01 10:00:00.987654", "2024-03-15 10:00:00.123456", nil,
		}}, nil
	}

	record, err := store.LoadLoanRecord(context.Background(), "loan_1")

	require.NoError(t, err)
	require.NotNil(t, record)
	want, err := datetime.Parse("2024-03-01 10:00:00")
	require.NoError(t, err)
	assert.True(t, record.LoanDate().Equal(want), "fractional seconds truncate on the way back in")
	assert.False(t, record.IsReturned())
}

func Test_LoadLoanRecord_MalformedRow_ReportsFailure(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return [][]any{{
			"loan_1", "item_1", "user_1",
			"not-a-date", "2024-03-15 10:00:00", nil,
		}}, nil
	}

	record, err := store.LoadLoanRecord(context.Background(), "loan_1")

	require.Error(t, err, "a corrupt row fetched by id is a failure, not an absence")
	assert.ErrorIs(t, err, domain.ErrOperationFailed)
	assert.Nil(t, record)
}

func Test_LoadAllLoanRecords_SkipsMalformedRows(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return [][]any{
			{"loan_good", "item_1", "user_1", "2024-03-01 10:00:00", "2024-03-15 10:00:00", nil},
			{"loan_bad", "item_2", "user_1", "not-a-date", "2024-03-15 10:00:00", nil},
		}, nil
	}

	records, err := store.LoadAllLoanRecords(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "loan_good", records[0].ID())
}

func Test_LoadLoanRecords_FilteredByForeignKey(t *testing.T) {
	store, conn := newFakeStore(t)
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return nil, nil
	}
	ctx := context.Background()

	_, err := store.LoadLoanRecordsByUser(ctx, "user_1")
	require.NoError(t, err)
	_, err = store.LoadLoanRecordsByItem(ctx, "item_1")
	require.NoError(t, err)

	require.Len(t, conn.queries, 2)
	assert.Contains(t, conn.queries[0].query, `"UserId"`)
	assert.Contains(t, conn.queries[0].params, "user_1")
	assert.Contains(t, conn.queries[1].query, `"ItemId"`)
	assert.Contains(t, conn.queries[1].params, "item_1")
}

func Test_DeleteItem_AbsentID_IsANoOp(t *testing.T) {
	store, conn := newFakeStore(t)

	require.NoError(t, store.DeleteItem(context.Background(), "missing"))

	require.Len(t, conn.execs, 1)
	assert.Contains(t, conn.execs[0].query, `DELETE FROM "LibraryItems"`)
}

type capturedLog struct {
	level string
	msg   string
	args  []any
}

type capturingContextualLogger struct {
	logs []capturedLog
}

func (l *capturingContextualLogger) record(level, msg string, args []any) {
	l.logs = append(l.logs, capturedLog{level: level, msg: msg, args: args})
}

func (l *capturingContextualLogger) DebugContext(_ context.Context, msg string, args ...any) {
	l.record("debug", msg, args)
}

func (l *capturingContextualLogger) InfoContext(_ context.Context, msg string, args ...any) {
	l.record("info", msg, args)
}

func (l *capturingContextualLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.record("warn", msg, args)
}

func (l *capturingContextualLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.record("error", msg, args)
}

func Test_WithContextualLogger_ReceivesEngineEvents(t *testing.T) {
	logs := &capturingContextualLogger{}
	conn := &fakeConnection{}
	conn.onQuery = func(_ string, _ []any) ([][]any, error) {
		return [][]any{
			{"loan_bad", "item_1", "user_1", "not-a-date", "2024-03-15 10:00:00", nil},
		}, nil
	}
	store, err := sqlengine.NewStoreWithConnector(func(_ context.Context) (adapters.Connection, error) {
		return conn, nil
	}, sqlengine.WithContextualLogger(logs))
	require.NoError(t, err)

	records, err := store.LoadAllLoanRecords(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)

	var levels []string
	var messages []string
	for _, entry := range logs.logs {
		levels = append(levels, entry.level)
		messages = append(messages, entry.msg)
	}
	assert.Contains(t, levels, "info", "the first use logs the established connection")
	assert.Contains(t, levels, "warn")
	assert.Contains(t, messages, "skipping malformed row")
}

func containsNil(params []any) bool {
	for _, p := range params {
		if p == nil {
			return true
		}
	}

	return false
}
