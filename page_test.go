package keyset

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GetPage_ForwardLookahead(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	// Lookahead fetches limit+1 to learn whether a next page exists.
	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' ORDER BY age ASC, id ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).
			AddRow(1, 20, "A").AddRow(2, 21, "B").AddRow(3, 22, "C"))

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	page, err := adapter.GetPage(context.Background(), RawPageRequest{Limit: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	require.Equal(t, 2, page.AppliedLimit)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)
	require.Empty(t, page.PrevPageToken) // first page

	// The token continues from the last returned item.
	boundary, err := DecodeBoundary(page.NextPageToken)
	require.NoError(t, err)
	require.Equal(t, Boundary{"age": float64(21), "id": float64(2)}, boundary)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_GetPage_ForwardLastPage(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' ORDER BY age ASC, id ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).
			AddRow(1, 20, "A"))

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	page, err := adapter.GetPage(context.Background(), RawPageRequest{Limit: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	require.False(t, page.HasMore)
	require.Empty(t, page.NextPageToken) // end of dataset
	require.Empty(t, page.PrevPageToken)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_GetPage_Continuation(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	// Page one.
	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' ORDER BY age ASC, id ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).
			AddRow(1, 20, "A").AddRow(2, 21, "B").AddRow(3, 22, "C"))
	// Page two continues strictly after (age=21, id=2); boundary values come
	// back from the token as JSON numbers.
	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' AND \\(age > \\? OR \\(age = \\? AND id > \\?\\)\\) ORDER BY age ASC, id ASC LIMIT 3$").
		WithArgs(float64(21), float64(21), float64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).
			AddRow(3, 22, "C"))

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	first, err := adapter.GetPage(context.Background(), RawPageRequest{Limit: 2})
	require.NoError(t, err)
	require.True(t, first.HasMore)

	second, err := adapter.GetPage(context.Background(), RawPageRequest{Limit: 2, StartToken: first.NextPageToken})
	require.NoError(t, err)

	// Disjoint and contiguous: the second page starts where the first ended.
	require.Len(t, second.Items, 1)
	require.Equal(t, uint(3), second.Items[0].Payload.ID)
	require.False(t, second.HasMore)
	require.NotEmpty(t, second.PrevPageToken)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_GetPage_BackwardLookahead(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' AND \\(age < \\? OR \\(age = \\? AND id < \\?\\)\\) ORDER BY age DESC, id DESC LIMIT 3$").
		WithArgs(float64(30), float64(30), float64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).
			AddRow(4, 29, "C").AddRow(3, 29, "B").AddRow(2, 28, "A"))

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	token, err := EncodeBoundary(adapter.Ordering(), Boundary{"age": 30, "id": 5})
	require.NoError(t, err)

	page, err := adapter.GetPage(context.Background(), RawPageRequest{
		Limit:      2,
		StartToken: token,
		Backward:   true,
	})
	require.NoError(t, err)

	// Three rows came back; the extra one is the furthest back, which is the
	// first element after restoring forward order.
	require.Len(t, page.Items, 2)
	require.Equal(t, uint(3), page.Items[0].Payload.ID)
	require.Equal(t, uint(4), page.Items[1].Payload.ID)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.PrevPageToken)
	require.NotEmpty(t, page.NextPageToken)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_GetPage_WithTotal(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	dbMock.ExpectQuery("^SELECT \\* FROM `users` WHERE name = 'lol' ORDER BY age ASC, id ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "age", "name"}).AddRow(1, 20, "A"))
	dbMock.ExpectQuery("^SELECT count\\(\\*\\) FROM `users` WHERE name = 'lol'$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	page, err := adapter.GetPage(context.Background(), RawPageRequest{Limit: 2, WithTotal: true})
	require.NoError(t, err)

	require.True(t, page.HasTotal)
	require.Equal(t, int64(25), page.Total)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func Test_GetPage_BadToken(t *testing.T) {
	_, db, dbMock, err := newGORMMySQLMock()
	require.NoError(t, err)

	adapter, err := NewAdapter[tUser](newTestBase(db), tUserGetters)
	require.NoError(t, err)

	_, err = adapter.GetPage(context.Background(), RawPageRequest{Limit: 2, StartToken: "%%%"})
	require.Error(t, err)

	// Fail-fast: nothing was executed.
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
