package gradestore

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func TestStore(t *testing.T) {
	sqlite, err := Config{File: ":memory:"}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	defer sqlite.Close()
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		res, err := store.History(ctx, "2C", "ROSSI MARIO")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, res, 0)
	}

	first := time.Date(2023, time.December, 20, 18, 0, 0, 0, time.UTC)
	firstRun, err := store.Push(ctx, Snapshot{
		Class: "2C",
		Term:  "1",
		Time:  first,
		Students: []StudentRecord{
			{Student: "ROSSI MARIO", Average: ptr(5.5), VeryBad: 1, Insufficient: 2},
			{Student: "BIANCHI ANNA", Average: nil},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	secondRun, err := store.Push(ctx, Snapshot{
		Class: "2C",
		Term:  "3",
		Time:  first.Add(time.Hour * 24 * 90),
		Students: []StudentRecord{
			{Student: "ROSSI MARIO", Average: ptr(6.25)},
			{Student: "BIANCHI ANNA", Average: ptr(8)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.NotEqual(t, firstRun, secondRun)

	// same name in another class is a different history
	_, err = store.Push(ctx, Snapshot{
		Class:    "4A",
		Term:     "1",
		Time:     first,
		Students: []StudentRecord{{Student: "ROSSI MARIO", Average: ptr(9)}},
	})
	if err != nil {
		t.Fatal(err)
	}

	history, err := store.History(ctx, "2C", "ROSSI MARIO")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, history, 2)
	require.Equal(t, firstRun, history[0].RunId)
	require.Equal(t, 5.5, *history[0].Average)
	require.Equal(t, 1, history[0].VeryBad)
	require.Equal(t, 2, history[0].Insufficient)
	require.True(t, history[0].Time.Equal(first))
	require.Equal(t, "3", history[1].Term)
	require.Equal(t, 6.25, *history[1].Average)

	history, err = store.History(ctx, "2C", "BIANCHI ANNA")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, history, 2)
	require.Nil(t, history[0].Average)
	require.Equal(t, 8.0, *history[1].Average)
}

func TestOpenDBWithoutTarget(t *testing.T) {
	_, err := Config{}.OpenDB()
	require.Error(t, err)
}

func TestDsnEscapesAuthToken(t *testing.T) {
	dsn, err := Config{
		Url:       "libsql://grades-school.turso.io?tls=1",
		AuthToken: "eyJh+b/c=&x",
	}.dsn()
	require.NoError(t, err)

	parsed, err := url.Parse(dsn)
	require.NoError(t, err)
	require.Equal(t, "libsql", parsed.Scheme)
	require.Equal(t, "grades-school.turso.io", parsed.Host)
	require.Equal(t, "eyJh+b/c=&x", parsed.Query().Get("authToken"))
	require.Equal(t, "1", parsed.Query().Get("tls"))

	dsn, err = Config{Url: "https://grades-school.turso.io"}.dsn()
	require.NoError(t, err)
	require.Equal(t, "https://grades-school.turso.io", dsn)
}
