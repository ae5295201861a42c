package database_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xvmnet/xvmd/infrastructure/db/database"
)

func TestBucketPaths(t *testing.T) {
	bucket := database.MakeBucket([]byte("vmmap")).Bucket([]byte("block"))
	if !bytes.Equal(bucket.Path(), []byte("vmmap/block/")) {
		t.Fatalf("unexpected bucket path %q", bucket.Path())
	}
	key := bucket.Key([]byte("abc"))
	if !bytes.Equal(key.Bytes(), []byte("vmmap/block/abc")) || !bytes.Equal(key.Suffix(), []byte("abc")) {
		t.Fatalf("unexpected key %q", key.Bytes())
	}
	if !bytes.Equal(database.MakeBucket().Path(), []byte("/")) {
		t.Fatalf("unexpected root bucket path %q", database.MakeBucket().Path())
	}
}

func TestCursorVisitsOnlyItsBucket(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorVisitsOnlyItsBucket", func(t *testing.T, db database.Database, testName string) {
		parent := database.MakeBucket([]byte("parent"))
		child := parent.Bucket([]byte("child"))
		for i := 0; i < 3; i++ {
			if err := db.Put(child.Key([]byte(fmt.Sprintf("%d", i))), []byte{byte(i)}); err != nil {
				t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
			}
		}
		if err := db.Put(database.MakeBucket([]byte("parents")).Key([]byte("x")), []byte{9}); err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}

		cursor, err := db.Cursor(parent)
		if err != nil {
			t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
		}
		defer cursor.Close()

		count := 0
		for ok := cursor.First(); ok; ok = cursor.Next() {
			value, err := cursor.Value()
			if err != nil {
				t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
			}
			if value[0] == 9 {
				t.Fatalf("%s: cursor visited a sibling bucket", testName)
			}
			count++
		}
		if count != 3 {
			t.Fatalf("%s: expected 3 entries, got %d", testName, count)
		}
	})
}

func TestTransactionIsolation(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionIsolation", func(t *testing.T, db database.Database, testName string) {
		key := database.MakeBucket([]byte("tip")).Key([]byte("height"))
		dbTx, err := db.Begin()
		if err != nil {
			t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
		}
		defer dbTx.RollbackUnlessClosed()

		if err := db.Put(key, []byte{1}); err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
		// The transaction reads the database as it was when it began.
		if _, err := dbTx.Get(key); !database.IsNotFoundError(err) {
			t.Fatalf("%s: transaction saw a write made after it began: %v", testName, err)
		}
	})
}
