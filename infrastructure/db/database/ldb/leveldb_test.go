package ldb

import (
	"testing"

	"github.com/xvmnet/xvmd/infrastructure/db/database"
)

func prepareDatabaseForTest(t *testing.T, testName string) (ldb *LevelDB, teardownFunc func()) {
	ldb, err := NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err = ldb.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}
	return ldb, teardownFunc
}

func TestLevelDBSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestLevelDBSanity")
	defer teardownFunc()

	key := database.MakeBucket([]byte("blocks")).Key([]byte("tip"))
	if _, err := ldb.Get(key); !database.IsNotFoundError(err) {
		t.Fatalf("TestLevelDBSanity: Get of a missing key returned wrong error: %v", err)
	}
	if err := ldb.Put(key, []byte("value")); err != nil {
		t.Fatalf("TestLevelDBSanity: Put unexpectedly failed: %s", err)
	}
	value, err := ldb.Get(key)
	if err != nil || string(value) != "value" {
		t.Fatalf("TestLevelDBSanity: Get returned %q, %v", value, err)
	}
	if err := ldb.Delete(key); err != nil {
		t.Fatalf("TestLevelDBSanity: Delete unexpectedly failed: %s", err)
	}
	exists, err := ldb.Has(key)
	if err != nil || exists {
		t.Fatalf("TestLevelDBSanity: key unexpectedly exists after Delete")
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	ldb, err := NewMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewMemoryLevelDB unexpectedly failed: %s", err)
	}
	defer ldb.Close()

	bucket := database.MakeBucket([]byte("edges"))
	committed := bucket.Key([]byte("committed"))
	rolledBack := bucket.Key([]byte("rolled back"))

	dbTx, err := ldb.Begin()
	if err != nil {
		t.Fatalf("Begin unexpectedly failed: %s", err)
	}
	if err := dbTx.Put(committed, []byte{1}); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	// Writes are not visible before Commit, not even to the transaction.
	if exists, _ := dbTx.Has(committed); exists {
		t.Fatalf("uncommitted write is visible to its transaction")
	}
	if err := dbTx.Commit(); err != nil {
		t.Fatalf("Commit unexpectedly failed: %s", err)
	}
	if err := dbTx.RollbackUnlessClosed(); err != nil {
		t.Fatalf("RollbackUnlessClosed of a committed transaction failed: %s", err)
	}
	if err := dbTx.Put(committed, []byte{2}); err == nil {
		t.Fatalf("Put into a closed transaction unexpectedly succeeded")
	}

	dbTx, err = ldb.Begin()
	if err != nil {
		t.Fatalf("Begin unexpectedly failed: %s", err)
	}
	if err := dbTx.Put(rolledBack, []byte{1}); err != nil {
		t.Fatalf("Put unexpectedly failed: %s", err)
	}
	if err := dbTx.Delete(committed); err != nil {
		t.Fatalf("Delete unexpectedly failed: %s", err)
	}
	if err := dbTx.Rollback(); err != nil {
		t.Fatalf("Rollback unexpectedly failed: %s", err)
	}

	if exists, _ := ldb.Has(rolledBack); exists {
		t.Fatalf("rolled back write was persisted")
	}
	value, err := ldb.Get(committed)
	if err != nil || len(value) != 1 || value[0] != 1 {
		t.Fatalf("committed value was not persisted: %v, %v", value, err)
	}
}
