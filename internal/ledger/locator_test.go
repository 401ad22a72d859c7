package ledger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/pkg/types"
)

func TestFindByOrder(t *testing.T) {
	eng, _ := newTestEngine(t,
		[]string{"S1", "#100", "10", "FALSE", "FALSE"},
		[]string{"S2", "200", "20", "TRUE", "FALSE"})
	rows, sch, err := eng.loadTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("prefixed store value, bare query", func(t *testing.T) {
		rec, ok := eng.findByOrder(rows, sch, "100")
		if !ok {
			t.Fatal("not found")
		}
		if rec.SerialID != "S1" || rec.Row != 2 {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("bare store value, prefixed query", func(t *testing.T) {
		rec, ok := eng.findByOrder(rows, sch, "#200")
		if !ok {
			t.Fatal("not found")
		}
		if rec.SerialID != "S2" || !rec.Activated {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("miss is a normal outcome", func(t *testing.T) {
		if _, ok := eng.findByOrder(rows, sch, "300"); ok {
			t.Fatal("expected miss")
		}
	})
}

func TestFindBySerial(t *testing.T) {
	eng, _ := newTestEngine(t,
		[]string{"S1", "100", "10", "FALSE", "FALSE"},
		[]string{"S1", "101", "99", "FALSE", "FALSE"})
	rows, sch, err := eng.loadTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("first match in row order wins", func(t *testing.T) {
		rec, ok := eng.findBySerial(rows, sch, "S1")
		if !ok {
			t.Fatal("not found")
		}
		if rec.Row != 2 || rec.TokenBalance != 10 {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("serial match is exact", func(t *testing.T) {
		if _, ok := eng.findBySerial(rows, sch, "s1"); ok {
			t.Fatal("case-insensitive serial match must not happen")
		}
		if _, ok := eng.findBySerial(rows, sch, "#S1"); ok {
			t.Fatal("serial must not be normalized")
		}
	})
}

func TestRecordAt(t *testing.T) {
	t.Run("ragged row decodes with defaults", func(t *testing.T) {
		store := &memStore{rows: [][]string{
			{"Serial", "ClientOrder", "Token", "Activated", "Terminated"},
			{"S1", "100"}, // trailing cells absent
		}}
		eng := NewEngine(store, types.DefaultConfig(), zap.NewNop())
		rows, sch, err := eng.loadTable(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		rec := eng.recordAt(rows, sch, 1)
		if rec.TokenBalance != 0 || rec.Activated || rec.Terminated {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("non-numeric balance decodes to zero", func(t *testing.T) {
		store := &memStore{rows: [][]string{
			{"Serial", "ClientOrder", "Token"},
			{"S1", "100", "pending"},
		}}
		eng := NewEngine(store, types.DefaultConfig(), zap.NewNop())
		rows, sch, err := eng.loadTable(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if rec := eng.recordAt(rows, sch, 1); rec.TokenBalance != 0 {
			t.Fatalf("expected 0, got %d", rec.TokenBalance)
		}
	})

	t.Run("empty store is a schema error", func(t *testing.T) {
		eng := NewEngine(&memStore{}, types.DefaultConfig(), zap.NewNop())
		if _, _, err := eng.loadTable(context.Background()); err == nil {
			t.Fatal("expected error for empty store")
		}
	})
}
