package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/drag"
)

func openTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "tabdeck.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := ApplyMigrations(ctx, s.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return s, ctx
}

func TestApplyAndRollbackMigrations(t *testing.T) {
	s, ctx := openTestStore(t)

	mustExist := []string{"orderings", "moves"}
	for _, table := range mustExist {
		var name string
		if err := s.DB().QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name); err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}

	if err := RollbackAll(ctx, s.DB()); err != nil {
		t.Fatalf("rollback migrations: %v", err)
	}
	for _, table := range mustExist {
		var count int
		if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("count table %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("table %s still exists after rollback", table)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, ctx := openTestStore(t)

	snapshot := []ContainerOrder{
		{
			Container: container.Essentials(),
			Entries: []TabEntry{
				{Tab: "t1", Locator: "https://example.com"},
				{Tab: "t2"},
			},
		},
		{
			Container: container.SpaceRegular("s1"),
			Entries:   []TabEntry{{Tab: "t3", Locator: "https://example.org"}},
		},
	}
	if err := s.ReplaceOrderings(ctx, snapshot); err != nil {
		t.Fatalf("replace orderings: %v", err)
	}

	got, err := s.LoadOrderings(ctx)
	if err != nil {
		t.Fatalf("load orderings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d containers, want 2", len(got))
	}

	byContainer := make(map[string]ContainerOrder)
	for _, order := range got {
		byContainer[order.Container.String()] = order
	}
	ess := byContainer[container.Essentials().String()]
	if len(ess.Entries) != 2 || ess.Entries[0].Tab != "t1" || ess.Entries[1].Tab != "t2" {
		t.Errorf("essentials = %+v", ess.Entries)
	}
	if ess.Entries[0].Locator != "https://example.com" {
		t.Errorf("locator = %q", ess.Entries[0].Locator)
	}
	reg := byContainer[container.SpaceRegular("s1").String()]
	if len(reg.Entries) != 1 || reg.Entries[0].Tab != "t3" {
		t.Errorf("space_regular(s1) = %+v", reg.Entries)
	}
}

func TestSnapshotIsWholesaleReplace(t *testing.T) {
	s, ctx := openTestStore(t)

	first := []ContainerOrder{{
		Container: container.Essentials(),
		Entries:   []TabEntry{{Tab: "t1"}, {Tab: "t2"}},
	}}
	if err := s.ReplaceOrderings(ctx, first); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	second := []ContainerOrder{{
		Container: container.SpacePinned("s1"),
		Entries:   []TabEntry{{Tab: "t9"}},
	}}
	if err := s.ReplaceOrderings(ctx, second); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}

	count, err := s.CountRows(ctx, "orderings")
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("orderings rows = %d, want 1 (snapshot replaces wholesale)", count)
	}
}

func TestEmptySnapshotClearsTable(t *testing.T) {
	s, ctx := openTestStore(t)

	if err := s.ReplaceOrderings(ctx, []ContainerOrder{{
		Container: container.Essentials(),
		Entries:   []TabEntry{{Tab: "t1"}},
	}}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := s.ReplaceOrderings(ctx, nil); err != nil {
		t.Fatalf("empty snapshot: %v", err)
	}

	got, err := s.LoadOrderings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("orderings = %v after empty snapshot, want none", got)
	}
}

func TestMoveLog(t *testing.T) {
	s, ctx := openTestStore(t)

	ops := []drag.Operation{
		{Item: "t1", From: container.Essentials(), FromIndex: 2, To: container.SpacePinned("s1"), ToIndex: 0, ToSpace: "s1"},
		{Item: "t2", From: container.SpaceRegular("s1"), FromIndex: 0, To: container.SpaceRegular("s1"), ToIndex: 3, ToSpace: "s1"},
	}
	for _, op := range ops {
		if err := s.RecordMove(ctx, op); err != nil {
			t.Fatalf("record move: %v", err)
		}
	}

	got, err := s.ListMoves(ctx, 10)
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("moves = %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.MoveID == "" {
			t.Error("move without id")
		}
		if rec.CommittedAt.IsZero() {
			t.Error("move without timestamp")
		}
	}

	var cross *MoveRecord
	for i := range got {
		if got[i].Tab == "t1" {
			cross = &got[i]
		}
	}
	if cross == nil {
		t.Fatal("cross-container move missing from log")
	}
	if !cross.From.Equal(container.Essentials()) || cross.FromIndex != 2 {
		t.Errorf("from = %v[%d]", cross.From, cross.FromIndex)
	}
	if !cross.To.Equal(container.SpacePinned("s1")) || cross.ToIndex != 0 {
		t.Errorf("to = %v[%d]", cross.To, cross.ToIndex)
	}
}
