package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"liquidityLaunch/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	sink := NewJsonlStorage(path)

	first := []model.SyncEvent{{Kind: model.EventSync, PoolID: "0x01", Epoch: 3600, Branch: model.BranchExtend, FloorTick: 7686}}
	second := []model.SyncEvent{{Kind: model.EventFinalize, PoolID: "0x01", Epoch: 97200, FloorTick: 5000}}
	if err := sink.PutEvents(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := sink.PutEvents(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := sink.PutEvents(second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.SyncEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev model.SyncEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, ev)
	}
	want := append(first, second...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestAppendLinesReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	// Larger than the bufio buffer so Write reaches the device.
	line := bytes.Repeat([]byte("x"), 8192)
	err := appendLines("/dev/full", [][]byte{line})
	if err == nil || !strings.Contains(err.Error(), "write event") {
		t.Fatalf("expected write event error, got %v", err)
	}
}

func TestFileProgressStore(t *testing.T) {
	store := &FileProgressStore{Path: filepath.Join(t.TempDir(), "state.json")}
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "0x01"); err != nil || ok {
		t.Fatalf("load missing: ok=%v err=%v", ok, err)
	}

	snap := model.PoolSnapshot{
		PoolID: "0x01",
		Key:    model.PoolKey{Currency0: common.HexToAddress("0x10"), Currency1: common.HexToAddress("0x20"), Fee: 3000, TickSpacing: 60},
		Schedule: model.Schedule{
			TotalAmount: big.NewInt(1000), StartTime: 10, EndTime: 20, MinTick: -60, MaxTick: 60, IsReleaseTokenFirst: true,
		},
		Progress: model.Progress{
			AmountReleased:   big.NewInt(500),
			CurrentFloorTick: 0,
			ReconciledEpochs: map[uint64]struct{}{10: {}, 15: {}},
			Owner:            common.HexToAddress("0x30"),
			EpochSize:        5,
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	other := snap
	other.PoolID = "0x02"
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("save other: %v", err)
	}

	got, ok, err := store.Load(ctx, "0x01")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("updated_at not set")
	}
	got.UpdatedAt = ""
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("snapshot mismatch:\ngot  %+v\nwant %+v", got, snap)
	}
	if _, ok, _ := store.Load(ctx, "0x02"); !ok {
		t.Fatalf("second pool missing")
	}
}

func TestNilStoresAreNoops(t *testing.T) {
	var file *FileProgressStore
	var db *DBProgressStore
	for _, store := range []ProgressStore{file, db} {
		if err := store.Save(context.Background(), model.PoolSnapshot{PoolID: "0x01"}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, ok, err := store.Load(context.Background(), "0x01"); ok || err != nil {
			t.Fatalf("load: ok=%v err=%v", ok, err)
		}
	}
}
