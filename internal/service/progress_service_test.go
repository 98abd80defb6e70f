package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yuqie6/LifeRPG/internal/eventbus"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), payload...)
	m.saves++
	return nil
}

type recordingPublisher struct {
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(evt eventbus.Event) {
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) has(typ string) bool {
	for _, e := range p.events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

type countingLocker struct {
	locks, unlocks int
}

func (l *countingLocker) Lock() error   { l.locks++; return nil }
func (l *countingLocker) Unlock() error { l.unlocks++; return nil }

func newTestService(store SnapshotStore, pub Publisher) *ProgressService {
	return NewProgressService(store, pub, nil, ProgressConfig{Seed: 42})
}

func TestProgressServiceLogPersists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	for range 3 {
		if _, ok, err := svc.LogActivity(ctx, EntryInput{Name: "Practice", BaseExp: 50}, testNow); err != nil || !ok {
			t.Fatalf("log: ok=%v err=%v", ok, err)
		}
	}
	// 新实例从存储读取
	st, err := newTestService(store, nil).Snapshot(ctx, testNow)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if st.TotalXP != 135 || st.RankRP != 81 || len(st.Entries) != 3 {
		t.Fatalf("persisted state = xp %d rp %d entries %d", st.TotalXP, st.RankRP, len(st.Entries))
	}
	if !pub.has(eventbus.TypeEntryLogged) || !pub.has(eventbus.TypeLevelUp) {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestProgressServiceValidationNoop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)

	_, ok, err := svc.LogActivity(ctx, EntryInput{Name: " ", BaseExp: 10}, testNow)
	if ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if store.saves != 0 {
		t.Fatalf("validation failure persisted state")
	}
	if _, ok, _ := svc.DeleteEntry(ctx, "missing", testNow); ok {
		t.Fatalf("unknown delete reported ok")
	}
}

func TestProgressServiceStorageError(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)
	svc.LogActivity(ctx, EntryInput{Name: "Run", BaseExp: 10}, testNow)

	store.saveErr = errors.New("disk full")
	if _, _, err := svc.LogActivity(ctx, EntryInput{Name: "Run", BaseExp: 10}, testNow); err == nil {
		t.Fatalf("expected storage error")
	}
	store.saveErr = nil
	st, _ := svc.Snapshot(ctx, testNow)
	if st.TotalXP != 10 {
		t.Fatalf("failed write leaked into state: xp=%d", st.TotalXP)
	}
}

func TestProgressServiceTickIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	res, err := svc.Tick(ctx, testNow)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !res.Decay.Initialized || res.Generation.Total() != 10 {
		t.Fatalf("first tick = %+v", res)
	}
	saves := store.saves

	res, err = svc.Tick(ctx, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Decay.Changed() || res.Generation.Total() != 0 {
		t.Fatalf("second tick changed state: %+v", res)
	}
	if store.saves != saves {
		t.Fatalf("idempotent tick persisted")
	}
	if !pub.has(eventbus.TypeQuestsGenerated) {
		t.Fatalf("missing quests_generated event")
	}
}

func TestProgressServiceDecayAcrossDays(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	svc.Tick(ctx, testNow)
	st, _ := svc.Load(ctx, testNow)
	st.RankRP = 700 // gold
	payload, _ := st.Encode()
	store.Save(ctx, DefaultSnapshotKey, payload)

	res, err := svc.Tick(ctx, testNow.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Decay.DaysPenalized != 3 || res.Decay.RPAfter != 580 {
		t.Fatalf("decay = %+v", res.Decay)
	}
	if !pub.has(eventbus.TypeDecayApplied) || !pub.has(eventbus.TypeRankChanged) {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestProgressServiceQuestFlow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), nil)
	if _, err := svc.Tick(ctx, testNow); err != nil {
		t.Fatalf("tick: %v", err)
	}
	quests, err := svc.Quests(ctx, schema.PeriodDaily, testNow)
	if err != nil || len(quests) != 4 {
		t.Fatalf("quests = %d err=%v", len(quests), err)
	}

	entry, ok, err := svc.CompleteQuest(ctx, quests[0].ID, 2, testNow)
	if err != nil || !ok || entry.Origin != schema.OriginQuest {
		t.Fatalf("complete: %+v ok=%v err=%v", entry, ok, err)
	}
	if _, ok, _ := svc.RerollQuest(ctx, quests[1].ID, testNow); !ok {
		t.Fatalf("reroll failed")
	}
	if _, ok, _ := svc.SnoozeQuest(ctx, quests[2].ID, "2026-03-12", testNow); !ok {
		t.Fatalf("snooze failed")
	}
	if _, ok, _ := svc.SkipQuest(ctx, quests[3].ID, testNow); !ok {
		t.Fatalf("skip failed")
	}
	active, _ := svc.Quests(ctx, schema.PeriodDaily, testNow)
	if len(active) != 1 || active[0].ID != quests[1].ID {
		t.Fatalf("active = %+v", active)
	}
}

func TestProgressServiceArchiveAndReset(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)
	svc.Tick(ctx, testNow)
	svc.LogActivity(ctx, EntryInput{Name: "Practice", BaseExp: 50}, testNow)

	rec, err := svc.ArchiveCampaign(ctx, testNow)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	st, _ := svc.Snapshot(ctx, testNow)
	if len(st.Archives) != 1 || st.Archives[0].Campaign.ID != rec.Campaign.ID {
		t.Fatalf("archives = %+v", st.Archives)
	}
	if len(st.Quests) != 0 || len(st.Entries) != 1 {
		t.Fatalf("after archive quests=%d entries=%d", len(st.Quests), len(st.Entries))
	}

	if err := svc.Reset(ctx, testNow); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, _ = svc.Snapshot(ctx, testNow)
	if st.TotalXP != 0 || len(st.Entries) != 0 || len(st.Archives) != 0 {
		t.Fatalf("reset state = %+v", st)
	}
}

func TestProgressServiceUsesLocker(t *testing.T) {
	l := &countingLocker{}
	svc := NewProgressService(newMemStore(), nil, l, ProgressConfig{Seed: 1})
	svc.LogActivity(context.Background(), EntryInput{Name: "Run", BaseExp: 10}, testNow)
	svc.LogActivity(context.Background(), EntryInput{Name: "", BaseExp: 10}, testNow)
	if l.locks != 2 || l.unlocks != 2 {
		t.Fatalf("locks=%d unlocks=%d", l.locks, l.unlocks)
	}
}

func TestProgressServiceRepairsMalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.data[DefaultSnapshotKey] = []byte(`{"total_xp":"oops","rank_rp":-5,"entries":{"x":1},"quick_actions":[]}`)
	svc := newTestService(store, nil)
	st, err := svc.Load(ctx, testNow)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.TotalXP != 0 || st.RankRP != 0 || len(st.Entries) != 0 || len(st.QuickActions) != 2 {
		t.Fatalf("repaired = %+v", st)
	}
}

func TestProgressServiceReport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), nil)
	svc.LogActivity(ctx, EntryInput{Name: "Practice", BaseExp: 50}, testNow)
	r, err := svc.Report(ctx, testNow)
	if err != nil || r.TotalXP != 50 || len(r.Last7Days) != 7 {
		t.Fatalf("report = %+v err=%v", r, err)
	}
}
