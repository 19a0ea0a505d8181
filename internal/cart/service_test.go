package cart

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCatalog struct {
	products map[int64]catalog.Product
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[int64]catalog.Product{
		1: {ID: 1, Name: "Men Regular Fit Solid T-Shirt", Price: 799, OriginalPrice: 1499},
		2: {ID: 2, Name: "Men Slim Fit Casual Shirt", Price: 1199, OriginalPrice: 1999},
		3: {ID: 3, Name: "Relaxed Fit Denim Jeans", Price: 1499, OriginalPrice: 2999},
	}}
}

func (s *stubCatalog) Get(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingMetrics) ObserveCartOp(op string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

type failingStore struct {
	Store
	saveErr error
	loadErr error
}

func (f *failingStore) Load(ctx context.Context, id string) ([]Line, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Store.Load(ctx, id)
}

func (f *failingStore) Save(ctx context.Context, id string, lines []Line) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, id, lines)
}

func newTestService(t *testing.T) (Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store, newStubCatalog(), NewLocker(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestGetUnknownSessionIsEmpty(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)

	lines, err := svc.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil cart, got %#v", lines)
	}
	if store.Len() != 0 {
		t.Fatal("reading a cart must not allocate one")
	}
}

func TestAddTwiceSumsQuantities(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", 1, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	lines, err := svc.Add(ctx, "s1", 1, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected single line with quantity 5, got %+v", lines)
	}
}

func TestAddDenormalizesNameAndPriceAndKeepsOrder(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Add(ctx, "s1", 2, 1)
	lines, err := svc.Add(ctx, "s1", 1, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	want := []Line{
		{ProductID: 2, Name: "Men Slim Fit Casual Shirt", Price: 1199, Quantity: 1},
		{ProductID: 1, Name: "Men Regular Fit Solid T-Shirt", Price: 799, Quantity: 2},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		_, err := svc.Add(ctx, "s1", 1, qty)
		requireCode(t, err, pkgerrors.CodeValidation)
		if pkgerrors.As(err).Message() != "invalid product or quantity" {
			t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
		}
	}

	_, err := svc.Add(ctx, "s1", 0, 1)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Add(ctx, "s1", 999, 1)
	requireCode(t, err, pkgerrors.CodeNotFound)

	if store.Len() != 0 {
		t.Fatal("rejected adds must not create a cart")
	}
}

func TestQuantityIsCapped(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", 1, MaxQuantity-1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err := svc.Add(ctx, "s1", 1, 2)
	requireCode(t, err, pkgerrors.CodeValidation)

	lines, _ := store.Load(ctx, "s1")
	if len(lines) != 1 || lines[0].Quantity != MaxQuantity-1 {
		t.Fatalf("rejected add must leave the line alone, got %+v", lines)
	}

	_, err = svc.SetQuantity(ctx, "s1", 1, MaxQuantity+1)
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = svc.Add(ctx, "s1", 2, MaxQuantity+1)
	requireCode(t, err, pkgerrors.CodeValidation)

	lines, err = svc.Add(ctx, "s1", 1, 1)
	if err != nil {
		t.Fatalf("Add up to the cap: %v", err)
	}
	if got := Total(lines); got != 799*int64(MaxQuantity) {
		t.Fatalf("unexpected total %d", got)
	}
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Add(ctx, "s1", 1, 1)
	_, _ = svc.Add(ctx, "s1", 2, 1)

	lines, err := svc.SetQuantity(ctx, "s1", 1, 7)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if lines[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %+v", lines)
	}

	_, err = svc.SetQuantity(ctx, "s1", 3, 2)
	requireCode(t, err, pkgerrors.CodeNotFound)
	if pkgerrors.As(err).Message() != "item not found in cart" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestSetQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, qty := range []int{0, -4} {
		svc, _ := newTestService(t)
		_, _ = svc.Add(ctx, "s1", 1, 3)
		_, _ = svc.Add(ctx, "s1", 2, 1)

		lines, err := svc.SetQuantity(ctx, "s1", 1, qty)
		if err != nil {
			t.Fatalf("SetQuantity(%d): %v", qty, err)
		}
		if len(lines) != 1 || lines[0].ProductID != 2 {
			t.Fatalf("expected only product 2 left, got %+v", lines)
		}
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Add(ctx, "s1", 1, 1)
	_, _ = svc.Add(ctx, "s1", 2, 1)

	lines, err := svc.Remove(ctx, "s1", 1)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != 2 {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestRemoveMissingFailsAndLeavesCartUnchanged(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	before, _ := svc.Add(ctx, "s1", 1, 2)

	_, err := svc.Remove(ctx, "s1", 3)
	requireCode(t, err, pkgerrors.CodeNotFound)

	after, _ := svc.Get(ctx, "s1")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("cart changed after failed remove: before=%+v after=%+v", before, after)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	lines, _ := svc.Add(ctx, "s1", 1, 1)
	lines[0].Quantity = 100

	stored, _ := svc.Get(ctx, "s1")
	if stored[0].Quantity != 1 {
		t.Fatalf("mutating a returned snapshot leaked into the store: %+v", stored)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Add(ctx, "a", 1, 1)
	other, _ := svc.Get(ctx, "b")
	if len(other) != 0 {
		t.Fatalf("expected session b empty, got %+v", other)
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Add(ctx, "s1", 1, 1); err != nil {
				t.Errorf("Add: %v", err)
			}
		}()
	}
	wg.Wait()

	lines, _ := svc.Get(ctx, "s1")
	if len(lines) != 1 || lines[0].Quantity != n {
		t.Fatalf("expected quantity %d, got %+v", n, lines)
	}
}

func TestTransactClearsOnlyOnRequest(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.Add(ctx, "s1", 1, 2)

	boom := errors.New("persist failed")
	err := svc.Transact(ctx, "s1", func(lines []Line) (bool, error) {
		lines[0].Quantity = 99
		return true, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	lines, _ := svc.Get(ctx, "s1")
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("failed transaction must leave cart untouched, got %+v", lines)
	}

	if err := svc.Transact(ctx, "s1", func([]Line) (bool, error) { return true, nil }); err != nil {
		t.Fatalf("Transact: %v", err)
	}
	lines, _ = svc.Get(ctx, "s1")
	if len(lines) != 0 {
		t.Fatalf("expected cleared cart, got %+v", lines)
	}
}

func TestStorageFailuresAreInternal(t *testing.T) {
	t.Parallel()
	store := &failingStore{Store: NewMemoryStore(), saveErr: errors.New("redis down")}
	svc, _ := NewService(store, newStubCatalog(), nil, nil)

	_, err := svc.Add(context.Background(), "s1", 1, 1)
	requireCode(t, err, pkgerrors.CodeInternal)

	store.saveErr = nil
	store.loadErr = errors.New("timeout")
	_, err = svc.Get(context.Background(), "s1")
	requireCode(t, err, pkgerrors.CodeInternal)
}

func TestMetricsObserved(t *testing.T) {
	t.Parallel()
	rec := &recordingMetrics{}
	svc, _ := NewService(NewMemoryStore(), newStubCatalog(), NewLocker(), rec)
	ctx := context.Background()

	_, _ = svc.Add(ctx, "s1", 1, 1)
	_, _ = svc.SetQuantity(ctx, "s1", 1, 2)
	_, _ = svc.Remove(ctx, "s1", 1)
	_ = svc.Clear(ctx, "s1")

	want := []string{OpAdd, OpUpdate, OpRemove, OpClear}
	if !reflect.DeepEqual(rec.ops, want) {
		t.Fatalf("expected ops %v, got %v", want, rec.ops)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := NewService(nil, newStubCatalog(), nil, nil); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := NewService(NewMemoryStore(), nil, nil, nil); err == nil {
		t.Fatal("expected error without catalog")
	}
}
