package transfers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/transfers-api/internal/application/dto"
	"github.com/invorya/transfers-api/internal/application/transfers"
	"github.com/invorya/transfers-api/internal/domain"
	"github.com/invorya/transfers-api/internal/domain/entity"
	"github.com/invorya/transfers-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
//
// El fakeTxRunner clona el store completo antes de ejecutar el callback y solo
// publica el clon si el callback termina sin error: eso reproduce la semántica
// commit/rollback real. El mutex serializa las transacciones, igual que lo
// hacen los locks de fila en PostgreSQL.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	transfers map[string]*entity.Transfer
	stock     map[string]*entity.Stock
	movements []*entity.StockMovement
	audits    []*entity.AuditEntry
	seq       map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		transfers: make(map[string]*entity.Transfer),
		stock:     make(map[string]*entity.Stock),
		seq:       make(map[string]int64),
	}
}

func cloneTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.Items = append([]entity.TransferItem(nil), t.Items...)
	if t.ShippedAt != nil {
		ts := *t.ShippedAt
		c.ShippedAt = &ts
	}
	if t.ReceivedAt != nil {
		ts := *t.ReceivedAt
		c.ReceivedAt = &ts
	}
	return &c
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, t := range s.transfers {
		c.transfers[id] = cloneTransfer(t)
	}
	for k, st := range s.stock {
		cp := *st
		c.stock[k] = &cp
	}
	c.movements = append([]*entity.StockMovement(nil), s.movements...)
	c.audits = append([]*entity.AuditEntry(nil), s.audits...)
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

func stockKey(branchID, productID string) string { return branchID + "|" + productID }

type fakeTxRunner struct {
	mu    sync.Mutex
	store *memStore
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	transferRepo repository.TransferRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.store.clone()
	err := fn(&fakeTransferRepo{s: work}, &fakeStockRepo{s: work}, &fakeMovementRepo{s: work}, &fakeAuditRepo{s: work})
	if err != nil {
		return err // rollback: el clon se descarta
	}
	r.store = work // commit
	return nil
}

// ── fakeTransferRepo ──────────────────────────────────────────────────────────

type fakeTransferRepo struct{ s *memStore }

func (r *fakeTransferRepo) Create(t *entity.Transfer) error {
	r.s.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *fakeTransferRepo) GetByID(id string) (*entity.Transfer, error) {
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(t), nil
}

func (r *fakeTransferRepo) GetByIDForUpdate(id string) (*entity.Transfer, error) {
	return r.GetByID(id)
}

func (r *fakeTransferRepo) UpdateStatus(id, fromStatus, toStatus string, shippedAt, receivedAt *time.Time) error {
	t, ok := r.s.transfers[id]
	if !ok || t.Status != fromStatus {
		return domain.ErrConflict
	}
	t.Status = toStatus
	if shippedAt != nil && t.ShippedAt == nil {
		ts := *shippedAt
		t.ShippedAt = &ts
	}
	if receivedAt != nil && t.ReceivedAt == nil {
		ts := *receivedAt
		t.ReceivedAt = &ts
	}
	return nil
}

func (r *fakeTransferRepo) UpdateItemReceived(itemID string, receivedQty int64) error {
	for _, t := range r.s.transfers {
		for i := range t.Items {
			if t.Items[i].ID == itemID {
				t.Items[i].ReceivedQty = receivedQty
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakeTransferRepo) List(filter repository.TransferFilter) ([]*entity.Transfer, error) {
	var list []*entity.Transfer
	for _, t := range r.s.transfers {
		if t.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.BranchID != "" && t.FromBranchID != filter.BranchID && t.ToBranchID != filter.BranchID {
			continue
		}
		list = append(list, cloneTransfer(t))
	}
	return list, nil
}

func (r *fakeTransferRepo) NextTransferNumber(companyID string) (string, error) {
	r.s.seq[companyID]++
	return formatTransferNumber(r.s.seq[companyID]), nil
}

func formatTransferNumber(n int64) string {
	digits := []byte("000000")
	for i := len(digits) - 1; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return "TR-" + string(digits)
}

// ── fakeStockRepo ─────────────────────────────────────────────────────────────

type fakeStockRepo struct{ s *memStore }

func (r *fakeStockRepo) Get(branchID, productID string) (*entity.Stock, error) {
	if st, ok := r.s.stock[stockKey(branchID, productID)]; ok {
		cp := *st
		return &cp, nil
	}
	return &entity.Stock{BranchID: branchID, ProductID: productID}, nil
}

// GetForUpdate materializa la fila con cantidad cero si no existe, igual que
// el adaptador de PostgreSQL. El mutex del fakeTxRunner serializa las
// transacciones completas, así que la carrera de primera-recepción que la
// materialización previene solo es observable contra la base real; aquí se
// verifica la semántica resultante (ninguna unidad se pierde).
func (r *fakeStockRepo) GetForUpdate(branchID, productID string) (*entity.Stock, error) {
	key := stockKey(branchID, productID)
	if _, ok := r.s.stock[key]; !ok {
		r.s.stock[key] = &entity.Stock{BranchID: branchID, ProductID: productID}
	}
	cp := *r.s.stock[key]
	return &cp, nil
}

func (r *fakeStockRepo) Upsert(stock *entity.Stock) error {
	cp := *stock
	r.s.stock[stockKey(stock.BranchID, stock.ProductID)] = &cp
	return nil
}

// ── fakeMovementRepo / fakeAuditRepo ──────────────────────────────────────────

type fakeMovementRepo struct{ s *memStore }

func (r *fakeMovementRepo) Create(m *entity.StockMovement) error {
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *fakeMovementRepo) ListByTransfer(transferID string) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.TransferID == transferID {
			list = append(list, m)
		}
	}
	return list, nil
}

func (r *fakeMovementRepo) ListByBranch(branchID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.BranchID == branchID {
			list = append(list, m)
		}
	}
	return list, nil
}

type fakeAuditRepo struct{ s *memStore }

func (r *fakeAuditRepo) Create(e *entity.AuditEntry) error {
	cp := *e
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r *fakeAuditRepo) ListByTransfer(transferID string) ([]*entity.AuditEntry, error) {
	var list []*entity.AuditEntry
	for _, e := range r.s.audits {
		if e.TransferID == transferID {
			list = append(list, e)
		}
	}
	return list, nil
}

// ── catálogos de solo lectura ─────────────────────────────────────────────────

type fakeBranchRepo struct{ branches map[string]*entity.Branch }

func (r *fakeBranchRepo) Create(b *entity.Branch) error { r.branches[b.ID] = b; return nil }
func (r *fakeBranchRepo) GetByID(id string) (*entity.Branch, error) {
	return r.branches[id], nil
}
func (r *fakeBranchRepo) Update(b *entity.Branch) error { r.branches[b.ID] = b; return nil }
func (r *fakeBranchRepo) ListByCompany(string, int, int) ([]*entity.Branch, error) {
	return nil, nil
}

type fakeProductRepo struct{ products map[string]*entity.Product }

func (r *fakeProductRepo) Create(p *entity.Product) error { r.products[p.ID] = p; return nil }
func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) GetBySKU(string, string) (*entity.Product, error) { return nil, nil }
func (r *fakeProductRepo) ListByCompany(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *fakeBroadcaster) Publish(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID = "c-1"
	userID    = "u-1"
	fromID    = "b-origen"
	toID      = "b-destino"
	otherCo   = "c-ajena"
)

type fixture struct {
	runner *fakeTxRunner
	events *fakeBroadcaster
	uc     *transfers.LifecycleUseCase
}

func newFixture() *fixture {
	branches := &fakeBranchRepo{branches: map[string]*entity.Branch{
		fromID:    {ID: fromID, CompanyID: companyID, Name: "Bodega Central"},
		toID:      {ID: toID, CompanyID: companyID, Name: "Sucursal Norte"},
		"b-ajena": {ID: "b-ajena", CompanyID: otherCo, Name: "Otra empresa"},
	}}
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p-1":    {ID: "p-1", CompanyID: companyID, SKU: "SKU-1", Name: "Tornillo"},
		"p-2":    {ID: "p-2", CompanyID: companyID, SKU: "SKU-2", Name: "Tuerca"},
		"p-serv": {ID: "p-serv", CompanyID: companyID, SKU: "SRV-1", Name: "Instalación", IsService: true},
	}}
	runner := &fakeTxRunner{store: newMemStore()}
	events := &fakeBroadcaster{}
	return &fixture{
		runner: runner,
		events: events,
		uc:     transfers.NewLifecycleUseCase(runner, branches, products, events),
	}
}

func (f *fixture) setStock(branchID, productID string, qty int64) {
	f.runner.store.stock[stockKey(branchID, productID)] = &entity.Stock{
		BranchID: branchID, ProductID: productID, Quantity: qty,
	}
}

func (f *fixture) stockQty(branchID, productID string) int64 {
	if st, ok := f.runner.store.stock[stockKey(branchID, productID)]; ok {
		return st.Quantity
	}
	return 0
}

func (f *fixture) transfer(id string) *entity.Transfer {
	return f.runner.store.transfers[id]
}

// seedTransfer inserta un traslado directo en el store, saltándose Create.
func (f *fixture) seedTransfer(status string, items ...entity.TransferItem) *entity.Transfer {
	t := &entity.Transfer{
		ID:             uuid.New().String(),
		TransferNumber: "TR-000099",
		CompanyID:      companyID,
		FromBranchID:   fromID,
		ToBranchID:     toID,
		Status:         status,
		InitiatedBy:    userID,
		CreatedAt:      time.Now(),
	}
	for i := range items {
		items[i].TransferID = t.ID
	}
	t.Items = items
	f.runner.store.transfers[t.ID] = t
	return t
}

func createReq(items ...dto.CreateTransferItem) dto.CreateTransferRequest {
	return dto.CreateTransferRequest{FromBranchID: fromID, ToBranchID: toID, Items: items}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_QuedaEnPendingSinTocarStock(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 10)

	out, err := f.uc.Create(context.Background(), companyID, userID, createReq(
		dto.CreateTransferItem{ProductID: "p-1", Quantity: 4},
		dto.CreateTransferItem{ProductID: "p-2", Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusPending, out.Status)
	assert.Equal(t, "TR-000001", out.TransferNumber, "el primer traslado de la empresa lleva el consecutivo 1")
	assert.Len(t, out.Items, 2)
	assert.Equal(t, int64(10), f.stockQty(fromID, "p-1"), "crear no debe descontar stock")
	assert.Equal(t, 1, f.events.count(), "debe publicarse el evento de creación")

	audits := f.runner.store.audits
	require.Len(t, audits, 1)
	assert.Equal(t, entity.AuditActionTransferCreate, audits[0].Action)
}

func TestCreate_ConsecutivoPorEmpresa(t *testing.T) {
	f := newFixture()
	req := createReq(dto.CreateTransferItem{ProductID: "p-1", Quantity: 1})

	first, err := f.uc.Create(context.Background(), companyID, userID, req)
	require.NoError(t, err)
	second, err := f.uc.Create(context.Background(), companyID, userID, req)
	require.NoError(t, err)

	assert.Equal(t, "TR-000001", first.TransferNumber)
	assert.Equal(t, "TR-000002", second.TransferNumber, "el consecutivo nunca se repite")
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	casos := []struct {
		nombre string
		req    dto.CreateTransferRequest
	}{
		{"origen igual a destino", dto.CreateTransferRequest{
			FromBranchID: fromID, ToBranchID: fromID,
			Items: []dto.CreateTransferItem{{ProductID: "p-1", Quantity: 1}},
		}},
		{"sin items", dto.CreateTransferRequest{FromBranchID: fromID, ToBranchID: toID}},
		{"cantidad cero", createReq(dto.CreateTransferItem{ProductID: "p-1", Quantity: 0})},
		{"cantidad negativa", createReq(dto.CreateTransferItem{ProductID: "p-1", Quantity: -3})},
		{"producto repetido", createReq(
			dto.CreateTransferItem{ProductID: "p-1", Quantity: 1},
			dto.CreateTransferItem{ProductID: "p-1", Quantity: 2},
		)},
		{"producto desconocido", createReq(dto.CreateTransferItem{ProductID: "p-nope", Quantity: 1})},
		{"producto de servicio", createReq(dto.CreateTransferItem{ProductID: "p-serv", Quantity: 1})},
		{"sucursal ajena", dto.CreateTransferRequest{
			FromBranchID: "b-ajena", ToBranchID: toID,
			Items: []dto.CreateTransferItem{{ProductID: "p-1", Quantity: 1}},
		}},
	}
	for _, c := range casos {
		_, err := f.uc.Create(ctx, companyID, userID, c.req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "caso: %s", c.nombre)
	}
	assert.Empty(t, f.runner.store.transfers, "ninguna validación fallida debe persistir nada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ship
// ──────────────────────────────────────────────────────────────────────────────

func TestShip_DescuentaOrigenYPasaATransito(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 10)
	f.setStock(fromID, "p-2", 5)
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 4},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 5},
	)

	out, err := f.uc.Ship(context.Background(), companyID, userID, tr.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusInTransit, out.Status)
	assert.NotNil(t, out.ShippedAt, "debe registrarse la fecha de despacho")
	assert.Equal(t, int64(6), f.stockQty(fromID, "p-1"))
	assert.Equal(t, int64(0), f.stockQty(fromID, "p-2"), "despachar todo el stock deja el origen en cero, no en negativo")
	assert.Equal(t, int64(0), f.stockQty(toID, "p-1"), "el destino no se incrementa hasta recibir")

	movs := f.runner.store.movements
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementReasonShip, m.Reason)
		assert.Negative(t, m.Quantity, "los movimientos de despacho llevan delta negativo")
	}
}

func TestShip_TodoONada_ListaTodosLosFaltantes(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 3) // falta: necesita 4
	f.setStock(fromID, "p-2", 1) // falta: necesita 5
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 4},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 5},
	)

	_, err := f.uc.Ship(context.Background(), companyID, userID, tr.ID)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ElementsMatch(t, []string{"p-1", "p-2"}, stockErr.ProductIDs,
		"el error debe listar todos los productos con faltante, no solo el primero")

	assert.Equal(t, int64(3), f.stockQty(fromID, "p-1"), "no debe descontarse nada")
	assert.Equal(t, int64(1), f.stockQty(fromID, "p-2"))
	assert.Equal(t, entity.TransferStatusPending, f.transfer(tr.ID).Status, "el traslado sigue en PENDING")
	assert.Empty(t, f.runner.store.movements)
}

func TestShip_ParcialInsuficiente_NoDescuentaElQueSiAlcanza(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 100) // sobra
	f.setStock(fromID, "p-2", 0)   // falta
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 4},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 5},
	)

	_, err := f.uc.Ship(context.Background(), companyID, userID, tr.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(100), f.stockQty(fromID, "p-1"),
		"aunque p-1 alcanzaba, el despacho es atómico y no toca nada")
}

func TestShip_EstadosInvalidos(t *testing.T) {
	f := newFixture()
	for _, status := range []string{entity.TransferStatusInTransit, entity.TransferStatusReceived, entity.TransferStatusCancelled} {
		tr := f.seedTransfer(status, entity.TransferItem{ID: uuid.New().String(), ProductID: "p-1", Quantity: 1})
		_, err := f.uc.Ship(context.Background(), companyID, userID, tr.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransferState, "ship en estado %s", status)
	}
}

func TestShip_TrasladoAjeno(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusPending, entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 1})
	_, err := f.uc.Ship(context.Background(), otherCo, userID, tr.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestShip_NoExiste(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Ship(context.Background(), companyID, userID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Receive
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_ParcialAcumulaYSigueEnTransito(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 10},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 4},
	)

	out, err := f.uc.Receive(context.Background(), companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 6}},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusInTransit, out.Status, "con cantidades pendientes sigue IN_TRANSIT")
	assert.Equal(t, int64(6), f.stockQty(toID, "p-1"))
	assert.Equal(t, int64(0), f.stockQty(toID, "p-2"), "ítems no incluidos no se tocan")
	assert.InDelta(t, 6.0/14.0, out.Completion, 1e-9)
}

func TestReceive_RepetibleHastaCompletar(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 10},
	)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 4}},
	})
	require.NoError(t, err)

	out, err := f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 6}},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusReceived, out.Status, "al completar todas las líneas pasa a RECEIVED")
	assert.NotNil(t, out.ReceivedAt)
	assert.Equal(t, int64(10), f.stockQty(toID, "p-1"))

	// Ya terminal: una tercera recepción debe rechazarse.
	_, err = f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransferState)
	assert.Equal(t, int64(10), f.stockQty(toID, "p-1"), "un traslado RECEIVED es inmutable")
}

func TestReceive_SobreRecepcionRechazadaSinAplicarNada(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 10, ReceivedQty: 7},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 4},
	)

	_, err := f.uc.Receive(context.Background(), companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{
			{ItemID: "i-2", Quantity: 2}, // válida
			{ItemID: "i-1", Quantity: 4}, // excede: pendiente 3
		},
	})
	require.Error(t, err)

	var overErr *domain.OverReceiptError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, "i-1", overErr.ItemID)
	assert.Equal(t, int64(4), overErr.Requested)
	assert.Equal(t, int64(3), overErr.Remaining)

	assert.Equal(t, int64(0), f.stockQty(toID, "p-2"),
		"la línea válida tampoco se aplica: la recepción es atómica")
	assert.Equal(t, int64(7), f.transfer(tr.ID).Items[0].ReceivedQty)
}

func TestReceive_LineasInvalidas(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 5},
	)
	ctx := context.Background()

	casos := []struct {
		nombre string
		lines  []dto.ReceiveTransferLine
	}{
		{"sin líneas", nil},
		{"cantidad cero", []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 0}}},
		{"ítem desconocido", []dto.ReceiveTransferLine{{ItemID: "i-fantasma", Quantity: 1}}},
		{"ítem repetido", []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 1}, {ItemID: "i-1", Quantity: 1}}},
	}
	for _, c := range casos {
		_, err := f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{Lines: c.lines})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "caso: %s", c.nombre)
	}
	assert.Equal(t, int64(0), f.stockQty(toID, "p-1"))
}

func TestReceive_DesdePendingRechazado(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 5},
	)
	_, err := f.uc.Receive(context.Background(), companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransferState,
		"no se puede recibir lo que no se ha despachado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_PendingNoTocaStock(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 10)
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 4},
	)

	out, err := f.uc.Cancel(context.Background(), companyID, userID, tr.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusCancelled, out.Status)
	assert.Equal(t, int64(10), f.stockQty(fromID, "p-1"), "en PENDING nunca se descontó, no hay nada que reponer")
	assert.Empty(t, f.runner.store.movements)
}

func TestCancel_EnTransitoReponeElOrigen(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 10)
	f.setStock(fromID, "p-2", 5)
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 4},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 5},
	)
	ctx := context.Background()

	_, err := f.uc.Ship(ctx, companyID, userID, tr.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), f.stockQty(fromID, "p-1"))

	out, err := f.uc.Cancel(ctx, companyID, userID, tr.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusCancelled, out.Status)
	assert.Equal(t, int64(10), f.stockQty(fromID, "p-1"), "la cancelación repone todo lo despachado")
	assert.Equal(t, int64(5), f.stockQty(fromID, "p-2"))
	assert.Equal(t, int64(0), f.stockQty(toID, "p-1"), "el destino nunca recibió nada")

	var restocks int
	for _, m := range f.runner.store.movements {
		if m.Reason == entity.MovementReasonCancelRestock {
			restocks++
			assert.Positive(t, m.Quantity)
		}
	}
	assert.Equal(t, 2, restocks, "debe haber un movimiento de reposición por ítem")
}

func TestCancel_ConRecepcionParcialRechazado(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 10},
	)
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = f.uc.Cancel(ctx, companyID, userID, tr.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransferState,
		"un traslado con recepciones parciales no se puede cancelar")
	assert.Equal(t, entity.TransferStatusInTransit, f.transfer(tr.ID).Status)
}

func TestCancel_EstadosTerminales(t *testing.T) {
	f := newFixture()
	for _, status := range []string{entity.TransferStatusReceived, entity.TransferStatusCancelled} {
		tr := f.seedTransfer(status, entity.TransferItem{ID: uuid.New().String(), ProductID: "p-1", Quantity: 1})
		_, err := f.uc.Cancel(context.Background(), companyID, userID, tr.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransferState, "cancel en estado %s", status)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades del libro de stock
// ──────────────────────────────────────────────────────────────────────────────

// La suma de unidades (origen + destino + en tránsito) es invariante a través
// de todo el ciclo ship → receive parcial → receive final.
func TestConservacionDeUnidades(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 20)
	tr := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 8},
	)
	ctx := context.Background()

	total := func() int64 {
		inTransit := int64(0)
		if cur := f.transfer(tr.ID); cur != nil && cur.Status == entity.TransferStatusInTransit {
			for _, it := range cur.Items {
				inTransit += it.Quantity - it.ReceivedQty
			}
		}
		return f.stockQty(fromID, "p-1") + f.stockQty(toID, "p-1") + inTransit
	}

	require.Equal(t, int64(20), total())

	_, err := f.uc.Ship(ctx, companyID, userID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), total(), "tras despachar")

	_, err = f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), total(), "tras recepción parcial")

	_, err = f.uc.Receive(ctx, companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{{ItemID: "i-1", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), total(), "tras recepción final")
	assert.Equal(t, int64(12), f.stockQty(fromID, "p-1"))
	assert.Equal(t, int64(8), f.stockQty(toID, "p-1"))
}

// Dos despachos concurrentes compitiendo por el mismo stock: solo uno gana.
// Con 10 en mano y dos traslados de 6, exactamente uno despacha y el stock
// final es 4 — nunca negativo, nunca doble descuento.
func TestShip_CarreraConcurrentePorElMismoStock(t *testing.T) {
	f := newFixture()
	f.setStock(fromID, "p-1", 10)
	tr1 := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-a", ProductID: "p-1", Quantity: 6},
	)
	tr2 := f.seedTransfer(entity.TransferStatusPending,
		entity.TransferItem{ID: "i-b", ProductID: "p-1", Quantity: 6},
	)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []string{tr1.ID, tr2.ID} {
		wg.Add(1)
		go func(transferID string) {
			defer wg.Done()
			_, err := f.uc.Ship(context.Background(), companyID, userID, transferID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var oks, insufficient int
	for err := range errs {
		if err == nil {
			oks++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		insufficient++
	}
	assert.Equal(t, 1, oks, "exactamente un despacho debe ganar")
	assert.Equal(t, 1, insufficient, "el otro debe fallar por stock insuficiente")
	assert.Equal(t, int64(4), f.stockQty(fromID, "p-1"), "10 - 6 = 4, sin doble descuento")
	assert.GreaterOrEqual(t, f.stockQty(fromID, "p-1"), int64(0), "el stock nunca queda negativo")
}

// Dos recepciones concurrentes del primer lote de un producto en una sucursal
// que nunca tuvo fila de stock: las dos deben sumar. Si la fila no se
// materializara antes de bloquear, la segunda en confirmar pisaría a la primera.
func TestReceive_PrimerasRecepcionesConcurrentesNoPierdenUnidades(t *testing.T) {
	f := newFixture()
	tr1 := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-a", ProductID: "p-1", Quantity: 5},
	)
	tr2 := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-b", ProductID: "p-1", Quantity: 3},
	)

	type recepcion struct {
		transferID string
		itemID     string
		qty        int64
	}
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, rec := range []recepcion{
		{tr1.ID, "i-a", 5},
		{tr2.ID, "i-b", 3},
	} {
		wg.Add(1)
		go func(rec recepcion) {
			defer wg.Done()
			_, err := f.uc.Receive(context.Background(), companyID, userID, rec.transferID, dto.ReceiveTransferRequest{
				Lines: []dto.ReceiveTransferLine{{ItemID: rec.itemID, Quantity: rec.qty}},
			})
			errs <- err
		}(rec)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(8), f.stockQty(toID, "p-1"),
		"5 + 3 = 8: ninguna recepción puede pisar a la otra")
}

// Las líneas de recepción se aplican en orden de producto sin importar el
// orden del body, igual que el despacho bloquea en orden determinista.
func TestReceive_AplicaLineasEnOrdenDeProducto(t *testing.T) {
	f := newFixture()
	tr := f.seedTransfer(entity.TransferStatusInTransit,
		entity.TransferItem{ID: "i-1", ProductID: "p-1", Quantity: 5},
		entity.TransferItem{ID: "i-2", ProductID: "p-2", Quantity: 5},
	)

	_, err := f.uc.Receive(context.Background(), companyID, userID, tr.ID, dto.ReceiveTransferRequest{
		Lines: []dto.ReceiveTransferLine{
			{ItemID: "i-2", Quantity: 2}, // p-2 primero a propósito
			{ItemID: "i-1", Quantity: 3},
		},
	})
	require.NoError(t, err)

	movs := f.runner.store.movements
	require.Len(t, movs, 2)
	assert.Equal(t, "p-1", movs[0].ProductID,
		"las filas de destino se procesan en orden de producto, no en el orden del body")
	assert.Equal(t, "p-2", movs[1].ProductID)
	assert.Equal(t, int64(3), f.stockQty(toID, "p-1"))
	assert.Equal(t, int64(2), f.stockQty(toID, "p-2"))
}
