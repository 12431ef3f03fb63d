package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ ledger.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria con control optimista: cada unidad atómica registra
// las versiones leídas y al confirmar las valida bajo el mutex; si alguna cambió, descarta todo.
type Store struct {
	mu          sync.RWMutex
	products    map[string]entity.Product
	skus        map[string]string
	movements   []entity.Movement
	orders      map[string]entity.PurchaseOrder
	adjustments map[string]entity.StockAdjustment
	sales       map[string]entity.Sale
	transitions []entity.StatusTransition
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]entity.Product),
		skus:        make(map[string]string),
		orders:      make(map[string]entity.PurchaseOrder),
		adjustments: make(map[string]entity.StockAdjustment),
		sales:       make(map[string]entity.Sale),
	}
}

// unit cambios pendientes de una unidad atómica.
type unit struct {
	s *Store

	products     map[string]entity.Product
	productReads map[string]int64 // versión vista; -1 = debía no existir
	orders       map[string]entity.PurchaseOrder
	orderReads   map[string]int64
	adjustments  map[string]entity.StockAdjustment
	adjReads     map[string]int64
	movements    []entity.Movement
	sales        []entity.Sale
	transitions  []entity.StatusTransition
}

func (s *Store) newUnit() *unit {
	return &unit{
		s:            s,
		products:     make(map[string]entity.Product),
		productReads: make(map[string]int64),
		orders:       make(map[string]entity.PurchaseOrder),
		orderReads:   make(map[string]int64),
		adjustments:  make(map[string]entity.StockAdjustment),
		adjReads:     make(map[string]int64),
	}
}

// runner ejecuta una operación de repositorio sobre una unidad.
type runner func(fn func(u *unit) error) error

func (s *Store) autocommit(fn func(u *unit) error) error {
	u := s.newUnit()
	if err := fn(u); err != nil {
		return err
	}
	return u.commit()
}

func (u *unit) inTx(fn func(u *unit) error) error {
	return fn(u)
}

// Run ejecuta fn con repositorios atados a una unidad nueva y la confirma si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(repos ledger.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := s.newUnit()
	if err := fn(newRepos(u.inTx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.commit()
}

func newRepos(run runner) ledger.TxRepos {
	return ledger.TxRepos{
		Products:       &productRepo{run: run},
		Movements:      &movementRepo{run: run},
		PurchaseOrders: &purchaseOrderRepo{run: run},
		Adjustments:    &adjustmentRepo{run: run},
		Sales:          &saleRepo{run: run},
		Transitions:    &transitionRepo{run: run},
	}
}

// Repos devuelve repositorios de confirmación inmediata (fuera de una unidad atómica).
func (s *Store) Repos() ledger.TxRepos {
	return newRepos(s.autocommit)
}

func (u *unit) commit() error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, v := range u.productReads {
		if !sameVersion(s.products, id, v, func(p entity.Product) int64 { return p.Version }) {
			return domain.ErrConcurrencyConflict
		}
	}
	for id, v := range u.orderReads {
		if !sameVersion(s.orders, id, v, func(p entity.PurchaseOrder) int64 { return p.Version }) {
			return domain.ErrConcurrencyConflict
		}
	}
	for id, v := range u.adjReads {
		if !sameVersion(s.adjustments, id, v, func(a entity.StockAdjustment) int64 { return a.Version }) {
			return domain.ErrConcurrencyConflict
		}
	}
	for id, p := range u.products {
		if owner, ok := s.skus[p.SKU]; ok && owner != id {
			return domain.ErrDuplicate
		}
	}
	for id, po := range u.orders {
		if s.poNumberTakenLocked(po.PONumber, id) {
			return domain.ErrDuplicate
		}
	}

	for id, p := range u.products {
		if prev, ok := s.products[id]; ok && prev.SKU != p.SKU {
			delete(s.skus, prev.SKU)
		}
		s.products[id] = p
		s.skus[p.SKU] = id
	}
	for id, po := range u.orders {
		s.orders[id] = po
	}
	for id, adj := range u.adjustments {
		s.adjustments[id] = adj
	}
	for _, sale := range u.sales {
		s.sales[sale.ID] = sale
	}
	s.movements = append(s.movements, u.movements...)
	s.transitions = append(s.transitions, u.transitions...)
	return nil
}

func sameVersion[T any](m map[string]T, id string, want int64, version func(T) int64) bool {
	cur, ok := m[id]
	if want < 0 {
		return !ok
	}
	return ok && version(cur) == want
}

// lookup devuelve la versión pendiente o la confirmada, y registra la lectura.
func lookup[T any](u *unit, staged map[string]T, committed func() map[string]T, reads map[string]int64, id string, version func(T) int64) (T, bool) {
	if v, ok := staged[id]; ok {
		return v, true
	}
	u.s.mu.RLock()
	v, ok := committed()[id]
	u.s.mu.RUnlock()
	if _, seen := reads[id]; !seen && reads != nil {
		if ok {
			reads[id] = version(v)
		} else {
			reads[id] = -1
		}
	}
	return v, ok
}
