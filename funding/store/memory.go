// Package store provides funding.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aravind238/funding-sub002/funding"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// tables holds the raw maps; all logic lives here, unlocked. Memory adds
// locking on top, the WithTx view reuses the same methods with the lock
// already held.
type tables struct {
	payees         map[int64]funding.Payee
	clientSettings map[int64]funding.ClientSettings // keyed by client id
	clientPayees   map[int64]funding.ClientPayee
	soas           map[int64]funding.SOA
	reserves       map[int64]funding.ReserveRelease
	disbursements  map[int64]funding.Disbursement
	links          map[int64]funding.ReserveReleaseDisbursement
	nextID         int64
}

func newTables() *tables {
	return &tables{
		payees:         make(map[int64]funding.Payee),
		clientSettings: make(map[int64]funding.ClientSettings),
		clientPayees:   make(map[int64]funding.ClientPayee),
		soas:           make(map[int64]funding.SOA),
		reserves:       make(map[int64]funding.ReserveRelease),
		disbursements:  make(map[int64]funding.Disbursement),
		links:          make(map[int64]funding.ReserveReleaseDisbursement),
	}
}

func (t *tables) id() int64 {
	t.nextID++
	return t.nextID
}

func (t *tables) getPayee(id int64) *funding.Payee {
	p, ok := t.payees[id]
	if !ok || p.IsDeleted {
		return nil
	}
	return &p
}

func (t *tables) savePayee(p *funding.Payee) {
	if p.ID == 0 {
		p.ID = t.id()
	}
	t.payees[p.ID] = *p
}

func (t *tables) listPayees() []funding.Payee {
	var out []funding.Payee
	for _, p := range t.payees {
		if !p.IsDeleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tables) getClientSettings(clientID int64) *funding.ClientSettings {
	cs, ok := t.clientSettings[clientID]
	if !ok || cs.IsDeleted {
		return nil
	}
	return &cs
}

func (t *tables) saveClientSettings(cs *funding.ClientSettings) {
	if cs.ID == 0 {
		cs.ID = t.id()
	}
	t.clientSettings[cs.ClientID] = *cs
}

func (t *tables) getClientPayee(clientID, payeeID int64) *funding.ClientPayee {
	for _, cp := range t.clientPayees {
		if cp.ClientID == clientID && cp.PayeeID == payeeID && !cp.IsDeleted {
			out := cp
			return &out
		}
	}
	return nil
}

func (t *tables) saveClientPayee(cp *funding.ClientPayee) {
	if cp.ID == 0 {
		cp.ID = t.id()
	}
	t.clientPayees[cp.ID] = *cp
}

func (t *tables) getSOA(id int64) *funding.SOA {
	s, ok := t.soas[id]
	if !ok || s.IsDeleted {
		return nil
	}
	return &s
}

func (t *tables) saveSOA(s *funding.SOA) {
	if s.ID == 0 {
		s.ID = t.id()
	}
	t.soas[s.ID] = *s
}

func (t *tables) listSOAs() []funding.SOA {
	var out []funding.SOA
	for _, s := range t.soas {
		if !s.IsDeleted {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tables) getReserveRelease(id int64) *funding.ReserveRelease {
	r, ok := t.reserves[id]
	if !ok || r.IsDeleted {
		return nil
	}
	return &r
}

func (t *tables) saveReserveRelease(r *funding.ReserveRelease) {
	if r.ID == 0 {
		r.ID = t.id()
	}
	t.reserves[r.ID] = *r
}

func (t *tables) listReserveReleases() []funding.ReserveRelease {
	var out []funding.ReserveRelease
	for _, r := range t.reserves {
		if !r.IsDeleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tables) getDisbursement(id int64) *funding.Disbursement {
	d, ok := t.disbursements[id]
	if !ok || d.IsDeleted {
		return nil
	}
	return &d
}

func (t *tables) listDisbursements() []funding.Disbursement {
	var out []funding.Disbursement
	for _, d := range t.disbursements {
		if !d.IsDeleted {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tables) listObligationDisbursements(refType funding.RefType, refID int64) []funding.Disbursement {
	var out []funding.Disbursement
	switch refType {
	case funding.RefSOA:
		for _, d := range t.disbursements {
			if !d.IsDeleted && d.SOAID != nil && *d.SOAID == refID {
				out = append(out, d)
			}
		}
	case funding.RefReserveRelease:
		for _, l := range t.links {
			if l.IsDeleted || l.ReserveReleaseID != refID {
				continue
			}
			d, ok := t.disbursements[l.DisbursementID]
			if ok && !d.IsDeleted {
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tables) saveDisbursement(d *funding.Disbursement) {
	if d.ID == 0 {
		d.ID = t.id()
	}
	t.disbursements[d.ID] = *d
}

func (t *tables) deleteDisbursement(id int64) {
	d, ok := t.disbursements[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	d.IsDeleted = true
	d.DeletedAt = &now
	t.disbursements[id] = d
}

func (t *tables) getLinkByDisbursement(disbursementID int64) *funding.ReserveReleaseDisbursement {
	for _, l := range t.links {
		if l.DisbursementID == disbursementID && !l.IsDeleted {
			out := l
			return &out
		}
	}
	return nil
}

func (t *tables) getLink(disbursementID, reserveReleaseID int64) *funding.ReserveReleaseDisbursement {
	for _, l := range t.links {
		if l.DisbursementID == disbursementID && l.ReserveReleaseID == reserveReleaseID && !l.IsDeleted {
			out := l
			return &out
		}
	}
	return nil
}

func (t *tables) saveLink(l *funding.ReserveReleaseDisbursement) {
	if l.ID == 0 {
		l.ID = t.id()
	}
	t.links[l.ID] = *l
}

func (t *tables) snapshot() *tables {
	cp := newTables()
	cp.nextID = t.nextID
	for k, v := range t.payees {
		cp.payees[k] = v
	}
	for k, v := range t.clientSettings {
		cp.clientSettings[k] = v
	}
	for k, v := range t.clientPayees {
		cp.clientPayees[k] = v
	}
	for k, v := range t.soas {
		cp.soas[k] = v
	}
	for k, v := range t.reserves {
		cp.reserves[k] = v
	}
	for k, v := range t.disbursements {
		cp.disbursements[k] = v
	}
	for k, v := range t.links {
		cp.links[k] = v
	}
	return cp
}

// =============================================================================
// MEMORY - locked wrapper satisfying funding.Store
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	t  *tables
}

func NewMemory() *Memory {
	return &Memory{t: newTables()}
}

func (m *Memory) GetPayee(_ context.Context, id int64) (*funding.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getPayee(id), nil
}

func (m *Memory) SavePayee(_ context.Context, p *funding.Payee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.savePayee(p)
	return nil
}

func (m *Memory) ListPayees(_ context.Context) ([]funding.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.listPayees(), nil
}

func (m *Memory) GetClientSettings(_ context.Context, clientID int64) (*funding.ClientSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getClientSettings(clientID), nil
}

func (m *Memory) SaveClientSettings(_ context.Context, cs *funding.ClientSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveClientSettings(cs)
	return nil
}

func (m *Memory) GetClientPayee(_ context.Context, clientID, payeeID int64) (*funding.ClientPayee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getClientPayee(clientID, payeeID), nil
}

func (m *Memory) SaveClientPayee(_ context.Context, cp *funding.ClientPayee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveClientPayee(cp)
	return nil
}

func (m *Memory) GetSOA(_ context.Context, id int64) (*funding.SOA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getSOA(id), nil
}

func (m *Memory) SaveSOA(_ context.Context, s *funding.SOA) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveSOA(s)
	return nil
}

func (m *Memory) ListSOAs(_ context.Context) ([]funding.SOA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.listSOAs(), nil
}

func (m *Memory) GetReserveRelease(_ context.Context, id int64) (*funding.ReserveRelease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getReserveRelease(id), nil
}

func (m *Memory) SaveReserveRelease(_ context.Context, r *funding.ReserveRelease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveReserveRelease(r)
	return nil
}

func (m *Memory) ListReserveReleases(_ context.Context) ([]funding.ReserveRelease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.listReserveReleases(), nil
}

func (m *Memory) GetDisbursement(_ context.Context, id int64) (*funding.Disbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getDisbursement(id), nil
}

func (m *Memory) ListDisbursements(_ context.Context) ([]funding.Disbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.listDisbursements(), nil
}

func (m *Memory) ListObligationDisbursements(_ context.Context, refType funding.RefType, refID int64) ([]funding.Disbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.listObligationDisbursements(refType, refID), nil
}

func (m *Memory) SaveDisbursement(_ context.Context, d *funding.Disbursement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveDisbursement(d)
	return nil
}

func (m *Memory) DeleteDisbursement(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.deleteDisbursement(id)
	return nil
}

func (m *Memory) GetLinkByDisbursement(_ context.Context, disbursementID int64) (*funding.ReserveReleaseDisbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getLinkByDisbursement(disbursementID), nil
}

func (m *Memory) GetLink(_ context.Context, disbursementID, reserveReleaseID int64) (*funding.ReserveReleaseDisbursement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.t.getLink(disbursementID, reserveReleaseID), nil
}

func (m *Memory) SaveLink(_ context.Context, l *funding.ReserveReleaseDisbursement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t.saveLink(l)
	return nil
}

// WithTx executes fn within a transaction, simulated with a snapshot +
// rollback on error. fn receives an unlocked view; the store lock is
// held for the duration.
func (m *Memory) WithTx(ctx context.Context, fn func(funding.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.t.snapshot()
	if err := fn(&txView{t: m.t}); err != nil {
		m.t = snap
		return err
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL VIEW - lock already held
// =============================================================================

type txView struct {
	t *tables
}

func (v *txView) GetPayee(_ context.Context, id int64) (*funding.Payee, error) {
	return v.t.getPayee(id), nil
}

func (v *txView) SavePayee(_ context.Context, p *funding.Payee) error {
	v.t.savePayee(p)
	return nil
}

func (v *txView) ListPayees(_ context.Context) ([]funding.Payee, error) {
	return v.t.listPayees(), nil
}

func (v *txView) GetClientSettings(_ context.Context, clientID int64) (*funding.ClientSettings, error) {
	return v.t.getClientSettings(clientID), nil
}

func (v *txView) SaveClientSettings(_ context.Context, cs *funding.ClientSettings) error {
	v.t.saveClientSettings(cs)
	return nil
}

func (v *txView) GetClientPayee(_ context.Context, clientID, payeeID int64) (*funding.ClientPayee, error) {
	return v.t.getClientPayee(clientID, payeeID), nil
}

func (v *txView) SaveClientPayee(_ context.Context, cp *funding.ClientPayee) error {
	v.t.saveClientPayee(cp)
	return nil
}

func (v *txView) GetSOA(_ context.Context, id int64) (*funding.SOA, error) {
	return v.t.getSOA(id), nil
}

func (v *txView) SaveSOA(_ context.Context, s *funding.SOA) error {
	v.t.saveSOA(s)
	return nil
}

func (v *txView) ListSOAs(_ context.Context) ([]funding.SOA, error) {
	return v.t.listSOAs(), nil
}

func (v *txView) GetReserveRelease(_ context.Context, id int64) (*funding.ReserveRelease, error) {
	return v.t.getReserveRelease(id), nil
}

func (v *txView) SaveReserveRelease(_ context.Context, r *funding.ReserveRelease) error {
	v.t.saveReserveRelease(r)
	return nil
}

func (v *txView) ListReserveReleases(_ context.Context) ([]funding.ReserveRelease, error) {
	return v.t.listReserveReleases(), nil
}

func (v *txView) GetDisbursement(_ context.Context, id int64) (*funding.Disbursement, error) {
	return v.t.getDisbursement(id), nil
}

func (v *txView) ListDisbursements(_ context.Context) ([]funding.Disbursement, error) {
	return v.t.listDisbursements(), nil
}

func (v *txView) ListObligationDisbursements(_ context.Context, refType funding.RefType, refID int64) ([]funding.Disbursement, error) {
	return v.t.listObligationDisbursements(refType, refID), nil
}

func (v *txView) SaveDisbursement(_ context.Context, d *funding.Disbursement) error {
	v.t.saveDisbursement(d)
	return nil
}

func (v *txView) DeleteDisbursement(_ context.Context, id int64) error {
	v.t.deleteDisbursement(id)
	return nil
}

func (v *txView) GetLinkByDisbursement(_ context.Context, disbursementID int64) (*funding.ReserveReleaseDisbursement, error) {
	return v.t.getLinkByDisbursement(disbursementID), nil
}

func (v *txView) GetLink(_ context.Context, disbursementID, reserveReleaseID int64) (*funding.ReserveReleaseDisbursement, error) {
	return v.t.getLink(disbursementID, reserveReleaseID), nil
}

func (v *txView) SaveLink(_ context.Context, l *funding.ReserveReleaseDisbursement) error {
	v.t.saveLink(l)
	return nil
}

// WithTx on an already-transactional view just runs fn against itself.
func (v *txView) WithTx(_ context.Context, fn func(funding.Store) error) error {
	return fn(v)
}

// Compile-time interface checks.
var (
	_ funding.Store = (*Memory)(nil)
	_ funding.Store = (*txView)(nil)
)
