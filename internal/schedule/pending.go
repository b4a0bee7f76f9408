// Package schedule tracks maintenance events the operator just submitted
// but the upstream API has not yet returned in history fetches. Entries are
// optimistic: they sit in front of authoritative history until the server
// echoes them back, then retire.
package schedule

import (
	"sync"

	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

// PendingStore holds per-equipment optimistic schedule entries.
type PendingStore struct {
	mu      sync.Mutex
	pending map[string][]pdm.MaintenanceRecord
}

func NewPendingStore() *PendingStore {
	return &PendingStore{pending: map[string][]pdm.MaintenanceRecord{}}
}

// Add records a freshly scheduled event for its equipment.
func (s *PendingStore) Add(rec pdm.MaintenanceRecord) {
	if rec.EquipmentID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[rec.EquipmentID] = append(s.pending[rec.EquipmentID], rec)
}

// Reconcile merges pending entries with an authoritative history fetch.
// Entries the server now returns are retired; the rest are prepended so the
// operator keeps seeing what they just scheduled. Matching is by id first,
// then by date plus type for servers that reassign ids.
func (s *PendingStore) Reconcile(equipmentID string, fetched []pdm.MaintenanceRecord) []pdm.MaintenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.pending[equipmentID]
	if len(entries) == 0 {
		return fetched
	}

	stillPending := entries[:0]
	for _, entry := range entries {
		if containsRecord(fetched, entry) {
			continue
		}
		stillPending = append(stillPending, entry)
	}

	if len(stillPending) == 0 {
		delete(s.pending, equipmentID)
		return fetched
	}
	s.pending[equipmentID] = stillPending

	merged := make([]pdm.MaintenanceRecord, 0, len(stillPending)+len(fetched))
	merged = append(merged, stillPending...)
	merged = append(merged, fetched...)
	return merged
}

// Len reports the number of pending entries for one machine.
func (s *PendingStore) Len(equipmentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[equipmentID])
}

func containsRecord(fetched []pdm.MaintenanceRecord, entry pdm.MaintenanceRecord) bool {
	for _, rec := range fetched {
		if entry.ID != "" && rec.ID == entry.ID {
			return true
		}
		if rec.MaintenanceDate == entry.MaintenanceDate && rec.MaintenanceType == entry.MaintenanceType {
			return true
		}
	}
	return false
}
