// Package idgen hands out identifiers for persisted records.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Record id prefixes.
const (
	PrefixConsultation = "CONS"
	PrefixAppointment  = "APT"
	PrefixLog          = "LOG"
	PrefixPrescription = "RX"
)

// Provider creates unique ids carrying a type prefix.
type Provider interface {
	NewID(prefix string) string
}

type uuidProvider struct{}

// NewUUIDProvider returns a Provider producing "<PREFIX>-<uuid>" ids.
func NewUUIDProvider() Provider {
	return uuidProvider{}
}

func (uuidProvider) NewID(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12]
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// Sequence is a deterministic Provider: CONS-1, CONS-2, APT-1, ...
type Sequence struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewSequence() *Sequence {
	return &Sequence{counters: make(map[string]int)}
}

func (s *Sequence) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	if prefix == "" {
		return fmt.Sprintf("%d", s.counters[prefix])
	}
	return fmt.Sprintf("%s-%d", prefix, s.counters[prefix])
}
