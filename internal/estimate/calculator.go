package estimate

import (
	"sync"
	"time"

	"mural-budget/internal/budget"
)

// Snapshot is what a form renders after each change.
type Snapshot struct {
	Request     budget.ProjectRequest `json:"request"`
	Estimate    *Result               `json:"estimate"`
	Precision   Precision             `json:"precision"`
	Calculating bool                  `json:"calculating"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// Calculator keeps the latest request of one form session together with its
// debounced distance factor.
type Calculator struct {
	mu        sync.RWMutex
	req       budget.ProjectRequest
	updatedAt time.Time
	distance  *DistanceTracker
}

func NewCalculator(delay time.Duration, opts ...TrackerOption) *Calculator {
	return &Calculator{
		distance:  NewDistanceTracker(delay, opts...),
		updatedAt: time.Now(),
	}
}

// Update replaces the request snapshot. The tracker is updated under the same
// lock so the stored postal code and the tracked one always agree.
func (c *Calculator) Update(req budget.ProjectRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.req = req
	c.updatedAt = time.Now()
	c.distance.SetPostalCode(req.PostalCode)
}

func (c *Calculator) Snapshot() Snapshot {
	c.mu.RLock()
	req := c.req
	updatedAt := c.updatedAt
	c.mu.RUnlock()

	factor, calculating := c.distance.Factor()

	return Snapshot{
		Request:     req,
		Estimate:    ComputeEstimate(req, factor),
		Precision:   ComputePrecision(req),
		Calculating: calculating,
		UpdatedAt:   updatedAt,
	}
}

func (c *Calculator) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

func (c *Calculator) Close() {
	c.distance.Stop()
}
