package models

import (
	"encoding/json"
	"fmt"
)

// Capacity tracks how many active students a mentor has against their limit.
// The counter only moves through Mentor methods.
type Capacity struct {
	max     int
	current int
}

// NewCapacity creates a capacity with no active students
func NewCapacity(maxActiveStudents int) Capacity {
	return Capacity{max: maxActiveStudents}
}

func (c Capacity) MaxActiveStudents() int     { return c.max }
func (c Capacity) CurrentActiveStudents() int { return c.current }

// HasHeadroom reports whether another student can be accepted
func (c Capacity) HasHeadroom() bool {
	return c.current < c.max
}

func (c *Capacity) increment() { c.current++ }

func (c *Capacity) decrement() {
	if c.current > 0 {
		c.current--
	}
}

type capacityJSON struct {
	MaxActiveStudents     int `json:"maxActiveStudents"`
	CurrentActiveStudents int `json:"currentActiveStudents"`
}

func (c Capacity) MarshalJSON() ([]byte, error) {
	return json.Marshal(capacityJSON{MaxActiveStudents: c.max, CurrentActiveStudents: c.current})
}

func (c *Capacity) UnmarshalJSON(data []byte) error {
	var v capacityJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.MaxActiveStudents < 0 || v.CurrentActiveStudents < 0 {
		return fmt.Errorf("capacity values must be non-negative: max=%d current=%d", v.MaxActiveStudents, v.CurrentActiveStudents)
	}
	c.max = v.MaxActiveStudents
	c.current = v.CurrentActiveStudents
	return nil
}
