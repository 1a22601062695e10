package domain

import "fmt"

// VehicleSlot is an anonymous capacity bucket used during optimization.
// A real driver is only bound once the resulting route is committed.
type VehicleSlot struct {
	SlotID       int
	SeatCapacity int
}

// Cluster is the transient grouping of schools assigned to one vehicle
// slot during optimization. It tracks the running seat total and the
// dismissal-time window of its members. Clusters are never persisted;
// the sequencer turns them into routes.
type Cluster struct {
	Slot      VehicleSlot
	Schools   []School
	SeatsUsed int
	Earliest  MinuteOfDay
	Latest    MinuteOfDay
}

func NewCluster(slotID int, seatCapacity int) *Cluster {
	return &Cluster{
		Slot: VehicleSlot{SlotID: slotID, SeatCapacity: seatCapacity},
	}
}

func (c *Cluster) Empty() bool { return len(c.Schools) == 0 }

// RemainingSeats returns the seat capacity still available.
func (c *Cluster) RemainingSeats() int { return c.Slot.SeatCapacity - c.SeatsUsed }

func (c *Cluster) CanFit(s School) bool {
	return s.StudentCount <= c.RemainingSeats()
}

// Add assigns a school to the cluster, updating the seat total and the
// [earliest, latest] dismissal window.
func (c *Cluster) Add(s School) error {
	if !c.CanFit(s) {
		return fmt.Errorf("add school: slot %d is over capacity (remaining=%d need=%d)",
			c.Slot.SlotID, c.RemainingSeats(), s.StudentCount)
	}

	if c.Empty() || s.Dismissal < c.Earliest {
		c.Earliest = s.Dismissal
	}
	if c.Empty() || s.Dismissal > c.Latest {
		c.Latest = s.Dismissal
	}

	c.Schools = append(c.Schools, s)
	c.SeatsUsed += s.StudentCount
	return nil
}
