package grid

import (
	"slices"

	"spatialgrid/internal/model"
)

// Cell is one fixed partition of the grid. It holds, per dataset label,
// handles (indexes) into the grid's dataset for that label.
type Cell struct {
	I      int
	J      int
	Bounds model.MBR

	objects map[string][]int
}

func newCell(i, j int, bounds model.MBR) *Cell {
	return &Cell{
		I:       i,
		J:       j,
		Bounds:  bounds,
		objects: make(map[string][]int),
	}
}

// Handles returns the dataset indexes assigned to the cell under label.
// The returned slice must not be modified.
func (c *Cell) Handles(label string) []int {
	return c.objects[label]
}

// Count returns the number of objects assigned to the cell under label
func (c *Cell) Count(label string) int {
	return len(c.objects[label])
}

// HasLabel reports whether at least one object of label is assigned to the cell
func (c *Cell) HasLabel(label string) bool {
	return len(c.objects[label]) > 0
}

// Labels returns the labels with objects in the cell, sorted
func (c *Cell) Labels() []string {
	labels := make([]string, 0, len(c.objects))
	for label, handles := range c.objects {
		if len(handles) > 0 {
			labels = append(labels, label)
		}
	}
	slices.Sort(labels)
	return labels
}

func (c *Cell) add(label string, handle int) {
	c.objects[label] = append(c.objects[label], handle)
}

func (c *Cell) clear(label string) {
	delete(c.objects, label)
}
