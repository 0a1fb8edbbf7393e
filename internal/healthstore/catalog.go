package healthstore

import "healthcore/internal/models"

// Capability what an adapter allows for one sample type
type Capability struct {
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
	Unit     string `json:"unit"`
}

// Catalog capability lookup table keyed by sample type
type Catalog map[models.SampleType]Capability

// DefaultCatalog the table shared by the bundled adapters:
// every type is readable, only the sleep categories are writable.
func DefaultCatalog() Catalog {
	return Catalog{
		models.SampleTypeAsleep:          {Readable: true, Writable: true, Unit: ""},
		models.SampleTypeInBed:           {Readable: true, Writable: true, Unit: ""},
		models.SampleTypeHeartRate:       {Readable: true, Unit: "count/min"},
		models.SampleTypeActiveEnergy:    {Readable: true, Unit: "kcal"},
		models.SampleTypeRespiratoryRate: {Readable: true, Unit: "count/min"},
	}
}

// CanRead reports whether t is readable.
func (c Catalog) CanRead(t models.SampleType) bool {
	return c[t].Readable
}

// CanWrite reports whether t is writable.
func (c Catalog) CanWrite(t models.SampleType) bool {
	return c[t].Writable
}

// Unit canonical unit of t, empty for categories.
func (c Catalog) Unit(t models.SampleType) string {
	return c[t].Unit
}

// Clone returns an independent copy.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
