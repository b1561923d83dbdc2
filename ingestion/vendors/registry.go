package vendors

import (
	"fmt"

	"github.com/google/uuid"
)

// Deps carries the collaborators individual vendors need. Product and
// price resolution are per-run services, so a Registry is built once per
// pipeline invocation and never shared across batches.
type Deps struct {
	ResellerID uuid.UUID
	Products   ProductResolver
	Prices     PriceLookup
}

// Registry selects a vendor implementation by its detector vendor id.
type Registry struct {
	vendors map[string]Vendor
}

// NewRegistry wires every known vendor implementation against the
// supplied per-run dependencies.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{vendors: make(map[string]Vendor)}
	r.register(NewIngramMicro())
	r.register(NewTDSynnex())
	r.register(NewAlsoHolding())
	r.register(NewExertis())
	r.register(NewElkoGroup(deps.ResellerID, deps.Products))
	r.register(NewDespec(deps.ResellerID, deps.Prices))
	r.register(NewAptecDist())
	r.register(NewWestcoast())
	return r
}

func (r *Registry) register(v Vendor) {
	r.vendors[v.VendorName()] = v
}

// Get returns the implementation registered for a vendor id.
func (r *Registry) Get(vendorID string) (Vendor, error) {
	v, ok := r.vendors[vendorID]
	if !ok {
		return nil, fmt.Errorf("no vendor implementation registered for %q", vendorID)
	}
	return v, nil
}
