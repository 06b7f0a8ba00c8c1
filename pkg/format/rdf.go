package format

import (
	"context"
	"errors"

	"github.com/latticedb/lattice/pkg/types"
)

// RDF has no driver in this module's dependency set: no repo in the
// pack this module is built from imports an RDF/Turtle/SPARQL
// library, so there is nothing to wire it to (spec §4.K "RDF (if
// library present)", §9 "gate behind a capability probe"). It stays
// registered so a caller naming "rdf" gets a targeted, remediated
// error instead of the generic "format not registered" message a
// typo would produce.
func saveRDFUnavailable(context.Context, *types.Graph, string) error {
	return rdfUnavailableError("format.rdf.save")
}

func loadRDFUnavailable(context.Context, string) (*types.Graph, error) {
	return nil, rdfUnavailableError("format.rdf.load")
}

func rdfUnavailableError(op string) error {
	return types.NewConfigurationError(op,
		"no RDF library is vendored in this build; register a driver with format.RegisterFormat(\"rdf\", save, load) to enable it",
		errNoRDFDriver)
}

var errNoRDFDriver = errors.New("RDF format has no driver wired in this build")
