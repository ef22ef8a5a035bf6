package testutil

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/leapstack-labs/dalc/pkg/schema"
)

// BasePackage is the package of the fixture's user types.
const BasePackage = "acme"

// SystemPackage is the package of the fixture's built-in types.
const SystemPackage = "platform.basic"

//go:embed testdata/pigeons.yaml
var pigeonsYAML []byte

// PigeonsYAML returns the raw fixture schema definition.
func PigeonsYAML() []byte {
	return bytes.Clone(pigeonsYAML)
}

// Catalog returns a fresh catalog of the pigeon fixture schema:
// acme.Pigeon (self references father/mother, inverse collection children,
// association clubs, formula title), acme.Owner, acme.Club, the linking type
// acme.ClubMembership and the system type platform.basic.User.
func Catalog(t testing.TB) *schema.Catalog {
	t.Helper()
	c, err := schema.LoadYAML(bytes.NewReader(pigeonsYAML))
	if err != nil {
		t.Fatalf("failed to load fixture schema: %v", err)
	}
	return c
}
