package util

import (
	"math/rand/v2"
	"strings"
)

var (
	// PhantomFirstNames is the list of first names used for synthetic patients
	PhantomFirstNames = []string{
		"James", "Mary", "Robert", "Patricia", "Michael", "Jennifer", "David", "Linda",
		"Thomas", "Sarah", "Daniel", "Emily", "Pierre", "Marie", "Louis", "Camille",
	}

	// PhantomLastNames is the list of last names used for synthetic patients
	PhantomLastNames = []string{
		"Smith", "Johnson", "Brown", "Miller", "Davis", "Wilson", "Taylor", "Moore",
		"Martin", "Bernard", "Dubois", "Laurent", "Girard", "Roux", "Fournier", "Phantom",
	}
)

// PatientName returns a deterministic synthetic name in DICOM PN form
// ("LAST^FIRST"), drawn from rng.
func PatientName(rng *rand.Rand) string {
	first := PhantomFirstNames[rng.IntN(len(PhantomFirstNames))]
	last := PhantomLastNames[rng.IntN(len(PhantomLastNames))]
	return strings.ToUpper(last) + "^" + first
}
