package memory

import "github.com/riskibarqy/armory-onboarding/internal/domain/reference"

// SeedReferences is the default dropdown content used when no database is configured.
func SeedReferences() map[reference.Kind][]reference.Item {
	return map[reference.Kind][]reference.Item{
		reference.KindTypeOfBuyer: {
			{ID: "government-agency", Name: "Government Agency"},
			{ID: "armed-forces", Name: "Armed Forces"},
			{ID: "law-enforcement", Name: "Law Enforcement"},
			{ID: "systems-integrator", Name: "Systems Integrator"},
			{ID: "licensed-distributor", Name: "Licensed Distributor"},
		},
		reference.KindProcurementPurpose: {
			{ID: "national-defense", Name: "National Defense"},
			{ID: "internal-security", Name: "Internal Security"},
			{ID: "training", Name: "Training and Simulation"},
			{ID: "resale", Name: "Authorized Resale"},
		},
		reference.KindEndUserType: {
			{ID: "military", Name: "Military"},
			{ID: "police", Name: "Police"},
			{ID: "private-security", Name: "Private Security"},
			{ID: "civil-government", Name: "Civil Government"},
		},
	}
}
