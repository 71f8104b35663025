// Package principles holds heuristic detectors for design-principle
// violations: feature envy, the Law of Demeter, the Hollywood principle,
// temporal coupling, and the open/closed, dependency-inversion and
// single-responsibility principles.
package principles

// Registry names of the principle linters.
const (
	FeatureEnvyName          = "FeatureEnvy"
	DemeterName              = "DemeterPrinciple"
	HollywoodName            = "HollywoodPrinciple"
	TemporalCouplingName     = "TemporalCoupling"
	OpenClosedName           = "OpenClosedPrinciple"
	DependencyInversionName  = "DependencyInversionPrinciple"
	SingleResponsibilityName = "SingleResponsibilityPrinciple"
)
