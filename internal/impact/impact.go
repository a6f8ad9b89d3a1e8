// Package impact computes the physical effects of a body striking the Earth.
//
// Two crater models are kept side by side because both are externally
// observable:
//
//	scaling law   D = 1.3 * (E / (2500 * 9.81))^0.25
//	angle factor  D = diameter * 20 * sin(angle)
//
// The scaling law serves pre-classified catalog bodies (mass known or derived
// with the default density). The angle factor serves user-submitted bodies.
// Ejecta radius and dust plume height are 1.2*D and 0.1*D in both models.
//
// Outputs are never rounded here; rounding is a presentation concern.
package impact

import "math"

const (
	// DefaultDensity is the assumed bulk density (kg/m³) when none is given.
	DefaultDensity = 3000.0
	// DefaultAngle is the impact angle (degrees) used when none is given.
	DefaultAngle = 45.0

	// HazardThresholdJ is the kinetic energy a custom body must exceed to be hazardous.
	HazardThresholdJ = 1e12

	scalingK       = 1.3
	surfaceDensity = 2500.0 // kg/m³
	gravity        = 9.81   // m/s²

	angleFactor = 20.0

	ejectaMultiplier = 1.2
	dustMultiplier   = 0.1

	joulesPerMegaton = 4.184e15
)

// Effects is the derived outcome of an impact.
type Effects struct {
	MassKg           float64 `json:"mass_kg"`
	KineticEnergyJ   float64 `json:"kinetic_energy_j"`
	CraterDiameterM  float64 `json:"crater_diameter_m"`
	EjectaRadiusM    float64 `json:"ejecta_radius_m"`
	DustPlumeHeightM float64 `json:"dust_plume_height_m"`
	IsHazardous      bool    `json:"is_hazardous"`
}

// SphereMass returns the mass of a sphere of the given diameter (m) and density (kg/m³).
func SphereMass(diameterM, densityKgM3 float64) float64 {
	r := diameterM / 2
	return (4.0 / 3.0) * math.Pi * r * r * r * densityKgM3
}

// DiameterFromMass inverts SphereMass.
func DiameterFromMass(massKg, densityKgM3 float64) float64 {
	volume := massKg / densityKgM3
	return 2 * math.Cbrt(volume*3/(4*math.Pi))
}

// KineticEnergy returns 0.5*m*v² in joules for a velocity given in km/s.
func KineticEnergy(massKg, velocityKmS float64) float64 {
	v := velocityKmS * 1000
	return 0.5 * massKg * v * v
}

// ScalingLawCrater returns the crater diameter (m) for an impact energy (J).
func ScalingLawCrater(energyJ float64) float64 {
	return scalingK * math.Pow(energyJ/(surfaceDensity*gravity), 0.25)
}

// AngleFactorCrater returns the crater diameter (m) from the body diameter and
// the impact angle measured from the horizontal.
func AngleFactorCrater(diameterM, angleDeg float64) float64 {
	return diameterM * angleFactor * math.Sin(angleDeg*math.Pi/180)
}

// EjectaRadius returns the ejecta radius for a crater diameter.
func EjectaRadius(craterDiameterM float64) float64 {
	return ejectaMultiplier * craterDiameterM
}

// DustPlumeHeight returns the dust plume height for a crater diameter.
func DustPlumeHeight(craterDiameterM float64) float64 {
	return dustMultiplier * craterDiameterM
}

// Megatons converts joules to megatons of TNT.
func Megatons(energyJ float64) float64 {
	return energyJ / joulesPerMegaton
}

func hazardous(energyJ float64) bool {
	return energyJ > HazardThresholdJ
}

func effectsFor(mass, energy, crater float64, hazard bool) Effects {
	return Effects{
		MassKg:           mass,
		KineticEnergyJ:   energy,
		CraterDiameterM:  crater,
		EjectaRadiusM:    EjectaRadius(crater),
		DustPlumeHeightM: DustPlumeHeight(crater),
		IsHazardous:      hazard,
	}
}
