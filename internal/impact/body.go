package impact

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBody is wrapped by every validation failure.
var ErrInvalidBody = errors.New("invalid impact body")

// ValidationError names the offending field and value.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s, got %g", ErrInvalidBody, e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidBody }

// Body is a user-submitted impactor evaluated with the angle-factor crater model.
type Body struct {
	DiameterM   float64 `json:"diameter_m"`
	DensityKgM3 float64 `json:"density_kg_m3"`
	VelocityKmS float64 `json:"velocity_km_s"`
	AngleDeg    float64 `json:"impact_angle_deg"`
}

// CatalogBody is a pre-classified body evaluated with the scaling-law crater
// model. When MassKg is zero the mass is derived from DiameterM at DefaultDensity.
// Hazardous is upstream metadata and is passed through unchanged.
type CatalogBody struct {
	DiameterM   float64 `json:"diameter_m"`
	MassKg      float64 `json:"mass_kg"`
	VelocityKmS float64 `json:"velocity_km_s"`
	Hazardous   bool    `json:"hazardous"`
}

// Params is the union input accepted by Assess. Which crater model applies
// depends on which optional fields are present. A nil density means
// DefaultDensity.
type Params struct {
	DiameterM   float64  `json:"diameter_m"`
	DensityKgM3 *float64 `json:"density_kg_m3,omitempty"`
	VelocityKmS float64  `json:"velocity_km_s"`
	AngleDeg    *float64 `json:"impact_angle_deg,omitempty"`
	MassKg      *float64 `json:"mass_kg,omitempty"`
	Hazardous   bool     `json:"hazardous"`
}

// Model names the crater formula an assessment used.
type Model string

const (
	ModelScalingLaw  Model = "scaling_law"
	ModelAngleFactor Model = "angle_factor"
)

// Validate checks b against the documented input domain.
func (b Body) Validate() error {
	if err := positive("diameter_m", b.DiameterM); err != nil {
		return err
	}
	if err := positive("density_kg_m3", b.DensityKgM3); err != nil {
		return err
	}
	if err := positive("velocity_km_s", b.VelocityKmS); err != nil {
		return err
	}
	if math.IsNaN(b.AngleDeg) || b.AngleDeg <= 0 || b.AngleDeg > 90 {
		return &ValidationError{Field: "impact_angle_deg", Value: b.AngleDeg, Reason: "must be in (0, 90]"}
	}
	return nil
}

// Validate checks c against the documented input domain.
func (c CatalogBody) Validate() error {
	if c.MassKg != 0 {
		if err := positive("mass_kg", c.MassKg); err != nil {
			return err
		}
	} else if err := positive("diameter_m", c.DiameterM); err != nil {
		return err
	}
	return positive("velocity_km_s", c.VelocityKmS)
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ValidationError{Field: field, Value: v, Reason: "must be a positive finite number"}
	}
	return nil
}

// ComputeEffects evaluates a custom body: sphere mass, kinetic energy,
// angle-factor crater, and a physics-derived hazard flag (energy > 1e12 J).
func ComputeEffects(b Body) (Effects, error) {
	if err := b.Validate(); err != nil {
		return Effects{}, err
	}
	mass := SphereMass(b.DiameterM, b.DensityKgM3)
	energy := KineticEnergy(mass, b.VelocityKmS)
	crater := AngleFactorCrater(b.DiameterM, b.AngleDeg)
	return effectsFor(mass, energy, crater, hazardous(energy)), nil
}

// CatalogEffects evaluates a pre-classified body with the scaling-law crater.
// The hazard flag is the body's own classification, not derived from energy.
func CatalogEffects(c CatalogBody) (Effects, error) {
	if err := c.Validate(); err != nil {
		return Effects{}, err
	}
	mass := c.MassKg
	if mass == 0 {
		mass = SphereMass(c.DiameterM, DefaultDensity)
	}
	energy := KineticEnergy(mass, c.VelocityKmS)
	return effectsFor(mass, energy, ScalingLawCrater(energy), c.Hazardous), nil
}

// Assess dispatches on the shape of p:
//   - mass without angle: scaling-law path, hazard passed through;
//   - otherwise: angle-factor path, angle defaulting to 45° and density to
//     3000 kg/m³. A supplied mass drives the energy; a missing diameter is
//     derived from mass and density.
func Assess(p Params) (Effects, Model, error) {
	if p.MassKg != nil {
		if err := positive("mass_kg", *p.MassKg); err != nil {
			return Effects{}, modelFor(p), err
		}
	}

	if p.MassKg != nil && p.AngleDeg == nil {
		eff, err := CatalogEffects(CatalogBody{
			DiameterM:   p.DiameterM,
			MassKg:      *p.MassKg,
			VelocityKmS: p.VelocityKmS,
			Hazardous:   p.Hazardous,
		})
		return eff, ModelScalingLaw, err
	}

	body := Body{
		DiameterM:   p.DiameterM,
		DensityKgM3: DefaultDensity,
		VelocityKmS: p.VelocityKmS,
		AngleDeg:    DefaultAngle,
	}
	if p.DensityKgM3 != nil {
		body.DensityKgM3 = *p.DensityKgM3
	}
	if p.AngleDeg != nil {
		body.AngleDeg = *p.AngleDeg
	}
	if p.MassKg == nil {
		eff, err := ComputeEffects(body)
		return eff, ModelAngleFactor, err
	}

	if body.DiameterM == 0 {
		if err := positive("density_kg_m3", body.DensityKgM3); err != nil {
			return Effects{}, ModelAngleFactor, err
		}
		body.DiameterM = DiameterFromMass(*p.MassKg, body.DensityKgM3)
	}
	if err := body.Validate(); err != nil {
		return Effects{}, ModelAngleFactor, err
	}
	mass := *p.MassKg
	energy := KineticEnergy(mass, body.VelocityKmS)
	crater := AngleFactorCrater(body.DiameterM, body.AngleDeg)
	return effectsFor(mass, energy, crater, hazardous(energy)), ModelAngleFactor, nil
}

func modelFor(p Params) Model {
	if p.MassKg != nil && p.AngleDeg == nil {
		return ModelScalingLaw
	}
	return ModelAngleFactor
}
