package core

// DefaultSolarIrradianceKwhPerM2Year is the default annual irradiance used
// to derive lifetime energy when a panel is registered. Overridable via
// config.Config.Chain.SolarIrradianceKwhPerM2Year.
const DefaultSolarIrradianceKwhPerM2Year = 1500.0

// temperatureCoefficient is the module derating coefficient per °C away
// from the 25°C reference point (spec §4.2).
const temperatureCoefficient = -0.0045

// LifetimeReductionResult holds the panel-side quantities computed at
// registration time.
type LifetimeReductionResult struct {
	AnnualEnergyKwh    float64
	LifetimeEnergyKwh  float64
	LifetimeReduction  float64
	CarbonIntensity    float64
}

// CalculateLifetimeReduction computes the lifetime carbon reduction and
// panel-side carbon intensity for a panel, per spec §4.2.
func CalculateLifetimeReduction(p PanelRecord, solarIrradiance float64) LifetimeReductionResult {
	annualEnergy := (p.NominalEfficiencyPct / 100) * p.SizeM2 * solarIrradiance
	lifetimeEnergy := annualEnergy * float64(p.LifetimeYears)
	lifetimeReduction := annualEnergy * p.CarbonReductionFactor * float64(p.LifetimeYears)

	var carbonIntensity float64
	if lifetimeEnergy > 0 {
		carbonIntensity = p.ManufacturingFootprintKgCO2 / lifetimeEnergy
	}

	return LifetimeReductionResult{
		AnnualEnergyKwh:   annualEnergy,
		LifetimeEnergyKwh: lifetimeEnergy,
		LifetimeReduction: lifetimeReduction,
		CarbonIntensity:   carbonIntensity,
	}
}

// SampleReductionResult holds the real-time quantities computed for a single
// inverter sample.
type SampleReductionResult struct {
	TheoreticalKw      float64 // informational only, not credited
	RawReduction       float64
	EffectiveReduction float64
	RegionCode         string
	RegionType         RegionType
}

// CalculateSampleReduction computes the real-time, region-compensated carbon
// reduction credited to a single inverter sample, per spec §4.2.
func CalculateSampleReduction(s InverterSample, p PanelRecord, gridFactor float64) SampleReductionResult {
	tempAdjust := 1 + temperatureCoefficient*(s.ModuleTemperatureC-25)
	theoreticalKw := (p.NominalEfficiencyPct / 100) * p.SizeM2 * (s.IrradianceWPerM2 / 1000) * tempAdjust

	gridEmission := s.EnergyGeneratedKwh * gridFactor
	panelEmission := s.EnergyGeneratedKwh * p.CarbonIntensity
	rawReduction := gridEmission - panelEmission

	regionCode := ResolveRegion(s.LocationTag)
	regionType := ClassifyRegion(regionCode)
	effective := rawReduction * RegionCompensation(regionType)

	return SampleReductionResult{
		TheoreticalKw:      theoreticalKw,
		RawReduction:        rawReduction,
		EffectiveReduction:  effective,
		RegionCode:          regionCode,
		RegionType:          regionType,
	}
}

// BlockTotalReduction sums effective_reduction over every pending sample
// whose panel is registered and whose resolved region has a known grid
// factor. Samples that fail either lookup are skipped for crediting but are
// never removed from the caller's payload (spec §4.2). The result does not
// depend on sample ordering (I5).
func BlockTotalReduction(samples []InverterSample, registry map[string]PanelRecord, gridFactors map[string]float64) float64 {
	var total float64
	for _, s := range samples {
		panel, ok := registry[s.PanelID]
		if !ok {
			continue
		}
		region := ResolveRegion(s.LocationTag)
		factor, ok := gridFactors[region]
		if !ok {
			continue
		}
		total += CalculateSampleReduction(s, panel, factor).EffectiveReduction
	}
	return total
}

// PrimaryRegion returns the region code appearing in the most pending
// samples, ties broken by first-seen order in the slice.
func PrimaryRegion(samples []InverterSample) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, s := range samples {
		region := ResolveRegion(s.LocationTag)
		if _, seen := counts[region]; !seen {
			order = append(order, region)
		}
		counts[region]++
	}
	if len(order) == 0 {
		return DefaultRegionCode
	}
	best := order[0]
	for _, region := range order[1:] {
		if counts[region] > counts[best] {
			best = region
		}
	}
	return best
}
