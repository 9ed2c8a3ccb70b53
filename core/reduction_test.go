package core

import "testing"

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > tol {
		t.Fatalf("%s: got %v want %v (tol %v)", msg, got, want, tol)
	}
}

// TestCalculateLifetimeReduction reproduces S1 from spec §8.
func TestCalculateLifetimeReduction(t *testing.T) {
	p := PanelRecord{
		NominalEfficiencyPct:        22.5,
		SizeM2:                      1.8,
		ManufacturingFootprintKgCO2: 1200,
		LifetimeYears:               25,
		CarbonReductionFactor:       0.4,
	}
	result := CalculateLifetimeReduction(p, DefaultSolarIrradianceKwhPerM2Year)
	approxEqual(t, result.AnnualEnergyKwh, 607.5, 0.01, "annual energy")
	approxEqual(t, result.LifetimeReduction, 6075, 0.5, "lifetime reduction")
}

func TestRegionClassificationAndCompensation(t *testing.T) {
	cases := []struct {
		code string
		want RegionType
	}{
		{"CN-XZ", RegionTypeI},
		{"CN-QH", RegionTypeI},
		{"CN-XJ", RegionTypeII},
		{"CN-GS", RegionTypeII},
		{"CN-NM", RegionTypeII},
		{"CN-EC", RegionTypeIII},
		{"CN-UNKNOWN", RegionTypeIII},
	}
	for _, c := range cases {
		if got := ClassifyRegion(c.code); got != c.want {
			t.Errorf("ClassifyRegion(%s) = %v, want %v", c.code, got, c.want)
		}
	}
	if RegionCompensation(RegionTypeI) != 0.9 {
		t.Fatalf("TypeI compensation wrong")
	}
	if RegionCompensation(RegionTypeII) != 1.0 {
		t.Fatalf("TypeII compensation wrong")
	}
	if RegionCompensation(RegionTypeIII) != 1.2 {
		t.Fatalf("TypeIII compensation wrong")
	}
}

func TestResolveRegionSubstringMatch(t *testing.T) {
	cases := map[string]string{
		"北京市朝阳区": "CN-HB",
		"上海市浦东":   "CN-EC",
		"广东省深圳":   "CN-SC",
		"西藏自治区":   "CN-XZ",
		"随便什么地方":  "CN-EC", // default
	}
	for loc, want := range cases {
		if got := ResolveRegion(loc); got != want {
			t.Errorf("ResolveRegion(%q) = %s, want %s", loc, got, want)
		}
	}
}

func TestBlockTotalReductionIgnoresOrdering(t *testing.T) {
	registry := map[string]PanelRecord{
		"p1": {NominalEfficiencyPct: 20, SizeM2: 2, CarbonIntensity: 0.05},
		"p2": {NominalEfficiencyPct: 18, SizeM2: 3, CarbonIntensity: 0.03},
	}
	factors := DefaultGridFactors()
	samples := []InverterSample{
		{PanelID: "p1", EnergyGeneratedKwh: 10, ModuleTemperatureC: 25, LocationTag: "上海"},
		{PanelID: "p2", EnergyGeneratedKwh: 5, ModuleTemperatureC: 25, LocationTag: "广东"},
		{PanelID: "unknown", EnergyGeneratedKwh: 99, ModuleTemperatureC: 25, LocationTag: "上海"},
	}
	total1 := BlockTotalReduction(samples, registry, factors)

	reversed := []InverterSample{samples[2], samples[1], samples[0]}
	total2 := BlockTotalReduction(reversed, registry, factors)

	approxEqual(t, total1, total2, 1e-9, "I5: total reduction must be order-invariant")
}

func TestPrimaryRegionTieBreaksFirstSeen(t *testing.T) {
	samples := []InverterSample{
		{LocationTag: "上海"},  // CN-EC
		{LocationTag: "广东"},  // CN-SC
		{LocationTag: "江苏"},  // CN-EC again
	}
	if got := PrimaryRegion(samples); got != "CN-EC" {
		t.Fatalf("expected CN-EC to win by count, got %s", got)
	}

	tied := []InverterSample{
		{LocationTag: "广东"}, // CN-SC first-seen
		{LocationTag: "上海"}, // CN-EC
	}
	if got := PrimaryRegion(tied); got != "CN-SC" {
		t.Fatalf("expected first-seen CN-SC to win tie, got %s", got)
	}
}
