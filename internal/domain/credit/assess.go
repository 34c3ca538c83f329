package credit

// RiskLevel is the coarse display bucket shown next to the health score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Assessment is the deterministic part of an analysis.
type Assessment struct {
	CreditScore int
	HealthScore int
	RiskLevel   RiskLevel
	Risks       []string
}

// Assess validates all metrics, then runs both engines and derives the
// display fields from their output.
func Assess(m Metrics) (Assessment, error) {
	if err := m.Validate(); err != nil {
		return Assessment{}, err
	}
	score, err := Score(m)
	if err != nil {
		return Assessment{}, err
	}
	risks, err := Risks(m)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		CreditScore: score,
		HealthScore: HealthScore(score, len(risks)),
		RiskLevel:   LevelFor(len(risks)),
		Risks:       risks,
	}, nil
}

// HealthScore projects the 300..700 credit score onto 0..100 and takes 10
// points per risk flag.
func HealthScore(creditScore, riskCount int) int {
	h := (creditScore-FloorScore)/4 - 10*riskCount
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}

// LevelFor buckets the number of risk flags.
func LevelFor(riskCount int) RiskLevel {
	switch {
	case riskCount == 0:
		return RiskLow
	case riskCount == 1:
		return RiskMedium
	default:
		return RiskHigh
	}
}
