package credit

const (
	BaseScore  = 700
	FloorScore = 300

	cashFlowPenalty = 100
	leveragePenalty = 80
	gstPenalty      = 60
)

// Score maps metrics to a credit score in [300, 700]. Penalties are
// independent and additive.
func Score(m Metrics) (int, error) {
	if err := m.require(FieldCashFlow, FieldDebt, FieldAssets, FieldGSTCompliant); err != nil {
		return 0, err
	}

	score := BaseScore
	if *m.CashFlow < 0 {
		score -= cashFlowPenalty
	}
	if *m.Debt > *m.Assets {
		score -= leveragePenalty
	}
	if !*m.GSTCompliant {
		score -= gstPenalty
	}

	if score < FloorScore {
		score = FloorScore
	}
	return score, nil
}
