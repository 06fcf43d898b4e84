package interview

// Decision is the termination policy's verdict for the current state of an
// interview.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionAccept   Decision = "accept"
	DecisionReject   Decision = "reject"
)

// PolicyConfig bounds the interview and sets the score thresholds.
type PolicyConfig struct {
	// MaxTurns forces a terminal decision once reached. <= 0 disables the cap.
	MaxTurns int
	// MinTurns is how many turns must pass before scores alone may end the
	// interview.
	MinTurns int
	// AcceptScore and RejectScore are cumulative-score thresholds on the
	// MinSkillScore..MaxSkillScore scale.
	AcceptScore float64
	RejectScore float64
}

// DefaultPolicyConfig returns the stock screening policy.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MaxTurns:    8,
		MinTurns:    3,
		AcceptScore: 4.0,
		RejectScore: 1.5,
	}
}

// Decide is the termination policy. It is a pure function of the assessment
// history, the candidate's explicit completion signal, and the config:
// identical inputs always produce the same decision.
//
// Zero turns always continues. An explicit completion signal or the turn cap
// forces a terminal decision by score. Otherwise, once MinTurns have passed,
// the cumulative score may cross either threshold.
func Decide(history []Assessment, explicitDone bool, cfg PolicyConfig) Decision {
	turns := len(history)
	if turns == 0 {
		return DecisionContinue
	}

	score := CumulativeScore(history)
	if explicitDone || (cfg.MaxTurns > 0 && turns >= cfg.MaxTurns) {
		if score >= cfg.AcceptScore {
			return DecisionAccept
		}
		return DecisionReject
	}
	if turns < cfg.MinTurns {
		return DecisionContinue
	}
	if score >= cfg.AcceptScore {
		return DecisionAccept
	}
	if score <= cfg.RejectScore {
		return DecisionReject
	}
	return DecisionContinue
}

// CumulativeScore is the arithmetic mean of every skill score across the
// history. Turns without scores contribute nothing.
func CumulativeScore(history []Assessment) float64 {
	var sum float64
	var n int
	for _, a := range history {
		for _, v := range a.HardSkills {
			sum += v
			n++
		}
		for _, v := range a.SoftSkills {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
