package model

import "testing"

func TestVerdictTerminal(t *testing.T) {
	terminal := []Verdict{VerdictAC, VerdictWA, VerdictTLE, VerdictMLE, VerdictRE, VerdictCE}
	for _, v := range terminal {
		if !v.Terminal() {
			t.Errorf("%s should be terminal", v)
		}
	}
	for _, v := range []Verdict{VerdictPending, VerdictJudging, Verdict("")} {
		if v.Terminal() {
			t.Errorf("%s should not be terminal", v)
		}
	}
}

func TestVerdictWorseThan(t *testing.T) {
	// Aggregation order, worst first.
	order := []Verdict{VerdictCE, VerdictTLE, VerdictMLE, VerdictRE, VerdictWA}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if !order[i].WorseThan(order[j]) {
				t.Errorf("%s should be worse than %s", order[i], order[j])
			}
			if order[j].WorseThan(order[i]) {
				t.Errorf("%s should not be worse than %s", order[j], order[i])
			}
		}
	}
	if VerdictWA.WorseThan(VerdictWA) {
		t.Error("a verdict is not worse than itself")
	}
}

func TestProblemHasChecker(t *testing.T) {
	p := Problem{}
	if p.HasChecker() {
		t.Error("empty problem has no checker")
	}
	p.CheckerCode = "print('ACCEPT')"
	if p.HasChecker() {
		t.Error("checker without language is incomplete")
	}
	p.CheckerLanguage = "python"
	if !p.HasChecker() {
		t.Error("checker with code and language should be detected")
	}
}
