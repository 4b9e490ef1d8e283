package metrics_test

import (
	"testing"

	"github.com/dalyulbam/Class101LLL/business/sys/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMetrics(t *testing.T) {
	t.Log("Given the need to record node metrics.")
	{
		metrics.Init()
		metrics.Init()

		metrics.SetChain(3, 2)
		metrics.AddBlockMined()
		metrics.AddTxRejected("insufficient funds")

		families, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to gather the metrics: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to gather the metrics.", success)

		values := make(map[string]float64)
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				switch {
				case m.GetGauge() != nil:
					values[mf.GetName()] += m.GetGauge().GetValue()
				case m.GetCounter() != nil:
					values[mf.GetName()] += m.GetCounter().GetValue()
				}
			}
		}

		exp := map[string]float64{
			"ledger_chain_length":         3,
			"ledger_pending_transactions": 2,
			"ledger_blocks_mined":         1,
			"ledger_tx_rejected":          1,
		}

		for name, v := range exp {
			if values[name] != v {
				t.Fatalf("\t%s\tShould get %v for %s, got %v.", failed, v, name, values[name])
			}
		}
		t.Logf("\t%s\tShould get the recorded values.", success)
	}
}
