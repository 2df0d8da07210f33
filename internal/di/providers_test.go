package di

import (
	"testing"

	"FXForge/pkg/config"
)

func testDIConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Pipeline.Instrument = "eurusd"
	cfg.Pipeline.From = "2024-01-01"
	cfg.Pipeline.To = "2024-01-31"
	cfg.Pipeline.Workers = 2
	cfg.OANDA.Instruments = []string{"EUR_USD"}
	return cfg
}

func TestPipelineConfigDefaults(t *testing.T) {
	pcfg, err := pipelineConfig(testDIConfig(t))
	if err != nil {
		t.Fatalf("pipelineConfig: %v", err)
	}
	if len(pcfg.Rolling.Lags) == 0 || len(pcfg.Indicators.SMAWindows) == 0 || len(pcfg.Cross.Windows) == 0 {
		t.Fatalf("empty yaml families must keep the default catalog: %+v", pcfg)
	}
}

func TestPipelineConfigOverrides(t *testing.T) {
	cfg := testDIConfig(t)
	cfg.Pipeline.Lags = []int{1, 5}
	cfg.Pipeline.RollingWindows = []int{7}
	cfg.Pipeline.SMAWindows = []int{9}
	cfg.Pipeline.RSIPeriods = []int{21}
	cfg.Pipeline.CorrWindows = []int{10}
	cfg.Pipeline.Strength = []config.Strength{
		{Name: "usd_strength", Longs: []string{"usdjpy"}, Window: 5},
	}

	pcfg, err := pipelineConfig(cfg)
	if err != nil {
		t.Fatalf("pipelineConfig: %v", err)
	}
	if len(pcfg.Rolling.Lags) != 2 || pcfg.Rolling.Lags[1] != 5 {
		t.Fatalf("lags not applied: %v", pcfg.Rolling.Lags)
	}
	if len(pcfg.Rolling.Windows) != 1 || pcfg.Rolling.Windows[0] != 7 {
		t.Fatalf("rolling windows not applied: %v", pcfg.Rolling.Windows)
	}
	if len(pcfg.Indicators.SMAWindows) != 1 || pcfg.Indicators.SMAWindows[0] != 9 {
		t.Fatalf("sma windows not applied: %v", pcfg.Indicators.SMAWindows)
	}
	if len(pcfg.Indicators.RSIPeriods) != 1 || pcfg.Indicators.RSIPeriods[0] != 21 {
		t.Fatalf("rsi periods not applied: %v", pcfg.Indicators.RSIPeriods)
	}
	if len(pcfg.Cross.Windows) != 1 || pcfg.Cross.Windows[0] != 10 {
		t.Fatalf("corr windows not applied: %v", pcfg.Cross.Windows)
	}
	if len(pcfg.Cross.Strength) != 1 || pcfg.Cross.Strength[0].Name != "usd_strength" {
		t.Fatalf("strength specs not applied: %+v", pcfg.Cross.Strength)
	}
	// Untouched families keep their defaults.
	if len(pcfg.Indicators.EMAWindows) == 0 || len(pcfg.Rolling.ReturnLags) == 0 {
		t.Fatalf("untouched families lost their defaults")
	}
}

func TestProvideCollectorDisabledWithoutStreamURL(t *testing.T) {
	cfg := testDIConfig(t)
	if c := ProvideCollector(cfg, nil, nil); c != nil {
		t.Fatal("collector built without a stream url")
	}
}

func TestProvideCollectorEnabledWithStreamURL(t *testing.T) {
	cfg := testDIConfig(t)
	cfg.OANDA.StreamURL = "wss://stream-fxpractice.oanda.com/v3/pricing/stream"
	cfg.OANDA.CollectGranularity = "M1"
	if c := ProvideCollector(cfg, nil, nil); c == nil {
		t.Fatal("collector not built despite stream url")
	}
}
