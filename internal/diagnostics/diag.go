package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes emitted by the clock.
const (
	SamplerLag  = "SAMPLER.LAG"
	DriverWrite = "DRIVER.WRITE"
	TestRunning = "TEST.RUNNING"
	TestDone    = "TEST.DONE"
	TestUnknown = "TEST.UNKNOWN"
	ConfigSave  = "CONFIG.SAVE"
)

// LagThreshold is the sampler lag above which a SAMPLER.LAG warning is raised.
const LagThreshold = 500 * time.Millisecond

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Lag reports a late clock refresh.
func Lag(lag time.Duration) Diagnostic {
	return Diagnostic{
		Severity:     Warn,
		Code:         SamplerLag,
		Summary:      "Clock refresh is running late",
		LikelyCauses: []string{"render loop starved of CPU", "fps set too low"},
		Evidence:     map[string]any{"lag_ms": lag.Milliseconds()},
	}
}

// Write reports a failed driver write.
func Write(err error) Diagnostic {
	return Diagnostic{
		Severity:       Err,
		Code:           DriverWrite,
		Summary:        "LED driver write failed",
		Detail:         err.Error(),
		LikelyCauses:   []string{"SPI device missing or busy", "strip length does not match config"},
		SuggestedFixes: []string{"check spi.dev and permissions", "run with driver: sim"},
	}
}
