package app

import "fmt"

// Pipeline stages, in execution order.
const (
	StageFetch   = "Fetch archives"
	StageExtract = "Extract archives"
	StagePlv     = "Tabulate sampling points"
	StageResult  = "Tabulate results"
)

// Stages lists the pipeline stages in order.
var Stages = []string{StageFetch, StageExtract, StagePlv, StageResult}

// UnitMsg updates the display state of one unit of work (an archive
// URL, an archive base name, or a year) within a stage.
type UnitMsg struct {
	Stage  string
	Unit   string
	Status string // Downloading, Extracting, Assembling, Complete, Skipped, Error
	Detail string
	Err    error
}

// StageDoneMsg signals that one stage finished.
type StageDoneMsg struct {
	Stage   string
	Summary string
	Err     error
}

// PipelineDoneMsg signals that the whole run finished.
type PipelineDoneMsg struct {
	Err error
}

func (m UnitMsg) String() string {
	return fmt.Sprintf("%s: %s %s", m.Stage, m.Unit, m.Status)
}
func (m StageDoneMsg) String() string    { return fmt.Sprintf("StageDone %s", m.Stage) }
func (m PipelineDoneMsg) String() string { return "PipelineDone" }
