package domain

import "math"

// Step is one stage of the happy path shown in progress displays.
type Step struct {
	Status      Status
	Label       string
	Description string
}

// Steps lists the happy-path stages in order.
var Steps = []Step{
	{StatusUploaded, "Uploaded", "Getting ready to start"},
	{StatusProcessing, "Preparing", "Initialising the job"},
	{StatusDownloading, "Downloading", "Fetching audio from YouTube"},
	{StatusTranscribing, "Transcribing", "Analysing the audio"},
	{StatusGenerating, "Generating", "Writing clips, thread and article"},
	{StatusCompleted, "Done", "All content has been generated"},
}

// StepState is the display state of a single step.
type StepState int

const (
	StepPending StepState = iota
	StepCurrent
	StepDone
)

// Progress is the display model derived from a status.
type Progress struct {
	Status  Status
	Index   int // -1 when the status is not a happy-path step
	Percent float64
}

// ProgressFor derives the progress model for s.
func ProgressFor(s Status) Progress {
	idx := stepIndex(s)
	p := Progress{Status: s, Index: idx}
	switch s {
	case StatusCompleted:
		p.Percent = 100
	case StatusError:
		p.Percent = 0
	default:
		p.Percent = math.Max((float64(idx)+0.5)/float64(len(Steps)-1)*100, 5)
	}
	return p
}

// Current returns the step matching the status, if any.
func (p Progress) Current() (Step, bool) {
	if p.Index < 0 {
		return Step{}, false
	}
	return Steps[p.Index], true
}

// StateOf reports how step i should be drawn.
func (p Progress) StateOf(i int) StepState {
	if p.Status == StatusCompleted {
		return StepDone
	}
	if i == p.Index {
		return StepCurrent
	}
	if p.Index > i {
		return StepDone
	}
	return StepPending
}

func stepIndex(s Status) int {
	for i, step := range Steps {
		if step.Status == s {
			return i
		}
	}
	return -1
}
