package ivr

import (
	"fmt"

	"github.com/temba/backend/internal/domain/shared"
)

// StepType is the kind of a scripted IVR step
type StepType string

const (
	StepSay      StepType = "say"
	StepPlay     StepType = "play"
	StepPause    StepType = "pause"
	StepGather   StepType = "gather"
	StepRecord   StepType = "record"
	StepRedirect StepType = "redirect"
	StepHangup   StepType = "hangup"
	StepReject   StepType = "reject"
)

// IsValid returns true if the step type is known
func (t StepType) IsValid() bool {
	switch t {
	case StepSay, StepPlay, StepPause, StepGather, StepRecord, StepRedirect, StepHangup, StepReject:
		return true
	}
	return false
}

// Step is one instruction of a declarative IVR script
type Step struct {
	Type        StepType `json:"type"`
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	Digits      string   `json:"digits,omitempty"`
	Timeout     int      `json:"timeout,omitempty"`
	FinishOnKey string   `json:"finish_on_key,omitempty"`
	NumDigits   int      `json:"num_digits,omitempty"`
	MaxLength   int      `json:"max_length,omitempty"`
	Action      string   `json:"action,omitempty"`
	Method      string   `json:"method,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// FromSteps builds a response by applying each step in order
func FromSteps(steps []Step) (*NCCOResponse, error) {
	r := NewNCCOResponse()

	for i, s := range steps {
		switch s.Type {
		case StepSay:
			if s.Text == "" {
				return nil, stepError(i, "say requires text")
			}
			r.Say(s.Text)
		case StepPlay:
			if _, err := r.Play(s.URL, s.Digits); err != nil {
				return nil, stepError(i, err.Error())
			}
		case StepPause:
			r.Pause()
		case StepGather:
			r.Gather(GatherOptions{
				Timeout:     s.Timeout,
				FinishOnKey: s.FinishOnKey,
				NumDigits:   s.NumDigits,
				Action:      s.Action,
				Method:      s.Method,
			})
		case StepRecord:
			r.Record(RecordOptions{MaxLength: s.MaxLength, Action: s.Action, Method: s.Method})
		case StepRedirect:
			if s.URL == "" {
				return nil, stepError(i, "redirect requires a url")
			}
			r.Redirect(s.URL)
		case StepHangup:
			r.Hangup()
		case StepReject:
			r.Reject(s.Reason)
		default:
			return nil, stepError(i, fmt.Sprintf("unknown step type %q", s.Type))
		}
	}
	return r, nil
}

func stepError(index int, msg string) error {
	return shared.NewDomainError("INVALID_STEP", fmt.Sprintf("Step %d: %s", index, msg))
}
