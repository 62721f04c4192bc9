// Package ivr builds the call control documents returned to voice providers
// when a call asks what to do next.
package ivr

import (
	"encoding/json"
	"strings"

	"github.com/temba/backend/internal/domain/shared"
)

// NCCO action names
const (
	ActionTalk   = "talk"
	ActionStream = "stream"
	ActionInput  = "input"
	ActionRecord = "record"
)

// ErrNothingToPlay is returned when Play is given neither a URL nor digits
var ErrNothingToPlay = shared.NewDomainError("NOTHING_TO_PLAY", "Either a URL or digits are required to play")

// Action is a single NCCO instruction
type Action map[string]any

// Name returns the action's type
func (a Action) Name() string {
	name, _ := a["action"].(string)
	return name
}

func (a Action) clone() Action {
	c := make(Action, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// GatherOptions configures a DTMF input action
type GatherOptions struct {
	Timeout     int
	FinishOnKey string
	NumDigits   int
	Action      string
	Method      string
}

// RecordOptions configures a record action
type RecordOptions struct {
	MaxLength int
	Action    string
	Method    string
}

// NCCOResponse accumulates NCCO actions. An empty response hangs up, as
// the provider ends the call once it runs out of actions.
type NCCOResponse struct {
	actions []Action
}

// NewNCCOResponse creates an empty response
func NewNCCOResponse() *NCCOResponse {
	return &NCCOResponse{actions: make([]Action, 0)}
}

// Say speaks the given text
func (r *NCCOResponse) Say(text string) *NCCOResponse {
	return r.add(Action{"action": ActionTalk, "text": text, "bargeIn": true})
}

// Play streams the audio at url, or speaks digits when there is no url
func (r *NCCOResponse) Play(url, digits string) (*NCCOResponse, error) {
	switch {
	case url != "":
		return r.add(Action{"action": ActionStream, "streamUrl": []string{url}, "bargeIn": true}), nil
	case digits != "":
		return r.add(Action{"action": ActionTalk, "text": digits, "bargeIn": true}), nil
	}
	return r, ErrNothingToPlay
}

// Pause has no NCCO equivalent
func (r *NCCOResponse) Pause() *NCCOResponse {
	return r
}

// Hangup has no NCCO equivalent, the call ends after the last action
func (r *NCCOResponse) Hangup() *NCCOResponse {
	return r
}

// Reject behaves like Hangup
func (r *NCCOResponse) Reject(reason string) *NCCOResponse {
	return r.Hangup()
}

// Redirect sends the call to url by way of a short input action
func (r *NCCOResponse) Redirect(url string) *NCCOResponse {
	return r.add(Action{
		"action":    ActionInput,
		"maxDigits": 1,
		"timeOut":   1,
		"eventUrl":  []string{addParam(url, "input_redirect=1")},
	})
}

// Gather collects DTMF digits from the caller
func (r *NCCOResponse) Gather(opts GatherOptions) *NCCOResponse {
	a := Action{"action": ActionInput}
	if opts.Timeout > 0 {
		a["timeOut"] = opts.Timeout
	}
	if opts.FinishOnKey != "" {
		a["submitOnHash"] = true
	}
	if opts.NumDigits > 0 {
		a["maxDigits"] = opts.NumDigits
	}
	if opts.Action != "" {
		a["eventMethod"] = methodOrDefault(opts.Method)
		a["eventUrl"] = []string{opts.Action}
	}
	return r.add(a)
}

// Record records the caller then continues the call with a short input
// action so the recording can be posted back.
func (r *NCCOResponse) Record(opts RecordOptions) *NCCOResponse {
	rec := Action{
		"action":       ActionRecord,
		"format":       "wav",
		"endOnSilence": 4,
		"endOnKey":     "#",
		"beepStart":    true,
	}
	if opts.MaxLength > 0 {
		rec["timeOut"] = opts.MaxLength
	}

	input := Action{"action": ActionInput, "maxDigits": 1, "timeOut": 1}

	if opts.Action != "" {
		eventURL := addParam(opts.Action, "save_media=1")
		rec["eventMethod"] = methodOrDefault(opts.Method)
		rec["eventUrl"] = []string{eventURL}
		input["eventUrl"] = []string{eventURL}
	}
	return r.add(rec).add(input)
}

// Join puts the actions of other before this response's actions
func (r *NCCOResponse) Join(other *NCCOResponse) *NCCOResponse {
	joined := make([]Action, 0, len(other.actions)+len(r.actions))
	joined = append(joined, other.actions...)
	r.actions = append(joined, r.actions...)
	return r
}

// Len returns the number of actions
func (r *NCCOResponse) Len() int {
	return len(r.actions)
}

// Document returns the actions to send. A talk or stream can only be barged
// into when an input action follows it.
func (r *NCCOResponse) Document() []Action {
	doc := make([]Action, len(r.actions))
	for i, a := range r.actions {
		doc[i] = a.clone()

		name := a.Name()
		if name != ActionTalk && name != ActionStream {
			continue
		}
		if i == len(r.actions)-1 || r.actions[i+1].Name() != ActionInput {
			doc[i]["bargeIn"] = false
		}
	}
	return doc
}

// MarshalJSON renders the response as an NCCO array
func (r *NCCOResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

func (r *NCCOResponse) String() string {
	b, err := json.Marshal(r.Document())
	if err != nil {
		return "[]"
	}
	return string(b)
}

func (r *NCCOResponse) add(a Action) *NCCOResponse {
	r.actions = append(r.actions, a)
	return r
}

func addParam(url, param string) string {
	if strings.Contains(url, "?") {
		return url + "&" + param
	}
	return url + "?" + param
}

// methodOrDefault passes the caller's method through as given
func methodOrDefault(method string) string {
	if method == "" {
		return "post"
	}
	return method
}
