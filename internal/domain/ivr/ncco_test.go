package ivr

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNCCOResponse_Say(t *testing.T) {
	r := NewNCCOResponse().Say("Hello")
	assert.JSONEq(t, `[{"action":"talk","text":"Hello","bargeIn":false}]`, r.String())
}

func TestNCCOResponse_Play(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		digits  string
		want    string
		wantErr error
	}{
		{
			name: "url",
			url:  "https://example.com/hello.mp3",
			want: `[{"action":"stream","streamUrl":["https://example.com/hello.mp3"],"bargeIn":false}]`,
		},
		{
			name:   "url wins over digits",
			url:    "https://example.com/hello.mp3",
			digits: "123",
			want:   `[{"action":"stream","streamUrl":["https://example.com/hello.mp3"],"bargeIn":false}]`,
		},
		{
			name:   "digits",
			digits: "123",
			want:   `[{"action":"talk","text":"123","bargeIn":false}]`,
		},
		{
			name:    "nothing",
			want:    `[]`,
			wantErr: ErrNothingToPlay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewNCCOResponse().Play(tt.url, tt.digits)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.JSONEq(t, tt.want, r.String())
		})
	}
}

func TestNCCOResponse_NoOps(t *testing.T) {
	r := NewNCCOResponse().Pause().Hangup().Reject("busy")
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "[]", r.String())
}

func TestNCCOResponse_Redirect(t *testing.T) {
	r := NewNCCOResponse().Redirect("https://temba.io/ivr/c/1/handle")
	assert.JSONEq(t, `[{"action":"input","maxDigits":1,"timeOut":1,"eventUrl":["https://temba.io/ivr/c/1/handle?input_redirect=1"]}]`, r.String())

	r = NewNCCOResponse().Redirect("https://temba.io/ivr/c/1/handle?action=resume")
	assert.JSONEq(t, `[{"action":"input","maxDigits":1,"timeOut":1,"eventUrl":["https://temba.io/ivr/c/1/handle?action=resume&input_redirect=1"]}]`, r.String())
}

func TestNCCOResponse_Gather(t *testing.T) {
	tests := []struct {
		name string
		opts GatherOptions
		want string
	}{
		{
			name: "bare",
			opts: GatherOptions{},
			want: `[{"action":"input"}]`,
		},
		{
			name: "all options",
			opts: GatherOptions{Timeout: 10, FinishOnKey: "#", NumDigits: 4, Action: "https://temba.io/handle", Method: "GET"},
			want: `[{"action":"input","timeOut":10,"submitOnHash":true,"maxDigits":4,"eventMethod":"GET","eventUrl":["https://temba.io/handle"]}]`,
		},
		{
			name: "default method",
			opts: GatherOptions{Action: "https://temba.io/handle"},
			want: `[{"action":"input","eventMethod":"post","eventUrl":["https://temba.io/handle"]}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, NewNCCOResponse().Gather(tt.opts).String())
		})
	}
}

func TestNCCOResponse_Record(t *testing.T) {
	r := NewNCCOResponse().Say("Leave a message").Record(RecordOptions{MaxLength: 60, Action: "https://temba.io/handle?step=3"})

	assert.JSONEq(t, `[
		{"action":"talk","text":"Leave a message","bargeIn":false},
		{"action":"record","format":"wav","endOnSilence":4,"endOnKey":"#","beepStart":true,"timeOut":60,
		 "eventMethod":"post","eventUrl":["https://temba.io/handle?step=3&save_media=1"]},
		{"action":"input","maxDigits":1,"timeOut":1,"eventUrl":["https://temba.io/handle?step=3&save_media=1"]}
	]`, r.String())
}

func TestNCCOResponse_MethodPassedThrough(t *testing.T) {
	for _, method := range []string{"GET", "Post", "put"} {
		t.Run(method, func(t *testing.T) {
			doc := NewNCCOResponse().
				Gather(GatherOptions{Action: "https://temba.io/handle", Method: method}).
				Record(RecordOptions{Action: "https://temba.io/handle", Method: method}).
				Document()

			require.Len(t, doc, 3)
			assert.Equal(t, method, doc[0]["eventMethod"])
			assert.Equal(t, method, doc[1]["eventMethod"])
		})
	}
}

func TestNCCOResponse_BargeIn(t *testing.T) {
	r := NewNCCOResponse().
		Say("one").
		Say("two").
		Gather(GatherOptions{NumDigits: 1}).
		Say("three")

	doc := r.Document()
	require.Len(t, doc, 4)
	assert.Equal(t, false, doc[0]["bargeIn"])
	assert.Equal(t, true, doc[1]["bargeIn"])
	assert.Equal(t, false, doc[3]["bargeIn"])

	// rendering leaves the stored actions untouched
	assert.Equal(t, true, r.actions[0]["bargeIn"])
	assert.Equal(t, true, r.actions[3]["bargeIn"])
}

func TestNCCOResponse_Join(t *testing.T) {
	first := NewNCCOResponse().Say("first")
	second := NewNCCOResponse().Say("second").Join(first)

	assert.JSONEq(t, `[
		{"action":"talk","text":"first","bargeIn":false},
		{"action":"talk","text":"second","bargeIn":false}
	]`, second.String())
	assert.Equal(t, 1, first.Len())
}

func TestNCCOResponse_MarshalJSON(t *testing.T) {
	r := NewNCCOResponse().Say("Welcome").Gather(GatherOptions{
		Timeout:     5,
		FinishOnKey: "#",
		NumDigits:   2,
		Action:      "https://temba.io/ivr/c/1/handle",
	}).Say("Goodbye")

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.AssertJson(t, "GatherScript", r)
}
