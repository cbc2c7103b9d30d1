package pipeline

import (
	"errors"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/matcher"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
)

// fakeCamera serves numbered frames. Frames whose number is in fail are
// reported as capture failures.
type fakeCamera struct {
	openErr  error
	closeErr error
	fail     map[int]bool
	failAll  bool

	opened   int
	closed   int
	captures int
}

func (c *fakeCamera) Open(string) error {
	c.opened++
	return c.openErr
}

func (c *fakeCamera) Close() error {
	c.closed++
	return c.closeErr
}

func (c *fakeCamera) Capture() (camera.Frame, error) {
	c.captures++
	if c.failAll || c.fail[c.captures] {
		return camera.Frame{}, camera.ErrNoFrame
	}
	return camera.Frame{
		Data:   []byte{byte(c.captures), 0, 0},
		Width:  1,
		Height: 1,
		Format: camera.FormatBGR,
	}, nil
}

// countingMatcher labels every frame with a single result whose label is the
// call number, so stale results can be told apart from fresh ones.
type countingMatcher struct {
	calls   int
	failOn  map[int]bool
	panicOn int
}

func (m *countingMatcher) Match(frame camera.Frame, g *gallery.Gallery) ([]matcher.Result, error) {
	m.calls++
	if m.panicOn == m.calls {
		panic("matcher exploded")
	}
	if m.failOn[m.calls] {
		return nil, errors.New("provider failure")
	}
	return []matcher.Result{{
		Box:   recognition.Box{Top: int(frame.Data[0])},
		Label: label(m.calls),
	}}, nil
}

func label(call int) string {
	return "call-" + string(rune('0'+call))
}

// recordingPresenter remembers what it was shown and stops after stopAfter
// presentations or stopAfterPolls polls.
type recordingPresenter struct {
	stopAfter      int
	stopAfterPolls int
	err            error
	shown          [][]matcher.Result
	polls          int
}

func (p *recordingPresenter) Poll() (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	p.polls++
	return p.stopAfterPolls > 0 && p.polls >= p.stopAfterPolls, nil
}

func (p *recordingPresenter) Present(_ camera.Frame, results []matcher.Result) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	p.shown = append(p.shown, results)
	return p.stopAfter > 0 && len(p.shown) >= p.stopAfter, nil
}

func labels(shown [][]matcher.Result) []string {
	out := make([]string, len(shown))
	for i, rs := range shown {
		if len(rs) == 0 {
			out[i] = ""
			continue
		}
		out[i] = rs[0].Label
	}
	return out
}

// cancellingPresenter cancels the run's context after a number of frames,
// standing in for a signal arriving mid-run.
type cancellingPresenter struct {
	cancelAfter int
	cancel      func()
	seen        int
}

func (p *cancellingPresenter) Poll() (bool, error) {
	return false, nil
}

func (p *cancellingPresenter) Present(camera.Frame, []matcher.Result) (bool, error) {
	p.seen++
	if p.seen == p.cancelAfter {
		p.cancel()
	}
	return false, nil
}
