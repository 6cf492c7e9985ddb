package escape

import (
	"time"
)

var _ Escaper = &MeasuredEscaper{}

// MeasuredEscaper is an Escaper reporting the duration and outcome of every
// call it forwards to the wrapped Escaper.
type MeasuredEscaper struct {
	name     string
	escaper  Escaper
	recorder Recorder
	timeNow  func() time.Time
}

// NewMeasuredEscaper wraps escaper so that every call is reported to recorder
// under the given name.
func NewMeasuredEscaper(name string, escaper Escaper, recorder Recorder, timeNow func() time.Time) Escaper {
	return &MeasuredEscaper{
		name:     name,
		escaper:  escaper,
		recorder: recorder,
		timeNow:  timeNow,
	}
}

func (me *MeasuredEscaper) Escape(s string) (escaped string, err error) {
	defer func(t0 time.Time) {
		me.recorder.measure(me.name, me.timeNow().Sub(t0), err)
		if err == nil {
			me.recorder.measureRewrite(me.name, escaped != s)
		}
	}(me.timeNow())
	return me.escaper.Escape(s)
}
