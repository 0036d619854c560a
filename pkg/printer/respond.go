package printer

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Responder emits operator messages with Klipper-style prefixes ("//" for
// info, "!!" for errors). Output goes through a replaceable sink so tests
// and the API bridge can capture it.
type Responder struct {
	outputFunc func(string)
}

// NewResponder creates a responder that logs through logrus.
func NewResponder() *Responder {
	return &Responder{
		outputFunc: func(s string) { logrus.Info(s) },
	}
}

// SetOutputFunc replaces the output sink.
func (r *Responder) SetOutputFunc(f func(string)) {
	r.outputFunc = f
}

// Info emits an informational message.
func (r *Responder) Info(msg string) {
	r.output(fmt.Sprintf("// %s", msg))
}

// Error emits an error message.
func (r *Responder) Error(msg string) {
	r.output(fmt.Sprintf("!! %s", msg))
}

func (r *Responder) output(msg string) {
	if r.outputFunc != nil {
		r.outputFunc(msg)
	}
}
