package views

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
)

// WavePoints is the number of samples drawn over [-1, 1]
const WavePoints = 1000

// Wave samples y = a·cos(a·x) over x in [-1, 1]. It needs no datasets.
func Wave(_ Source, p Params) (*View, error) {
	a := 0.0
	if p.Amplitude != nil {
		a = *p.Amplitude
	}
	if a < 0 || a > 100 {
		return nil, invalidParams([]FieldError{{Field: "amplitude", Message: "must be between 0 and 100"}})
	}
	p.Amplitude = &a

	index := make([]string, WavePoints)
	for i := range index {
		index[i] = strconv.Itoa(i)
	}
	t := dataprocessing.NewTable("wave", "Point", index, []string{"x", "y"})
	step := 2.0 / float64(WavePoints-1)
	for i := range t.Values {
		x := -1 + float64(i)*step
		if i == WavePoints-1 {
			x = 1
		}
		t.Values[i][0] = x
		t.Values[i][1] = a * math.Cos(a*x)
	}

	return &View{
		Name:    "wave",
		Chart:   ChartLine,
		Title:   fmt.Sprintf("y = %g·cos(%g·x)", a, a),
		XLabel:  "x",
		YLabel:  "y",
		XColumn: "x",
		YColumn: "y",
		Params:  p,
		Table:   t,
	}, nil
}

// Greeting returns the dashboard greeting for name, defaulting to World
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "World"
	}
	return "Hello, " + name
}
