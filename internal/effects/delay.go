package effects

// Echo is a mono feedback delay. The line is allocated once at construction.
type Echo struct {
	buf      []float64
	pos      int
	feedback float64
	wet      float64
}

// NewEcho creates an echo of delayMs milliseconds.
// feedback: 0..0.95
// wet: wet/dry mix 0..1
func NewEcho(sampleRate float64, delayMs, feedback, wet float64) *Echo {
	samples := int(delayMs * sampleRate / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &Echo{
		buf:      make([]float64, samples),
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

func (e *Echo) Process(x float64, i int) float64 {
	del := e.buf[e.pos]
	e.buf[e.pos] = x + del*e.feedback
	e.pos++
	if e.pos >= len(e.buf) {
		e.pos = 0
	}
	return x*(1-e.wet) + del*e.wet
}

func (e *Echo) Reset() {
	clear(e.buf)
	e.pos = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
