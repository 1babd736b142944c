package effects

// Effect is a full-screen visual distortion the admin can push to the client.
type Effect string

const (
	None      Effect = "NONE"
	Glitch    Effect = "GLITCH"
	Lockdown  Effect = "LOCKDOWN"
	RedAlert  Effect = "RED_ALERT"
	Matrix    Effect = "MATRIX"
	SafePulse Effect = "SAFE_PULSE"
	// Honeypot deliberately renders nothing. The flagged user must not be
	// able to tell their session was diverted.
	Honeypot Effect = "HONEYPOT"
)

// Descriptor tells the client how to render an effect.
type Descriptor struct {
	Effect      Effect `json:"effect"`
	CSSClass    string `json:"css_class"`
	BlocksInput bool   `json:"blocks_input"`
}

var descriptors = map[Effect]Descriptor{
	None:      {Effect: None},
	Glitch:    {Effect: Glitch, CSSClass: "animate-pulse saturate-200 contrast-125 hue-rotate-15"},
	Lockdown:  {Effect: Lockdown, CSSClass: "bg-red-950/30 sepia contrast-150 border-4 border-red-600 animate-pulse", BlocksInput: true},
	RedAlert:  {Effect: RedAlert, CSSClass: "bg-red-950/30 sepia contrast-150 border-4 border-red-600 animate-pulse"},
	Matrix:    {Effect: Matrix, CSSClass: "bg-green-950/20 grayscale contrast-125 text-green-400 font-mono"},
	SafePulse: {Effect: SafePulse, CSSClass: "shadow-[inset_0_0_100px_rgba(16,185,129,0.2)] border-2 border-emerald-500/50 transition-all duration-1000"},
	Honeypot:  {Effect: Honeypot},
}

// Describe returns the rendering descriptor for an effect. Unknown effects
// map to None.
func Describe(e Effect) Descriptor {
	if d, ok := descriptors[e]; ok {
		return d
	}
	return descriptors[None]
}

// Valid reports whether e is a known effect.
func Valid(e Effect) bool {
	_, ok := descriptors[e]
	return ok
}
