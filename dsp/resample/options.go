package resample

// Quality controls default anti-aliasing kernel settings.
type Quality int

const (
	// QualityFast prioritizes lower CPU usage.
	QualityFast Quality = iota
	// QualityBalanced is the default quality/performance trade-off.
	QualityBalanced
	// QualityBest prioritizes stopband attenuation and passband flatness.
	QualityBest
)

// String returns the lower-case mode name.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBest:
		return "best"
	default:
		return "balanced"
	}
}

// ParseQuality maps a mode name back to a Quality. Unknown names report false.
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "fast":
		return QualityFast, true
	case "balanced", "":
		return QualityBalanced, true
	case "best":
		return QualityBest, true
	default:
		return QualityBalanced, false
	}
}

// Profile exposes default kernel parameters for each quality mode.
type Profile struct {
	ZeroCrossings     int
	CutoffScale       float64
	KaiserBeta        float64
	NominalStopbandDB float64
}

// QualityProfile returns the default profile used by quality mode q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{ZeroCrossings: 8, CutoffScale: 0.88, KaiserBeta: 5.0, NominalStopbandDB: 50}
	case QualityBest:
		return Profile{ZeroCrossings: 32, CutoffScale: 0.96, KaiserBeta: 9.0, NominalStopbandDB: 90}
	default:
		return Profile{ZeroCrossings: 16, CutoffScale: 0.92, KaiserBeta: 7.5, NominalStopbandDB: 75}
	}
}

type config struct {
	quality       Quality
	zeroCrossings int
	cutoffScale   float64
	kaiserBeta    float64
}

// Option configures the converter.
type Option func(*config)

// WithQuality selects a predefined anti-aliasing quality mode.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithZeroCrossings overrides the one-sided kernel length in zero crossings.
func WithZeroCrossings(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.zeroCrossings = n
		}
	}
}

// WithCutoffScale overrides normalized cutoff scaling in range (0, 1].
// 1.0 equals the theoretical anti-aliasing cutoff.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta overrides the Kaiser window beta parameter.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta > 0 {
			cfg.kaiserBeta = beta
		}
	}
}

func defaultConfig() config {
	return config{quality: QualityBalanced}
}

func (c config) finalized() config {
	p := QualityProfile(c.quality)
	if c.zeroCrossings <= 0 {
		c.zeroCrossings = p.ZeroCrossings
	}

	if c.cutoffScale <= 0 || c.cutoffScale > 1 {
		c.cutoffScale = p.CutoffScale
	}

	if c.kaiserBeta <= 0 {
		c.kaiserBeta = p.KaiserBeta
	}

	return c
}
