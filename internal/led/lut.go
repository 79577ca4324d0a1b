package led

import "math"

// GammaLUT maps linear 0..255 to output bytes with exponent gamma.
type GammaLUT [256]byte

// BuildGamma returns the LUT for gamma; gamma <= 0 or 1 is identity.
func BuildGamma(gamma float64) GammaLUT {
	var l GammaLUT
	for i := range l {
		if gamma <= 0 || gamma == 1 {
			l[i] = byte(i)
			continue
		}
		l[i] = byte(math.Round(255 * math.Pow(float64(i)/255, gamma)))
	}
	return l
}
