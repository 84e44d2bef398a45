package disf

import "math"

// D65 reference white in XYZ.
var d65White = [3]float32{0.950456, 1.0, 1.088754}

const labEpsilon = 8.85645167903563082e-3

// The conversion keeps every intermediate in single precision, with the
// transcendental steps evaluated in double, so features match libdisf bit
// for bit. Explicit float64 conversions keep products from being fused.

// gammaCorr linearises a normalised sRGB component.
func gammaCorr(v float32) float32 {
	if float64(v) > 0.04045 {
		return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
	}
	return float32(float64(v) / 12.92)
}

func labFunc(v float32) float32 {
	if float64(v) >= labEpsilon {
		return float32(math.Pow(float64(v), 0.333333333333333))
	}
	return float32(float64(float64(v)*841.0)/108.0 + 4.0/29.0)
}

func weighted(a, b, c float32, wa, wb, wc float64) float32 {
	return float32(float64(float64(a)*wa) + float64(float64(b)*wb) + float64(float64(c)*wc))
}

// SRGBToLab converts an sRGB triple in [0, normVal] to CIELAB.
func SRGBToLab(r, g, b int32, normVal int) [3]float32 {
	norm := float64(float32(normVal))
	rl := gammaCorr(float32(float64(r) / norm))
	gl := gammaCorr(float32(float64(g) / norm))
	bl := gammaCorr(float32(float64(b) / norm))

	x := weighted(rl, gl, bl, 0.4123955889674142161, 0.3575834307637148171, 0.1804926473817015735)
	y := weighted(rl, gl, bl, 0.2125862307855955516, 0.7151703037034108499, 0.07220049864333622685)
	z := weighted(rl, gl, bl, 0.01929721549174694484, 0.1191838645808485318, 0.9504971251315797660)

	fx := labFunc(x / d65White[0])
	fy := labFunc(y / d65White[1])
	fz := labFunc(z / d65White[2])

	return [3]float32{
		float32(float64(116.0*float64(fy)) - 16.0),
		float32(500.0 * float64(fx-fy)),
		float32(200.0 * float64(fy-fz)),
	}
}

// GrayToLab replicates a gray sample into all three sRGB components.
func GrayToLab(gray int32, normVal int) [3]float32 {
	return SRGBToLab(gray, gray, gray, normVal)
}

// pixelToLab picks the conversion from the channel layout: up to two
// channels is gray with optional alpha, otherwise sRGB with optional alpha.
func pixelToLab(px []int32, normVal int) [3]float32 {
	if len(px) <= 2 {
		return GrayToLab(px[0], normVal)
	}
	return SRGBToLab(px[0], px[1], px[2], normVal)
}
