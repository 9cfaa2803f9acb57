package fan

import (
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/nvml-tune/pkg/errors"
)

// Keypoint anchors one vertex of the piecewise-linear fan curve.
// Temp is degrees Celsius, Duty a fan speed percentage, both in [0, 100].
type Keypoint struct {
	Temp int
	Duty int
}

// Curve is a canonical keypoint sequence: non-empty, temperatures
// strictly increasing, anchored at Temp 0 and Temp 100. Duties need not
// be monotone. Construct it with ParseCurve.
type Curve []Keypoint

// ParseCurve converts a textual "(temp:duty),(temp:duty),..." description
// into a canonical Curve. A trailing comma is tolerated. Parsing is a
// pure function of the input string.
//
// Canonicalization: points sharing a temperature collapse to the one
// with the larger duty, survivors are sorted by temperature, and the
// curve is anchored with (0,0) and (100,100) when the ends are missing.
func ParseCurve(input string) (Curve, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, errors.New(errors.KindEmptyCurve, "fan curve has no keypoints")
	}

	tokens := strings.Split(s, ",")
	if len(tokens) > 1 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}

	// Max duty wins on duplicate temperatures: user intent is
	// "at this temperature, at least this loud".
	byTemp := make(map[int]int, len(tokens))
	for _, tok := range tokens {
		p, err := parseKeypoint(tok)
		if err != nil {
			return nil, err
		}
		if duty, ok := byTemp[p.Temp]; !ok || p.Duty > duty {
			byTemp[p.Temp] = p.Duty
		}
	}

	if len(byTemp) == 0 {
		return nil, errors.New(errors.KindEmptyCurve, "fan curve has no keypoints")
	}

	curve := make(Curve, 0, len(byTemp)+2)
	for temp, duty := range byTemp {
		curve = append(curve, Keypoint{Temp: temp, Duty: duty})
	}
	sort.Slice(curve, func(i, j int) bool { return curve[i].Temp < curve[j].Temp })

	if curve[0].Temp != 0 {
		curve = append(Curve{{Temp: 0, Duty: 0}}, curve...)
	}
	if curve[len(curve)-1].Temp < 100 {
		curve = append(curve, Keypoint{Temp: 100, Duty: 100})
	}

	return curve, nil
}

// parseKeypoint parses a single "(uint:uint)" token.
func parseKeypoint(tok string) (Keypoint, error) {
	body, ok := strings.CutPrefix(tok, "(")
	if !ok {
		return Keypoint{}, errors.Newf(errors.KindParse, "keypoint %q must start with '('", tok)
	}
	body, ok = strings.CutSuffix(body, ")")
	if !ok {
		return Keypoint{}, errors.Newf(errors.KindParse, "keypoint %q must end with ')'", tok)
	}

	rawTemp, rawDuty, ok := strings.Cut(body, ":")
	if !ok {
		return Keypoint{}, errors.Newf(errors.KindParse, "keypoint %q must be (temp:duty)", tok)
	}

	temp, err := parseUint(rawTemp)
	if err != nil {
		return Keypoint{}, errors.Newf(errors.KindParse, "keypoint %q: invalid temperature %q", tok, rawTemp)
	}
	duty, err := parseUint(rawDuty)
	if err != nil {
		return Keypoint{}, errors.Newf(errors.KindParse, "keypoint %q: invalid duty %q", tok, rawDuty)
	}

	if temp > 100 {
		return Keypoint{}, errors.Newf(errors.KindParse, "temperature %d exceeds 100C", temp)
	}
	if duty > 100 {
		return Keypoint{}, errors.Newf(errors.KindParse, "duty %d exceeds 100%%", duty)
	}

	return Keypoint{Temp: temp, Duty: duty}, nil
}

// parseUint accepts ASCII digits only; no signs, spaces, or hex.
func parseUint(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// DutyAt linearly interpolates the duty for temperature t along the
// curve. Temperatures below 0 are treated as 0; temperatures at or
// above 100 saturate to the last keypoint's duty. The result is
// truncated toward zero and clamped to [0, 100].
func (c Curve) DutyAt(t int) int {
	if t < 0 {
		t = 0
	}
	last := c[len(c)-1]
	if t >= last.Temp {
		return clampDuty(last.Duty)
	}

	// The curve is anchored and strictly increasing, so the segment
	// with p0.Temp <= t < p1.Temp exists for any t in [0, 100).
	for i := 0; i < len(c)-1; i++ {
		p0, p1 := c[i], c[i+1]
		if t < p0.Temp || t >= p1.Temp {
			continue
		}
		duty := float64(p0.Duty) +
			float64(t-p0.Temp)*float64(p1.Duty-p0.Duty)/float64(p1.Temp-p0.Temp)
		return clampDuty(int(duty))
	}

	return clampDuty(last.Duty)
}

func clampDuty(d int) int {
	if d < 0 {
		return 0
	}
	if d > 100 {
		return 100
	}
	return d
}
